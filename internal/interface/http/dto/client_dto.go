package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
)

type CreateClientRequest struct {
	Name       string `json:"name"`
	DocumentID string `json:"document_id"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Segment    string `json:"segment"`
}

type UpdateClientRequest struct {
	Name       *string `json:"name"`
	DocumentID *string `json:"document_id"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	Segment    *string `json:"segment"`
}

func (r UpdateClientRequest) ToChanges() entity.ClientChanges {
	return entity.ClientChanges{
		Name:       r.Name,
		DocumentID: r.DocumentID,
		Email:      r.Email,
		Phone:      r.Phone,
		Segment:    r.Segment,
	}
}

type ClientResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	DocumentID string    `json:"document_id"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Segment    string    `json:"segment"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func ToClientResponse(c *entity.Client) ClientResponse {
	return ClientResponse{
		ID:         c.ID,
		Name:       c.Name,
		DocumentID: c.DocumentID,
		Email:      c.Email,
		Phone:      c.Phone,
		Segment:    c.Segment,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func ToClientResponses(clients []*entity.Client) []ClientResponse {
	responses := make([]ClientResponse, 0, len(clients))
	for _, c := range clients {
		responses = append(responses, ToClientResponse(c))
	}
	return responses
}
