package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
)

type Client struct {
	ID         uuid.UUID
	OwnerID    uuid.UUID
	Name       string
	DocumentID string
	Email      string
	Phone      string
	Segment    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func NewClient(ownerID uuid.UUID, name, documentID, email, phone, segment string) (*Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("name", "имя клиента обязательно")
	}
	now := time.Now().UTC()
	return &Client{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Name:       name,
		DocumentID: strings.TrimSpace(documentID),
		Email:      strings.TrimSpace(email),
		Phone:      strings.TrimSpace(phone),
		Segment:    strings.TrimSpace(segment),
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (c *Client) IsOwnedBy(userID uuid.UUID) bool {
	return c.OwnerID == userID
}

type ClientChanges struct {
	Name       *string
	DocumentID *string
	Email      *string
	Phone      *string
	Segment    *string
}

func (c *Client) Apply(changes ClientChanges) error {
	if changes.Name != nil {
		name := strings.TrimSpace(*changes.Name)
		if name == "" {
			return apperror.Validation("name", "имя клиента обязательно")
		}
		c.Name = name
	}
	if changes.DocumentID != nil {
		c.DocumentID = strings.TrimSpace(*changes.DocumentID)
	}
	if changes.Email != nil {
		c.Email = strings.TrimSpace(*changes.Email)
	}
	if changes.Phone != nil {
		c.Phone = strings.TrimSpace(*changes.Phone)
	}
	if changes.Segment != nil {
		c.Segment = strings.TrimSpace(*changes.Segment)
	}
	c.UpdatedAt = time.Now().UTC()
	return nil
}
