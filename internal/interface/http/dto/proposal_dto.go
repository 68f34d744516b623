package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
)

type CreateProposalRequest struct {
	Title            string     `json:"title"`
	ClientID         *uuid.UUID `json:"client_id"`
	ValidUntil       *string    `json:"valid_until"`
	Currency         string     `json:"currency"`
	RequiresApproval bool       `json:"requires_approval"`
}

// UpdateProposalRequest для PATCH. Пустая строка в client_id или valid_until очищает поле.
type UpdateProposalRequest struct {
	Title            *string `json:"title"`
	ClientID         *string `json:"client_id"`
	ValidUntil       *string `json:"valid_until"`
	Currency         *string `json:"currency"`
	RequiresApproval *bool   `json:"requires_approval"`
}

func (r UpdateProposalRequest) ToChanges() (entity.ProposalChanges, error) {
	changes := entity.ProposalChanges{
		Title:            r.Title,
		Currency:         r.Currency,
		RequiresApproval: r.RequiresApproval,
	}
	if r.ClientID != nil {
		if strings.TrimSpace(*r.ClientID) == "" {
			changes.ClearClient = true
		} else {
			id, err := uuid.Parse(*r.ClientID)
			if err != nil {
				return changes, apperror.Validation("client_id", "client_id должен быть UUID")
			}
			changes.ClientID = &id
		}
	}
	if r.ValidUntil != nil {
		if strings.TrimSpace(*r.ValidUntil) == "" {
			changes.ClearValidUntil = true
		} else {
			t, err := ParseTime("valid_until", r.ValidUntil)
			if err != nil {
				return changes, err
			}
			changes.ValidUntil = t
		}
	}
	return changes, nil
}

// ParseTime принимает RFC3339 или дату YYYY-MM-DD (конец дня по UTC).
func ParseTime(field string, value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	raw := strings.TrimSpace(*value)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	if d, err := time.Parse("2006-01-02", raw); err == nil {
		t := d.Add(24*time.Hour - time.Second).UTC()
		return &t, nil
	}
	return nil, apperror.Validation(field, "ожидается дата в формате RFC3339 или YYYY-MM-DD")
}

type ProposalResponse struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	ClientID         *uuid.UUID `json:"client_id"`
	OwnerID          uuid.UUID  `json:"owner_id"`
	Currency         string     `json:"currency"`
	Status           string     `json:"status"`
	ValidUntil       *time.Time `json:"valid_until"`
	IsExpired        bool       `json:"is_expired"`
	RequiresApproval bool       `json:"requires_approval"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type ProposalDetailsResponse struct {
	ProposalResponse
	VersionCount  int              `json:"version_count"`
	LatestVersion *VersionResponse `json:"latest_version"`
}

func ToProposalResponse(proposal *entity.Proposal) ProposalResponse {
	return ProposalResponse{
		ID:               proposal.ID,
		Title:            proposal.Title,
		ClientID:         proposal.ClientID,
		OwnerID:          proposal.OwnerID,
		Currency:         proposal.Currency,
		Status:           string(proposal.Status),
		ValidUntil:       proposal.ValidUntil,
		IsExpired:        proposal.IsExpired(time.Now()),
		RequiresApproval: proposal.RequiresApproval,
		CreatedAt:        proposal.CreatedAt,
		UpdatedAt:        proposal.UpdatedAt,
	}
}

func ToProposalResponses(proposals []*entity.Proposal) []ProposalResponse {
	responses := make([]ProposalResponse, 0, len(proposals))
	for _, proposal := range proposals {
		responses = append(responses, ToProposalResponse(proposal))
	}
	return responses
}

func ToProposalDetailsResponse(proposal *entity.Proposal, latest *entity.ProposalVersion, versionCount int) ProposalDetailsResponse {
	resp := ProposalDetailsResponse{
		ProposalResponse: ToProposalResponse(proposal),
		VersionCount:     versionCount,
	}
	if latest != nil {
		v := ToVersionResponse(latest)
		resp.LatestVersion = &v
	}
	return resp
}
