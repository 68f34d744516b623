package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-engine/internal/domain/valueobject"
	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
)

const maxTitleLength = 200

type Proposal struct {
	ID               uuid.UUID
	Title            string
	ClientID         *uuid.UUID
	OwnerID          uuid.UUID
	Currency         string
	Status           valueobject.ProposalStatus
	ValidUntil       *time.Time
	RequiresApproval bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func NewProposal(ownerID uuid.UUID, title string, clientID *uuid.UUID, validUntil *time.Time, currency string, requiresApproval bool) (*Proposal, error) {
	title = strings.TrimSpace(title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if ownerID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}
	cur, err := valueobject.NormalizeCurrency(currency)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Proposal{
		ID:               uuid.New(),
		Title:            title,
		ClientID:         clientID,
		OwnerID:          ownerID,
		Currency:         cur,
		Status:           valueobject.ProposalStatusDraft,
		ValidUntil:       validUntil,
		RequiresApproval: requiresApproval,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// ProposalChanges обновляет редактируемые поля частично. nil означает «не менять».
type ProposalChanges struct {
	Title            *string
	ClientID         *uuid.UUID
	ClearClient      bool
	ValidUntil       *time.Time
	ClearValidUntil  bool
	Currency         *string
	RequiresApproval *bool
}

func (p *Proposal) Apply(changes ProposalChanges) error {
	if changes.Title != nil {
		title := strings.TrimSpace(*changes.Title)
		if err := validateTitle(title); err != nil {
			return err
		}
		p.Title = title
	}
	if changes.ClearClient {
		p.ClientID = nil
	} else if changes.ClientID != nil {
		id := *changes.ClientID
		p.ClientID = &id
	}
	if changes.ClearValidUntil {
		p.ValidUntil = nil
	} else if changes.ValidUntil != nil {
		t := *changes.ValidUntil
		p.ValidUntil = &t
	}
	if changes.Currency != nil {
		cur, err := valueobject.NormalizeCurrency(*changes.Currency)
		if err != nil {
			return err
		}
		p.Currency = cur
	}
	if changes.RequiresApproval != nil {
		p.RequiresApproval = *changes.RequiresApproval
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (p *Proposal) IsOwnedBy(userID uuid.UUID) bool {
	return p.OwnerID == userID
}

// IsExpired проверяет срок действия на момент now. Истечение не хранится как статус.
func (p *Proposal) IsExpired(now time.Time) bool {
	return p.ValidUntil != nil && !p.ValidUntil.After(now)
}

func (p *Proposal) IsFinalized() bool {
	return p.Status.IsTerminal()
}

func validateTitle(title string) error {
	if title == "" {
		return apperror.Validation("title", "название предложения обязательно")
	}
	if len([]rune(title)) > maxTitleLength {
		return apperror.Validation("title", "название предложения слишком длинное")
	}
	return nil
}
