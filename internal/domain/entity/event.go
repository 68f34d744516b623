package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-engine/internal/domain/valueobject"
)

// ProposalEvent только добавляется и никогда не изменяется.
type ProposalEvent struct {
	ID         uuid.UUID
	ProposalID uuid.UUID
	VersionID  *uuid.UUID
	Type       valueobject.EventType
	Metadata   map[string]any
	IP         string
	UserAgent  string
	CreatedAt  time.Time
}

func NewProposalEvent(proposalID uuid.UUID, versionID *uuid.UUID, eventType valueobject.EventType, metadata map[string]any, ip, userAgent string) *ProposalEvent {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &ProposalEvent{
		ID:         uuid.New(),
		ProposalID: proposalID,
		VersionID:  versionID,
		Type:       eventType,
		Metadata:   metadata,
		IP:         ip,
		UserAgent:  userAgent,
		CreatedAt:  time.Now().UTC(),
	}
}
