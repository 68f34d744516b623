package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
)

type TrackEventRequest struct {
	ProposalID string         `json:"proposal_id"`
	VersionID  *string        `json:"version_id"`
	Type       string         `json:"type"`
	Metadata   map[string]any `json:"metadata"`
}

type EventResponse struct {
	ID         uuid.UUID      `json:"id"`
	ProposalID uuid.UUID      `json:"proposal_id"`
	VersionID  *uuid.UUID     `json:"version_id"`
	Type       string         `json:"type"`
	Metadata   map[string]any `json:"metadata"`
	IP         string         `json:"ip,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

type TrackEventResponse struct {
	Event           EventResponse `json:"event"`
	StatusChangedTo *string       `json:"status_changed_to"`
}

func ToEventResponse(e *entity.ProposalEvent) EventResponse {
	return EventResponse{
		ID:         e.ID,
		ProposalID: e.ProposalID,
		VersionID:  e.VersionID,
		Type:       string(e.Type),
		Metadata:   e.Metadata,
		IP:         e.IP,
		UserAgent:  e.UserAgent,
		CreatedAt:  e.CreatedAt,
	}
}

func ToEventResponses(events []*entity.ProposalEvent) []EventResponse {
	responses := make([]EventResponse, 0, len(events))
	for _, e := range events {
		responses = append(responses, ToEventResponse(e))
	}
	return responses
}
