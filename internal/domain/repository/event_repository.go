package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
)

type EventRepository interface {
	Append(ctx context.Context, event *entity.ProposalEvent) error
	ListByProposal(ctx context.Context, proposalID uuid.UUID, limit, offset int) ([]*entity.ProposalEvent, int, error)
}
