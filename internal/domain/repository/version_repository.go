package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
)

type VersionRepository interface {
	// Create атомарно назначает VersionNumber = max+1 и сохраняет версию вместе с позициями.
	// При нарушении уникальности номера или токена возвращает ошибку с кодом CONFLICT.
	Create(ctx context.Context, version *entity.ProposalVersion) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ProposalVersion, error)
	FindByToken(ctx context.Context, token string) (*entity.ProposalVersion, error)
	FindLatest(ctx context.Context, proposalID uuid.UUID) (*entity.ProposalVersion, error)
	// ListByProposal возвращает историю версий, новые первыми.
	ListByProposal(ctx context.Context, proposalID uuid.UUID) ([]*entity.ProposalVersion, error)
	CountByProposal(ctx context.Context, proposalID uuid.UUID) (int, error)
	// MarkSigned меняет только статус версии.
	MarkSigned(ctx context.Context, id uuid.UUID) error
}
