package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
)

type SignatureRepository interface {
	// Create сохраняет подпись. У предложения и у версии может быть только одна подпись,
	// повторная возвращает CONFLICT.
	Create(ctx context.Context, signature *entity.ProposalSignature) error
	FindByVersionID(ctx context.Context, versionID uuid.UUID) (*entity.ProposalSignature, error)
	ListByProposal(ctx context.Context, proposalID uuid.UUID) ([]*entity.ProposalSignature, error)
}
