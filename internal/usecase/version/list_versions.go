package version

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
	"github.com/ignatzorin/proposal-engine/internal/domain/repository"
	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
)

type ListVersionsUseCase struct {
	proposalRepo repository.ProposalRepository
	versionRepo  repository.VersionRepository
}

func NewListVersionsUseCase(proposalRepo repository.ProposalRepository, versionRepo repository.VersionRepository) *ListVersionsUseCase {
	return &ListVersionsUseCase{proposalRepo: proposalRepo, versionRepo: versionRepo}
}

// Execute возвращает историю версий, новые первыми.
func (uc *ListVersionsUseCase) Execute(ctx context.Context, proposalID, requesterID uuid.UUID) ([]*entity.ProposalVersion, error) {
	proposal, err := uc.proposalRepo.FindByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if !proposal.IsOwnedBy(requesterID) {
		return nil, apperror.ErrForbidden
	}
	return uc.versionRepo.ListByProposal(ctx, proposalID)
}
