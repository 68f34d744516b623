package proposal

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
	"github.com/ignatzorin/proposal-engine/internal/domain/repository"
	"github.com/ignatzorin/proposal-engine/internal/repository/common"
)

type ListEventsUseCase struct {
	proposalRepo repository.ProposalRepository
	eventRepo    repository.EventRepository
}

func NewListEventsUseCase(proposalRepo repository.ProposalRepository, eventRepo repository.EventRepository) *ListEventsUseCase {
	return &ListEventsUseCase{proposalRepo: proposalRepo, eventRepo: eventRepo}
}

// Execute возвращает журнал событий в порядке записи.
func (uc *ListEventsUseCase) Execute(ctx context.Context, proposalID, requesterID uuid.UUID, limit, offset int) ([]*entity.ProposalEvent, int, error) {
	if _, err := findOwned(ctx, uc.proposalRepo, proposalID, requesterID); err != nil {
		return nil, 0, err
	}
	limit, offset = common.Paginate(limit, offset)
	return uc.eventRepo.ListByProposal(ctx, proposalID, limit, offset)
}

type ListSignaturesUseCase struct {
	proposalRepo  repository.ProposalRepository
	signatureRepo repository.SignatureRepository
}

func NewListSignaturesUseCase(proposalRepo repository.ProposalRepository, signatureRepo repository.SignatureRepository) *ListSignaturesUseCase {
	return &ListSignaturesUseCase{proposalRepo: proposalRepo, signatureRepo: signatureRepo}
}

func (uc *ListSignaturesUseCase) Execute(ctx context.Context, proposalID, requesterID uuid.UUID) ([]*entity.ProposalSignature, error) {
	if _, err := findOwned(ctx, uc.proposalRepo, proposalID, requesterID); err != nil {
		return nil, err
	}
	return uc.signatureRepo.ListByProposal(ctx, proposalID)
}
