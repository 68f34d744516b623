package proposal

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
	"github.com/ignatzorin/proposal-engine/internal/domain/repository"
	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
)

type UpdateProposalUseCase struct {
	proposalRepo repository.ProposalRepository
	clientRepo   repository.ClientRepository
}

func NewUpdateProposalUseCase(proposalRepo repository.ProposalRepository, clientRepo repository.ClientRepository) *UpdateProposalUseCase {
	return &UpdateProposalUseCase{
		proposalRepo: proposalRepo,
		clientRepo:   clientRepo,
	}
}

// Execute меняет редактируемые поля. Статус через PATCH не меняется:
// он двигается только публикацией, событиями и подписью.
func (uc *UpdateProposalUseCase) Execute(ctx context.Context, proposalID, requesterID uuid.UUID, changes entity.ProposalChanges) (*entity.Proposal, error) {
	proposal, err := findOwned(ctx, uc.proposalRepo, proposalID, requesterID)
	if err != nil {
		return nil, err
	}
	if proposal.IsFinalized() {
		return nil, apperror.ErrProposalFinalized
	}

	if changes.ClientID != nil && !changes.ClearClient {
		if err := checkClient(ctx, uc.clientRepo, *changes.ClientID, requesterID); err != nil {
			return nil, err
		}
	}

	if err := proposal.Apply(changes); err != nil {
		return nil, err
	}

	if err := uc.proposalRepo.Update(ctx, proposal); err != nil {
		return nil, err
	}

	return proposal, nil
}

type DeleteProposalUseCase struct {
	proposalRepo repository.ProposalRepository
}

func NewDeleteProposalUseCase(proposalRepo repository.ProposalRepository) *DeleteProposalUseCase {
	return &DeleteProposalUseCase{proposalRepo: proposalRepo}
}

// Execute удаляет предложение без версий. Проверка отсутствия версий
// выполняется хранилищем атомарно с удалением.
func (uc *DeleteProposalUseCase) Execute(ctx context.Context, proposalID, requesterID uuid.UUID) error {
	if _, err := findOwned(ctx, uc.proposalRepo, proposalID, requesterID); err != nil {
		return err
	}
	return uc.proposalRepo.Delete(ctx, proposalID)
}
