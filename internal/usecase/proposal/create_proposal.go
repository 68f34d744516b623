package proposal

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
	"github.com/ignatzorin/proposal-engine/internal/domain/repository"
	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
)

type CreateProposalInput struct {
	OwnerID          uuid.UUID
	Title            string
	ClientID         *uuid.UUID
	ValidUntil       *time.Time
	Currency         string
	RequiresApproval bool
}

type CreateProposalUseCase struct {
	proposalRepo repository.ProposalRepository
	clientRepo   repository.ClientRepository
}

func NewCreateProposalUseCase(proposalRepo repository.ProposalRepository, clientRepo repository.ClientRepository) *CreateProposalUseCase {
	return &CreateProposalUseCase{
		proposalRepo: proposalRepo,
		clientRepo:   clientRepo,
	}
}

func (uc *CreateProposalUseCase) Execute(ctx context.Context, input CreateProposalInput) (*entity.Proposal, error) {
	if input.ClientID != nil {
		if err := checkClient(ctx, uc.clientRepo, *input.ClientID, input.OwnerID); err != nil {
			return nil, err
		}
	}

	proposal, err := entity.NewProposal(
		input.OwnerID,
		input.Title,
		input.ClientID,
		input.ValidUntil,
		input.Currency,
		input.RequiresApproval,
	)
	if err != nil {
		return nil, err
	}

	if err := uc.proposalRepo.Create(ctx, proposal); err != nil {
		return nil, err
	}

	return proposal, nil
}

// checkClient проверяет, что клиент существует и принадлежит владельцу предложения.
func checkClient(ctx context.Context, clientRepo repository.ClientRepository, clientID, ownerID uuid.UUID) error {
	client, err := clientRepo.FindByID(ctx, clientID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.Validation("client_id", "клиент не найден")
		}
		return err
	}
	if !client.IsOwnedBy(ownerID) {
		return apperror.Validation("client_id", "клиент не найден")
	}
	return nil
}
