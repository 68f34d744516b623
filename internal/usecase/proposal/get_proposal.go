package proposal

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
	"github.com/ignatzorin/proposal-engine/internal/domain/repository"
	"github.com/ignatzorin/proposal-engine/internal/domain/valueobject"
	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
)

// Details дополняет предложение последней опубликованной версией.
type Details struct {
	Proposal      *entity.Proposal
	LatestVersion *entity.ProposalVersion
	VersionCount  int
}

type GetProposalUseCase struct {
	proposalRepo repository.ProposalRepository
	versionRepo  repository.VersionRepository
}

func NewGetProposalUseCase(proposalRepo repository.ProposalRepository, versionRepo repository.VersionRepository) *GetProposalUseCase {
	return &GetProposalUseCase{proposalRepo: proposalRepo, versionRepo: versionRepo}
}

func (uc *GetProposalUseCase) Execute(ctx context.Context, proposalID, requesterID uuid.UUID) (*Details, error) {
	proposal, err := findOwned(ctx, uc.proposalRepo, proposalID, requesterID)
	if err != nil {
		return nil, err
	}

	details := &Details{Proposal: proposal}
	count, err := uc.versionRepo.CountByProposal(ctx, proposal.ID)
	if err != nil {
		return nil, err
	}
	details.VersionCount = count
	if count == 0 {
		return details, nil
	}

	latest, err := uc.versionRepo.FindLatest(ctx, proposal.ID)
	if err != nil && !apperror.IsNotFound(err) {
		return nil, err
	}
	details.LatestVersion = latest
	return details, nil
}

type ListProposalsInput struct {
	OwnerID  uuid.UUID
	Status   string
	ClientID *uuid.UUID
	Search   string
	Limit    int
	Offset   int
}

type ListProposalsUseCase struct {
	proposalRepo repository.ProposalRepository
}

func NewListProposalsUseCase(proposalRepo repository.ProposalRepository) *ListProposalsUseCase {
	return &ListProposalsUseCase{proposalRepo: proposalRepo}
}

// Execute возвращает только предложения запрашивающего владельца.
func (uc *ListProposalsUseCase) Execute(ctx context.Context, input ListProposalsInput) ([]*entity.Proposal, int, error) {
	filter := repository.ProposalFilter{
		OwnerID:  &input.OwnerID,
		ClientID: input.ClientID,
		Search:   input.Search,
		Limit:    input.Limit,
		Offset:   input.Offset,
	}
	if input.Status != "" {
		status, err := valueobject.NewProposalStatus(input.Status)
		if err != nil {
			return nil, 0, err
		}
		filter.Status = &status
	}
	return uc.proposalRepo.List(ctx, filter)
}

func findOwned(ctx context.Context, proposalRepo repository.ProposalRepository, proposalID, requesterID uuid.UUID) (*entity.Proposal, error) {
	proposal, err := proposalRepo.FindByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if !proposal.IsOwnedBy(requesterID) {
		return nil, apperror.ErrForbidden
	}
	return proposal, nil
}
