package client

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
	"github.com/ignatzorin/proposal-engine/internal/domain/repository"
	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
	"github.com/ignatzorin/proposal-engine/internal/validation"
)

type CreateClientInput struct {
	OwnerID    uuid.UUID
	Name       string
	DocumentID string
	Email      string
	Phone      string
	Segment    string
}

type CreateClientUseCase struct {
	clientRepo repository.ClientRepository
}

func NewCreateClientUseCase(clientRepo repository.ClientRepository) *CreateClientUseCase {
	return &CreateClientUseCase{clientRepo: clientRepo}
}

func (uc *CreateClientUseCase) Execute(ctx context.Context, input CreateClientInput) (*entity.Client, error) {
	if err := validateEmail(input.Email); err != nil {
		return nil, err
	}
	client, err := entity.NewClient(input.OwnerID, input.Name, input.DocumentID, input.Email, input.Phone, input.Segment)
	if err != nil {
		return nil, err
	}
	if err := uc.clientRepo.Create(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

type GetClientUseCase struct {
	clientRepo repository.ClientRepository
}

func NewGetClientUseCase(clientRepo repository.ClientRepository) *GetClientUseCase {
	return &GetClientUseCase{clientRepo: clientRepo}
}

func (uc *GetClientUseCase) Execute(ctx context.Context, clientID, requesterID uuid.UUID) (*entity.Client, error) {
	return findOwned(ctx, uc.clientRepo, clientID, requesterID)
}

type ListClientsUseCase struct {
	clientRepo repository.ClientRepository
}

func NewListClientsUseCase(clientRepo repository.ClientRepository) *ListClientsUseCase {
	return &ListClientsUseCase{clientRepo: clientRepo}
}

func (uc *ListClientsUseCase) Execute(ctx context.Context, ownerID uuid.UUID, search string, limit, offset int) ([]*entity.Client, int, error) {
	return uc.clientRepo.List(ctx, repository.ClientFilter{
		OwnerID: &ownerID,
		Search:  search,
		Limit:   limit,
		Offset:  offset,
	})
}

type UpdateClientUseCase struct {
	clientRepo repository.ClientRepository
}

func NewUpdateClientUseCase(clientRepo repository.ClientRepository) *UpdateClientUseCase {
	return &UpdateClientUseCase{clientRepo: clientRepo}
}

func (uc *UpdateClientUseCase) Execute(ctx context.Context, clientID, requesterID uuid.UUID, changes entity.ClientChanges) (*entity.Client, error) {
	client, err := findOwned(ctx, uc.clientRepo, clientID, requesterID)
	if err != nil {
		return nil, err
	}
	if changes.Email != nil {
		if err := validateEmail(*changes.Email); err != nil {
			return nil, err
		}
	}
	if err := client.Apply(changes); err != nil {
		return nil, err
	}
	if err := uc.clientRepo.Update(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

// findOwned скрывает чужих клиентов за NOT_FOUND.
func findOwned(ctx context.Context, clientRepo repository.ClientRepository, clientID, requesterID uuid.UUID) (*entity.Client, error) {
	client, err := clientRepo.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if !client.IsOwnedBy(requesterID) {
		return nil, apperror.ErrClientNotFound
	}
	return client, nil
}

func validateEmail(email string) error {
	if email == "" {
		return nil
	}
	if err := validation.ValidateEmail(email); err != nil {
		return apperror.Validation("email", err.Error())
	}
	return nil
}
