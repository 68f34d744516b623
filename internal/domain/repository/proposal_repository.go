package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
	"github.com/ignatzorin/proposal-engine/internal/domain/valueobject"
)

type ProposalFilter struct {
	Status   *valueobject.ProposalStatus
	OwnerID  *uuid.UUID
	ClientID *uuid.UUID
	Search   string
	Limit    int
	Offset   int
}

type ProposalRepository interface {
	Create(ctx context.Context, proposal *entity.Proposal) error
	// Update сохраняет редактируемые поля. Статус этим методом не меняется.
	Update(ctx context.Context, proposal *entity.Proposal) error
	// Delete удаляет предложение только если у него нет версий.
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Proposal, error)
	List(ctx context.Context, filter ProposalFilter) ([]*entity.Proposal, int, error)
	// CompareAndSetStatus меняет статус, только если текущий входит в from. Возвращает true, если строка обновлена.
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, from []valueobject.ProposalStatus, to valueobject.ProposalStatus) (bool, error)
}
