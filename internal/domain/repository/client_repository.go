package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
)

type ClientFilter struct {
	OwnerID *uuid.UUID
	Search  string
	Limit   int
	Offset  int
}

type ClientRepository interface {
	Create(ctx context.Context, client *entity.Client) error
	Update(ctx context.Context, client *entity.Client) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Client, error)
	List(ctx context.Context, filter ClientFilter) ([]*entity.Client, int, error)
}
