package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
)

type CatalogFilter struct {
	Category   string
	Search     string
	ActiveOnly bool
	Limit      int
	Offset     int
}

type CatalogRepository interface {
	// Create возвращает CONFLICT, если SKU уже занят.
	Create(ctx context.Context, item *entity.CatalogItem) error
	Update(ctx context.Context, item *entity.CatalogItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.CatalogItem, error)
	List(ctx context.Context, filter CatalogFilter) ([]*entity.CatalogItem, int, error)
}
