package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
	"github.com/ignatzorin/proposal-engine/internal/domain/repository"
)

type CreateItemInput struct {
	SKU         string
	Name        string
	Description string
	Category    string
	UnitPrice   decimal.Decimal
	Currency    string
}

type CreateItemUseCase struct {
	catalogRepo repository.CatalogRepository
}

func NewCreateItemUseCase(catalogRepo repository.CatalogRepository) *CreateItemUseCase {
	return &CreateItemUseCase{catalogRepo: catalogRepo}
}

// Execute создаёт позицию. Занятый SKU возвращается хранилищем как CONFLICT.
func (uc *CreateItemUseCase) Execute(ctx context.Context, input CreateItemInput) (*entity.CatalogItem, error) {
	item, err := entity.NewCatalogItem(input.SKU, input.Name, input.Description, input.Category, input.UnitPrice, input.Currency)
	if err != nil {
		return nil, err
	}
	if err := uc.catalogRepo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

type GetItemUseCase struct {
	catalogRepo repository.CatalogRepository
}

func NewGetItemUseCase(catalogRepo repository.CatalogRepository) *GetItemUseCase {
	return &GetItemUseCase{catalogRepo: catalogRepo}
}

func (uc *GetItemUseCase) Execute(ctx context.Context, id uuid.UUID) (*entity.CatalogItem, error) {
	return uc.catalogRepo.FindByID(ctx, id)
}

type ListItemsUseCase struct {
	catalogRepo repository.CatalogRepository
}

func NewListItemsUseCase(catalogRepo repository.CatalogRepository) *ListItemsUseCase {
	return &ListItemsUseCase{catalogRepo: catalogRepo}
}

func (uc *ListItemsUseCase) Execute(ctx context.Context, filter repository.CatalogFilter) ([]*entity.CatalogItem, int, error) {
	return uc.catalogRepo.List(ctx, filter)
}

type UpdateItemUseCase struct {
	catalogRepo repository.CatalogRepository
}

func NewUpdateItemUseCase(catalogRepo repository.CatalogRepository) *UpdateItemUseCase {
	return &UpdateItemUseCase{catalogRepo: catalogRepo}
}

// Execute меняет живую позицию каталога. Опубликованные версии хранят
// замороженные цены и не затрагиваются.
func (uc *UpdateItemUseCase) Execute(ctx context.Context, id uuid.UUID, changes entity.CatalogItemChanges) (*entity.CatalogItem, error) {
	item, err := uc.catalogRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := item.Apply(changes); err != nil {
		return nil, err
	}
	if err := uc.catalogRepo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}
