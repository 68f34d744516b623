package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
)

type CreateCatalogItemRequest struct {
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Currency    string          `json:"currency"`
}

type UpdateCatalogItemRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	Currency    *string          `json:"currency"`
	IsActive    *bool            `json:"is_active"`
}

func (r UpdateCatalogItemRequest) ToChanges() entity.CatalogItemChanges {
	return entity.CatalogItemChanges{
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		UnitPrice:   r.UnitPrice,
		Currency:    r.Currency,
		IsActive:    r.IsActive,
	}
}

type CatalogItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Currency    string          `json:"currency"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func ToCatalogItemResponse(i *entity.CatalogItem) CatalogItemResponse {
	return CatalogItemResponse{
		ID:          i.ID,
		SKU:         i.SKU,
		Name:        i.Name,
		Description: i.Description,
		Category:    i.Category,
		UnitPrice:   i.UnitPrice,
		Currency:    i.Currency,
		IsActive:    i.IsActive,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

func ToCatalogItemResponses(items []*entity.CatalogItem) []CatalogItemResponse {
	responses := make([]CatalogItemResponse, 0, len(items))
	for _, i := range items {
		responses = append(responses, ToCatalogItemResponse(i))
	}
	return responses
}
