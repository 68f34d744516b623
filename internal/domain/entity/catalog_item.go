package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/proposal-engine/internal/domain/valueobject"
	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
)

type CatalogItem struct {
	ID          uuid.UUID
	SKU         string
	Name        string
	Description string
	Category    string
	UnitPrice   decimal.Decimal
	Currency    string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewCatalogItem(sku, name, description, category string, unitPrice decimal.Decimal, currency string) (*CatalogItem, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, apperror.Validation("sku", "SKU обязателен")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("name", "название позиции обязательно")
	}
	money, err := valueobject.NewMoney(unitPrice, currency)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &CatalogItem{
		ID:          uuid.New(),
		SKU:         sku,
		Name:        name,
		Description: strings.TrimSpace(description),
		Category:    strings.TrimSpace(category),
		UnitPrice:   money.Amount,
		Currency:    money.Currency,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// CatalogItemChanges обновляет позицию частично. SKU после создания не меняется.
type CatalogItemChanges struct {
	Name        *string
	Description *string
	Category    *string
	UnitPrice   *decimal.Decimal
	Currency    *string
	IsActive    *bool
}

func (i *CatalogItem) Apply(changes CatalogItemChanges) error {
	if changes.Name != nil {
		name := strings.TrimSpace(*changes.Name)
		if name == "" {
			return apperror.Validation("name", "название позиции обязательно")
		}
		i.Name = name
	}
	if changes.Description != nil {
		i.Description = strings.TrimSpace(*changes.Description)
	}
	if changes.Category != nil {
		i.Category = strings.TrimSpace(*changes.Category)
	}

	price, currency := i.UnitPrice, i.Currency
	if changes.UnitPrice != nil {
		price = *changes.UnitPrice
	}
	if changes.Currency != nil {
		currency = *changes.Currency
	}
	money, err := valueobject.NewMoney(price, currency)
	if err != nil {
		return err
	}
	i.UnitPrice, i.Currency = money.Amount, money.Currency

	if changes.IsActive != nil {
		i.IsActive = *changes.IsActive
	}
	i.UpdatedAt = time.Now().UTC()
	return nil
}
