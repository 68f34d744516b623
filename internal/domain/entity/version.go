package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/proposal-engine/internal/domain/pricing"
	"github.com/ignatzorin/proposal-engine/internal/domain/template"
	"github.com/ignatzorin/proposal-engine/internal/domain/valueobject"
)

// ProposalVersion неизменяема: после создания меняется только Status.
type ProposalVersion struct {
	ID                uuid.UUID
	ProposalID        uuid.UUID
	VersionNumber     int
	SnapshotDocument  string
	SnapshotBlocks    []template.Block
	SnapshotVariables template.Variables
	RenderWarnings    []template.Warning
	SubtotalAmount    decimal.Decimal
	DiscountAmount    decimal.Decimal
	TaxAmount         decimal.Decimal
	TotalAmount       decimal.Decimal
	PublicToken       string
	PublicURL         string
	Status            valueobject.VersionStatus
	Items             []ProposalVersionItem
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type ProposalVersionItem struct {
	ID             uuid.UUID
	VersionID      uuid.UUID
	Position       int
	CatalogItemID  *uuid.UUID
	Description    string
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxRate        decimal.Decimal
}

func (i ProposalVersionItem) PricingItem() pricing.Item {
	return pricing.Item{
		Quantity:  i.Quantity,
		UnitPrice: i.UnitPrice,
		Discount:  i.DiscountAmount,
		TaxRate:   i.TaxRate,
	}
}

// Totals возвращает сохранённые итоги версии.
func (v *ProposalVersion) Totals() pricing.Totals {
	return pricing.Totals{
		Subtotal:       v.SubtotalAmount,
		DiscountAmount: v.DiscountAmount,
		TaxAmount:      v.TaxAmount,
		TotalAmount:    v.TotalAmount,
	}
}

func (v *ProposalVersion) PricingItems() []pricing.Item {
	items := make([]pricing.Item, 0, len(v.Items))
	for _, it := range v.Items {
		items = append(items, it.PricingItem())
	}
	return items
}

func (v *ProposalVersion) BelongsTo(proposalID uuid.UUID) bool {
	return v.ProposalID == proposalID
}

func (v *ProposalVersion) IsSigned() bool {
	return v.Status == valueobject.VersionStatusSigned
}
