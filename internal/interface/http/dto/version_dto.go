package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
	"github.com/ignatzorin/proposal-engine/internal/domain/template"
	"github.com/ignatzorin/proposal-engine/internal/usecase/version"
)

type PublishVersionRequest struct {
	Blocks    []template.Block   `json:"blocks"`
	Variables template.Variables `json:"variables"`
	Items     []ItemRequest      `json:"items"`
}

// ItemRequest принимает числа и строки: decimal разбирает оба варианта.
type ItemRequest struct {
	CatalogItemID *uuid.UUID       `json:"catalog_item_id"`
	Description   string           `json:"description"`
	Quantity      decimal.Decimal  `json:"quantity"`
	UnitPrice     *decimal.Decimal `json:"unit_price"`
	Discount      decimal.Decimal  `json:"discount"`
	TaxRate       decimal.Decimal  `json:"tax_rate"`
}

func (r PublishVersionRequest) ToItems() []version.ItemInput {
	items := make([]version.ItemInput, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, version.ItemInput{
			CatalogItemID: it.CatalogItemID,
			Description:   it.Description,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
			Discount:      it.Discount,
			TaxRate:       it.TaxRate,
		})
	}
	return items
}

type VersionItemResponse struct {
	ID             uuid.UUID       `json:"id"`
	Position       int             `json:"position"`
	CatalogItemID  *uuid.UUID      `json:"catalog_item_id,omitempty"`
	Description    string          `json:"description"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
}

type VersionResponse struct {
	ID                uuid.UUID             `json:"id"`
	ProposalID        uuid.UUID             `json:"proposal_id"`
	VersionNumber     int                   `json:"version_number"`
	SnapshotDocument  string                `json:"snapshot_document"`
	SnapshotBlocks    []template.Block      `json:"snapshot_blocks"`
	SnapshotVariables template.Variables    `json:"snapshot_variables"`
	RenderWarnings    []template.Warning    `json:"render_warnings"`
	SubtotalAmount    decimal.Decimal       `json:"subtotal_amount"`
	DiscountAmount    decimal.Decimal       `json:"discount_amount"`
	TaxAmount         decimal.Decimal       `json:"tax_amount"`
	TotalAmount       decimal.Decimal       `json:"total_amount"`
	PublicToken       string                `json:"public_token"`
	PublicURL         string                `json:"public_url"`
	Status            string                `json:"status"`
	Items             []VersionItemResponse `json:"items"`
	CreatedAt         time.Time             `json:"created_at"`
}

func toItemResponses(items []entity.ProposalVersionItem) []VersionItemResponse {
	out := make([]VersionItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, VersionItemResponse{
			ID:             it.ID,
			Position:       it.Position,
			CatalogItemID:  it.CatalogItemID,
			Description:    it.Description,
			Quantity:       it.Quantity,
			UnitPrice:      it.UnitPrice,
			DiscountAmount: it.DiscountAmount,
			TaxRate:        it.TaxRate,
		})
	}
	return out
}

func ToVersionResponse(v *entity.ProposalVersion) VersionResponse {
	warnings := v.RenderWarnings
	if warnings == nil {
		warnings = []template.Warning{}
	}
	return VersionResponse{
		ID:                v.ID,
		ProposalID:        v.ProposalID,
		VersionNumber:     v.VersionNumber,
		SnapshotDocument:  v.SnapshotDocument,
		SnapshotBlocks:    v.SnapshotBlocks,
		SnapshotVariables: v.SnapshotVariables,
		RenderWarnings:    warnings,
		SubtotalAmount:    v.SubtotalAmount,
		DiscountAmount:    v.DiscountAmount,
		TaxAmount:         v.TaxAmount,
		TotalAmount:       v.TotalAmount,
		PublicToken:       v.PublicToken,
		PublicURL:         v.PublicURL,
		Status:            string(v.Status),
		Items:             toItemResponses(v.Items),
		CreatedAt:         v.CreatedAt,
	}
}

func ToVersionResponses(versions []*entity.ProposalVersion) []VersionResponse {
	responses := make([]VersionResponse, 0, len(versions))
	for _, v := range versions {
		responses = append(responses, ToVersionResponse(v))
	}
	return responses
}

// PublicProposalResponse отдаётся по публичной ссылке. Токенов и внутренних полей владельца здесь нет.
type PublicProposalResponse struct {
	ProposalID     uuid.UUID             `json:"proposal_id"`
	VersionID      uuid.UUID             `json:"version_id"`
	Title          string                `json:"title"`
	Status         string                `json:"status"`
	Currency       string                `json:"currency"`
	ValidUntil     *time.Time            `json:"valid_until"`
	VersionNumber  int                   `json:"version_number"`
	Document       string                `json:"document"`
	SubtotalAmount decimal.Decimal       `json:"subtotal_amount"`
	DiscountAmount decimal.Decimal       `json:"discount_amount"`
	TaxAmount      decimal.Decimal       `json:"tax_amount"`
	TotalAmount    decimal.Decimal       `json:"total_amount"`
	Items          []VersionItemResponse `json:"items"`
	IsSigned       bool                  `json:"is_signed"`
}

func ToPublicProposalResponse(view *version.PublicView) PublicProposalResponse {
	p, v := view.Proposal, view.Version
	return PublicProposalResponse{
		ProposalID:     p.ID,
		VersionID:      v.ID,
		Title:          p.Title,
		Status:         string(p.Status),
		Currency:       p.Currency,
		ValidUntil:     p.ValidUntil,
		VersionNumber:  v.VersionNumber,
		Document:       v.SnapshotDocument,
		SubtotalAmount: v.SubtotalAmount,
		DiscountAmount: v.DiscountAmount,
		TaxAmount:      v.TaxAmount,
		TotalAmount:    v.TotalAmount,
		Items:          toItemResponses(v.Items),
		IsSigned:       v.IsSigned(),
	}
}
