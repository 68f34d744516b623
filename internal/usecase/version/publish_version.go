package version

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
	"github.com/ignatzorin/proposal-engine/internal/domain/pricing"
	"github.com/ignatzorin/proposal-engine/internal/domain/repository"
	"github.com/ignatzorin/proposal-engine/internal/domain/template"
	"github.com/ignatzorin/proposal-engine/internal/domain/valueobject"
	"github.com/ignatzorin/proposal-engine/internal/logger"
	"github.com/ignatzorin/proposal-engine/internal/metrics"
	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
)

// MaxPublishAttempts ограничивает повторы при конфликте номера или токена.
const MaxPublishAttempts = 5

// TokenIssuer выпускает публичный токен и ссылку.
type TokenIssuer interface {
	Issue() (string, string, error)
}

// ItemInput описывает позицию публикуемой версии. Если указан CatalogItemID, пустые
// описание и цена берутся из каталога на момент публикации.
type ItemInput struct {
	CatalogItemID *uuid.UUID
	Description   string
	Quantity      decimal.Decimal
	UnitPrice     *decimal.Decimal
	Discount      decimal.Decimal
	TaxRate       decimal.Decimal
}

type PublishInput struct {
	ProposalID  uuid.UUID
	RequesterID uuid.UUID
	Blocks      []template.Block
	Variables   template.Variables
	// Если Items пустой, позиции берутся из variables.pricing.items.
	Items []ItemInput
}

type PublishVersionUseCase struct {
	proposalRepo repository.ProposalRepository
	versionRepo  repository.VersionRepository
	catalogRepo  repository.CatalogRepository
	renderer     *template.Renderer
	tokens       TokenIssuer
}

func NewPublishVersionUseCase(
	proposalRepo repository.ProposalRepository,
	versionRepo repository.VersionRepository,
	catalogRepo repository.CatalogRepository,
	renderer *template.Renderer,
	tokens TokenIssuer,
) *PublishVersionUseCase {
	return &PublishVersionUseCase{
		proposalRepo: proposalRepo,
		versionRepo:  versionRepo,
		catalogRepo:  catalogRepo,
		renderer:     renderer,
		tokens:       tokens,
	}
}

func (uc *PublishVersionUseCase) Execute(ctx context.Context, input PublishInput) (*entity.ProposalVersion, error) {
	if len(input.Blocks) == 0 {
		return nil, apperror.Validation("blocks", "список блоков не может быть пустым")
	}
	if len(input.Variables) == 0 {
		return nil, apperror.Validation("variables", "переменные не могут быть пустыми")
	}

	proposal, err := uc.proposalRepo.FindByID(ctx, input.ProposalID)
	if err != nil {
		return nil, err
	}
	if !proposal.IsOwnedBy(input.RequesterID) {
		return nil, apperror.ErrForbidden
	}
	if proposal.IsFinalized() {
		return nil, apperror.ErrProposalFinalized
	}

	itemInputs := input.Items
	if len(itemInputs) == 0 {
		itemInputs, err = itemsFromVariables(input.Variables)
		if err != nil {
			return nil, err
		}
	}

	items, err := uc.freezeItems(ctx, proposal, itemInputs)
	if err != nil {
		return nil, err
	}

	pricingItems := make([]pricing.Item, len(items))
	for i, it := range items {
		pricingItems[i] = it.PricingItem()
	}
	totals, err := pricing.Calculate(pricingItems)
	if err != nil {
		return nil, err
	}

	blocks := withFrozenPricing(input.Blocks, items)
	rendered := uc.renderer.Render(blocks, input.Variables)

	log := logger.Log.WithField("proposal_id", proposal.ID)
	for attempt := 1; attempt <= MaxPublishAttempts; attempt++ {
		publicToken, publicURL, err := uc.tokens.Issue()
		if err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось выпустить публичную ссылку")
		}

		now := time.Now().UTC()
		version := &entity.ProposalVersion{
			ID:                uuid.New(),
			ProposalID:        proposal.ID,
			SnapshotDocument:  rendered.Document,
			SnapshotBlocks:    blocks,
			SnapshotVariables: input.Variables,
			RenderWarnings:    rendered.Warnings,
			SubtotalAmount:    totals.Subtotal,
			DiscountAmount:    totals.DiscountAmount,
			TaxAmount:         totals.TaxAmount,
			TotalAmount:       totals.TotalAmount,
			PublicToken:       publicToken,
			PublicURL:         publicURL,
			Status:            valueobject.VersionStatusPublished,
			Items:             withFreshIDs(items),
			CreatedAt:         now,
			UpdatedAt:         now,
		}

		err = uc.versionRepo.Create(ctx, version)
		if apperror.IsConflict(err) {
			metrics.PublishRetries.Inc()
			log.WithField("attempt", attempt).Warn("Конфликт при публикации версии, повторяем")
			continue
		}
		if err != nil {
			return nil, err
		}

		uc.markSent(ctx, proposal.ID, log)
		metrics.VersionsPublished.Inc()
		log.WithFields(logrus.Fields{
			"version_id":     version.ID,
			"version_number": version.VersionNumber,
			"warnings":       len(version.RenderWarnings),
		}).Info("Версия предложения опубликована")
		return version, nil
	}

	log.Error("Публикация версии не удалась после всех попыток")
	return nil, apperror.ErrPublishRetryExhausted
}

// markSent переводит черновик в sent. Ошибка не отменяет публикацию.
func (uc *PublishVersionUseCase) markSent(ctx context.Context, proposalID uuid.UUID, log *logrus.Entry) {
	changed, err := uc.proposalRepo.CompareAndSetStatus(ctx, proposalID,
		[]valueobject.ProposalStatus{valueobject.ProposalStatusDraft}, valueobject.ProposalStatusSent)
	if err != nil {
		log.WithError(err).Warn("Не удалось перевести предложение в статус sent")
		return
	}
	if changed {
		metrics.StatusTransitions.WithLabelValues(string(valueobject.ProposalStatusSent)).Inc()
	}
}

// freezeItems подставляет значения каталога и фиксирует их в позициях версии.
func (uc *PublishVersionUseCase) freezeItems(ctx context.Context, proposal *entity.Proposal, inputs []ItemInput) ([]entity.ProposalVersionItem, error) {
	items := make([]entity.ProposalVersionItem, 0, len(inputs))
	for i, in := range inputs {
		item := entity.ProposalVersionItem{
			Position:       i,
			CatalogItemID:  in.CatalogItemID,
			Description:    strings.TrimSpace(in.Description),
			Quantity:       in.Quantity,
			DiscountAmount: in.Discount,
			TaxRate:        in.TaxRate,
		}
		if in.UnitPrice != nil {
			item.UnitPrice = *in.UnitPrice
		}

		if in.CatalogItemID != nil {
			field := fmt.Sprintf("items[%d].catalog_item_id", i)
			catalogItem, err := uc.catalogRepo.FindByID(ctx, *in.CatalogItemID)
			if apperror.IsNotFound(err) {
				return nil, apperror.Validation(field, "позиция каталога не найдена")
			}
			if err != nil {
				return nil, err
			}
			if !catalogItem.IsActive {
				return nil, apperror.Validation(field, "позиция каталога неактивна")
			}
			if in.UnitPrice == nil {
				if catalogItem.Currency != proposal.Currency {
					return nil, apperror.Validation(field, "валюта позиции каталога не совпадает с валютой предложения")
				}
				item.UnitPrice = catalogItem.UnitPrice
			}
			if item.Description == "" {
				item.Description = catalogItem.Name
			}
		} else if in.UnitPrice == nil {
			return nil, apperror.Validation(fmt.Sprintf("items[%d].unit_price", i), "цена обязательна")
		}

		items = append(items, item)
	}
	return items, nil
}

func withFreshIDs(items []entity.ProposalVersionItem) []entity.ProposalVersionItem {
	out := make([]entity.ProposalVersionItem, len(items))
	for i, it := range items {
		it.ID = uuid.New()
		out[i] = it
	}
	return out
}

// withFrozenPricing подменяет позиции во всех блоках pricing зафиксированными позициями версии,
// чтобы таблица в документе совпадала с сохранёнными суммами.
func withFrozenPricing(blocks []template.Block, items []entity.ProposalVersionItem) []template.Block {
	lines := make([]any, len(items))
	for i, it := range items {
		lines[i] = map[string]any{
			"description": it.Description,
			"quantity":    it.Quantity.String(),
			"unit_price":  it.UnitPrice.String(),
			"discount":    it.DiscountAmount.String(),
			"tax_rate":    it.TaxRate.String(),
		}
	}

	out := make([]template.Block, len(blocks))
	for i, b := range blocks {
		if b.Type == template.BlockPricing {
			props := make(map[string]any, len(b.Properties)+1)
			for k, v := range b.Properties {
				props[k] = v
			}
			props["items"] = lines
			b.Properties = props
		}
		out[i] = b
	}
	return out
}

func itemsFromVariables(vars template.Variables) ([]ItemInput, error) {
	value, ok := template.Lookup(vars, "pricing.items")
	if !ok {
		return nil, nil
	}
	lines, err := template.DecodePricingLines(value)
	if err != nil {
		return nil, apperror.Validation("variables.pricing.items", "некорректный формат позиций")
	}
	inputs := make([]ItemInput, len(lines))
	for i, line := range lines {
		price := line.UnitPrice.Decimal
		inputs[i] = ItemInput{
			Description: line.Description.String(),
			Quantity:    line.Quantity.Decimal,
			UnitPrice:   &price,
			Discount:    line.Discount.Decimal,
			TaxRate:     line.TaxRate.Decimal,
		}
	}
	return inputs, nil
}
