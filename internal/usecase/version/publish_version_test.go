package version_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
	"github.com/ignatzorin/proposal-engine/internal/domain/template"
	"github.com/ignatzorin/proposal-engine/internal/domain/token"
	"github.com/ignatzorin/proposal-engine/internal/domain/valueobject"
	"github.com/ignatzorin/proposal-engine/internal/infrastructure/persistence/memory"
	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
	"github.com/ignatzorin/proposal-engine/internal/service"
	"github.com/ignatzorin/proposal-engine/internal/usecase/version"
)

type fixture struct {
	store   *memory.Store
	publish *version.PublishVersionUseCase
	owner   uuid.UUID
}

func newFixture(t *testing.T, issuer version.TokenIssuer) *fixture {
	t.Helper()
	store := memory.NewStore()
	if issuer == nil {
		issuer = token.NewIssuer("https://proposals.example.com")
	}
	return &fixture{
		store:   store,
		publish: version.NewPublishVersionUseCase(store.Proposals(), store.Versions(), store.Catalog(), template.NewRenderer(nil), issuer),
		owner:   uuid.New(),
	}
}

func (f *fixture) proposal(t *testing.T) *entity.Proposal {
	t.Helper()
	p, err := entity.NewProposal(f.owner, "Website redesign", nil, nil, "USD", false)
	require.NoError(t, err)
	require.NoError(t, f.store.Proposals().Create(context.Background(), p))
	return p
}

func sampleBlocks() []template.Block {
	return []template.Block{
		{ID: "hero", Type: template.BlockHero, Properties: map[string]any{"title": "{{client.name}}"}},
		{ID: "price", Type: template.BlockPricing, Properties: map[string]any{"items": "{{pricing.items}}"}},
	}
}

func sampleVariables() template.Variables {
	return template.Variables{
		"client": map[string]any{"name": "Acme"},
		"pricing": map[string]any{"items": []any{
			map[string]any{"description": "Design", "quantity": 2, "unit_price": "100.00", "discount": "10", "tax_rate": "19"},
		}},
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPublish_FirstVersionFromVariables(t *testing.T) {
	f := newFixture(t, nil)
	p := f.proposal(t)

	v, err := f.publish.Execute(context.Background(), version.PublishInput{
		ProposalID: p.ID, RequesterID: f.owner, Blocks: sampleBlocks(), Variables: sampleVariables(),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, v.VersionNumber)
	assert.Equal(t, valueobject.VersionStatusPublished, v.Status)
	assert.True(t, v.SubtotalAmount.Equal(dec("200")))
	assert.True(t, v.DiscountAmount.Equal(dec("10")))
	assert.True(t, v.TaxAmount.Equal(dec("36.10")))
	assert.True(t, v.TotalAmount.Equal(dec("226.10")))
	assert.Contains(t, v.SnapshotDocument, "Acme")
	assert.Len(t, v.Items, 1)
	assert.True(t, token.IsWellFormed(v.PublicToken))
	assert.Equal(t, "https://proposals.example.com/p/"+v.PublicToken, v.PublicURL)

	got, err := f.store.Proposals().FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.ProposalStatusSent, got.Status)
}

func TestPublish_ExplicitItemsWithCatalogPriceAreFrozen(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := f.proposal(t)

	item, err := entity.NewCatalogItem("SEO-01", "SEO audit", "", "seo", dec("300"), "USD")
	require.NoError(t, err)
	require.NoError(t, f.store.Catalog().Create(ctx, item))

	v, err := f.publish.Execute(ctx, version.PublishInput{
		ProposalID: p.ID, RequesterID: f.owner, Blocks: sampleBlocks(), Variables: sampleVariables(),
		Items: []version.ItemInput{{CatalogItemID: &item.ID, Quantity: dec("1")}},
	})
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.Equal(t, "SEO audit", v.Items[0].Description)
	assert.True(t, v.TotalAmount.Equal(dec("300")))

	item.UnitPrice = dec("999")
	require.NoError(t, f.store.Catalog().Update(ctx, item))

	stored, err := f.store.Versions().FindByID(ctx, v.ID)
	require.NoError(t, err)
	assert.True(t, stored.Items[0].UnitPrice.Equal(dec("300")))
	assert.True(t, stored.TotalAmount.Equal(dec("300")))
}

func TestPublish_DocumentTotalsMatchFrozenItems(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := f.proposal(t)

	item, err := entity.NewCatalogItem("SEO-02", "SEO audit", "", "seo", dec("300"), "USD")
	require.NoError(t, err)
	require.NoError(t, f.store.Catalog().Create(ctx, item))

	// Позиции в variables расходятся с явными позициями, документ должен показать зафиксированные.
	v, err := f.publish.Execute(ctx, version.PublishInput{
		ProposalID: p.ID, RequesterID: f.owner, Blocks: sampleBlocks(), Variables: sampleVariables(),
		Items: []version.ItemInput{{CatalogItemID: &item.ID, Quantity: dec("1")}},
	})
	require.NoError(t, err)
	assert.True(t, v.TotalAmount.Equal(dec("300")))
	assert.Contains(t, v.SnapshotDocument, v.TotalAmount.StringFixed(2))
	assert.Contains(t, v.SnapshotDocument, "SEO audit")
	assert.NotContains(t, v.SnapshotDocument, "226.10")
	assert.NotContains(t, v.SnapshotDocument, "Design")
}

func TestPublish_LiteralPricingPropsAreOverridden(t *testing.T) {
	f := newFixture(t, nil)
	p := f.proposal(t)
	blocks := []template.Block{{ID: "price", Type: template.BlockPricing, Properties: map[string]any{
		"title": "Стоимость",
		"items": []any{map[string]any{"description": "Подделка", "quantity": "1", "unit_price": "1"}},
	}}}

	price := dec("50")
	v, err := f.publish.Execute(context.Background(), version.PublishInput{
		ProposalID: p.ID, RequesterID: f.owner, Blocks: blocks, Variables: sampleVariables(),
		Items: []version.ItemInput{{Description: "Консультация", Quantity: dec("3"), UnitPrice: &price}},
	})
	require.NoError(t, err)
	assert.True(t, v.TotalAmount.Equal(dec("150")))
	assert.Contains(t, v.SnapshotDocument, "150.00")
	assert.Contains(t, v.SnapshotDocument, "Консультация")
	assert.NotContains(t, v.SnapshotDocument, "Подделка")
	assert.Contains(t, v.SnapshotDocument, "Стоимость")
}

func TestPublish_UnknownCatalogItem(t *testing.T) {
	f := newFixture(t, nil)
	p := f.proposal(t)
	missing := uuid.New()

	_, err := f.publish.Execute(context.Background(), version.PublishInput{
		ProposalID: p.ID, RequesterID: f.owner, Blocks: sampleBlocks(), Variables: sampleVariables(),
		Items: []version.ItemInput{{CatalogItemID: &missing, Quantity: dec("1")}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestPublish_Validation(t *testing.T) {
	f := newFixture(t, nil)
	p := f.proposal(t)
	ctx := context.Background()

	_, err := f.publish.Execute(ctx, version.PublishInput{ProposalID: p.ID, RequesterID: f.owner, Variables: sampleVariables()})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.publish.Execute(ctx, version.PublishInput{ProposalID: p.ID, RequesterID: f.owner, Blocks: sampleBlocks()})
	assert.True(t, apperror.IsValidation(err))

	negative := dec("-1")
	_, err = f.publish.Execute(ctx, version.PublishInput{
		ProposalID: p.ID, RequesterID: f.owner, Blocks: sampleBlocks(), Variables: sampleVariables(),
		Items: []version.ItemInput{{Description: "x", Quantity: dec("1"), UnitPrice: &negative}},
	})
	require.True(t, apperror.IsValidation(err))

	count, _ := f.store.Versions().CountByProposal(ctx, p.ID)
	assert.Zero(t, count)
}

func TestPublish_OwnerOnlyAndNotFinalized(t *testing.T) {
	f := newFixture(t, nil)
	p := f.proposal(t)
	ctx := context.Background()

	_, err := f.publish.Execute(ctx, version.PublishInput{
		ProposalID: p.ID, RequesterID: uuid.New(), Blocks: sampleBlocks(), Variables: sampleVariables(),
	})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = f.publish.Execute(ctx, version.PublishInput{
		ProposalID: uuid.New(), RequesterID: f.owner, Blocks: sampleBlocks(), Variables: sampleVariables(),
	})
	assert.ErrorIs(t, err, apperror.ErrProposalNotFound)

	_, err = f.store.Proposals().CompareAndSetStatus(ctx, p.ID,
		[]valueobject.ProposalStatus{valueobject.ProposalStatusDraft}, valueobject.ProposalStatusRejected)
	require.NoError(t, err)
	_, err = f.publish.Execute(ctx, version.PublishInput{
		ProposalID: p.ID, RequesterID: f.owner, Blocks: sampleBlocks(), Variables: sampleVariables(),
	})
	assert.ErrorIs(t, err, apperror.ErrProposalFinalized)
}

// sequenceIssuer выдаёт заранее заданные токены, затем уникальные.
type sequenceIssuer struct {
	mu     sync.Mutex
	tokens []string
	calls  int
	err    error
}

func (s *sequenceIssuer) Issue() (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return "", "", s.err
	}
	var tok string
	if len(s.tokens) > 0 {
		tok, s.tokens = s.tokens[0], s.tokens[1:]
	} else {
		tok = fmt.Sprintf("unique-%d", s.calls)
	}
	return tok, "https://x/p/" + tok, nil
}

func TestPublish_RetriesOnTokenCollision(t *testing.T) {
	issuer := &sequenceIssuer{tokens: []string{"dup", "dup", "dup"}}
	f := newFixture(t, issuer)
	p := f.proposal(t)
	in := version.PublishInput{ProposalID: p.ID, RequesterID: f.owner, Blocks: sampleBlocks(), Variables: sampleVariables()}

	first, err := f.publish.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "dup", first.PublicToken)

	second, err := f.publish.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 2, second.VersionNumber)
	assert.NotEqual(t, "dup", second.PublicToken)
	assert.Equal(t, 4, issuer.calls)
}

func TestPublish_RetryExhausted(t *testing.T) {
	tokens := make([]string, version.MaxPublishAttempts+1)
	for i := range tokens {
		tokens[i] = "same"
	}
	issuer := &sequenceIssuer{tokens: tokens}
	f := newFixture(t, issuer)
	p := f.proposal(t)
	in := version.PublishInput{ProposalID: p.ID, RequesterID: f.owner, Blocks: sampleBlocks(), Variables: sampleVariables()}

	_, err := f.publish.Execute(context.Background(), in)
	require.NoError(t, err)

	_, err = f.publish.Execute(context.Background(), in)
	assert.ErrorIs(t, err, apperror.ErrPublishRetryExhausted)
	count, _ := f.store.Versions().CountByProposal(context.Background(), p.ID)
	assert.Equal(t, 1, count)
}

func TestPublish_IssuerFailure(t *testing.T) {
	f := newFixture(t, &sequenceIssuer{err: errors.New("entropy")})
	p := f.proposal(t)

	_, err := f.publish.Execute(context.Background(), version.PublishInput{
		ProposalID: p.ID, RequesterID: f.owner, Blocks: sampleBlocks(), Variables: sampleVariables(),
	})
	assert.True(t, apperror.HasCode(err, apperror.ErrCodeInternal))
}

func TestPublish_ConcurrentPublishesAreNumberedContiguously(t *testing.T) {
	f := newFixture(t, nil)
	p := f.proposal(t)

	const n = 20
	var wg sync.WaitGroup
	results := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := f.publish.Execute(context.Background(), version.PublishInput{
				ProposalID: p.ID, RequesterID: f.owner, Blocks: sampleBlocks(), Variables: sampleVariables(),
			})
			if assert.NoError(t, err) {
				results <- v.VersionNumber
			}
		}()
	}
	wg.Wait()
	close(results)

	var numbers []int
	for n := range results {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	require.Len(t, numbers, n)
	for i, num := range numbers {
		assert.Equal(t, i+1, num)
	}
}

func TestPublish_PreviousVersionsAreNotMutated(t *testing.T) {
	f := newFixture(t, nil)
	p := f.proposal(t)
	ctx := context.Background()

	first, err := f.publish.Execute(ctx, version.PublishInput{
		ProposalID: p.ID, RequesterID: f.owner, Blocks: sampleBlocks(), Variables: sampleVariables(),
	})
	require.NoError(t, err)
	before, err := f.store.Versions().FindByID(ctx, first.ID)
	require.NoError(t, err)

	changed := sampleVariables()
	changed["client"] = map[string]any{"name": "Globex"}
	_, err = f.publish.Execute(ctx, version.PublishInput{
		ProposalID: p.ID, RequesterID: f.owner, Blocks: sampleBlocks(), Variables: changed,
	})
	require.NoError(t, err)

	after, err := f.store.Versions().FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, before.SnapshotDocument, after.SnapshotDocument)
	assert.Equal(t, before.SnapshotVariables, after.SnapshotVariables)
	assert.True(t, before.TotalAmount.Equal(after.TotalAmount))
	assert.Equal(t, before.PublicToken, after.PublicToken)
}

func TestListVersions_NewestFirstOwnerOnly(t *testing.T) {
	f := newFixture(t, nil)
	p := f.proposal(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.publish.Execute(ctx, version.PublishInput{
			ProposalID: p.ID, RequesterID: f.owner, Blocks: sampleBlocks(), Variables: sampleVariables(),
		})
		require.NoError(t, err)
	}

	uc := version.NewListVersionsUseCase(f.store.Proposals(), f.store.Versions())
	list, err := uc.Execute(ctx, p.ID, f.owner)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, 3, list[0].VersionNumber)
	assert.Equal(t, 1, list[2].VersionNumber)

	_, err = uc.Execute(ctx, p.ID, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestPublicView(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := f.proposal(t)

	v, err := f.publish.Execute(ctx, version.PublishInput{
		ProposalID: p.ID, RequesterID: f.owner, Blocks: sampleBlocks(), Variables: sampleVariables(),
	})
	require.NoError(t, err)

	cache := service.NewCacheService(ctx)
	uc := version.NewPublicViewUseCase(f.store.Proposals(), f.store.Versions(), cache)

	view, err := uc.Execute(ctx, v.PublicToken)
	require.NoError(t, err)
	assert.Equal(t, v.ID, view.Version.ID)
	assert.Equal(t, valueobject.ProposalStatusSent, view.Proposal.Status)
	_, cached := cache.Get(service.PublicVersionCacheKey(v.PublicToken))
	assert.True(t, cached)

	_, err = uc.Execute(ctx, "not-a-token")
	assert.ErrorIs(t, err, apperror.ErrPublicLinkNotFound)

	unknown, _, _ := token.NewIssuer("").Issue()
	_, err = uc.Execute(ctx, unknown)
	assert.ErrorIs(t, err, apperror.ErrPublicLinkNotFound)

	past := time.Now().Add(-time.Hour)
	p.ValidUntil = &past
	require.NoError(t, f.store.Proposals().Update(ctx, p))
	_, err = uc.Execute(ctx, v.PublicToken)
	assert.ErrorIs(t, err, apperror.ErrPublicLinkNotFound)
}
