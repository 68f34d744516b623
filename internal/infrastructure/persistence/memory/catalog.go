package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
	"github.com/ignatzorin/proposal-engine/internal/domain/repository"
	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
)

type catalogRepo struct{ s *Store }

func (r *catalogRepo) skuTaken(sku string, except uuid.UUID) bool {
	for _, it := range r.s.catalog {
		if it.ID != except && it.SKU == sku {
			return true
		}
	}
	return false
}

func (r *catalogRepo) Create(_ context.Context, item *entity.CatalogItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.skuTaken(item.SKU, item.ID) {
		return apperror.ErrDuplicateSKU
	}
	cp := *item
	r.s.catalog[item.ID] = &cp
	return nil
}

func (r *catalogRepo) Update(_ context.Context, item *entity.CatalogItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.catalog[item.ID]; !ok {
		return apperror.ErrCatalogItemNotFound
	}
	if r.skuTaken(item.SKU, item.ID) {
		return apperror.ErrDuplicateSKU
	}
	cp := *item
	r.s.catalog[item.ID] = &cp
	return nil
}

func (r *catalogRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.CatalogItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	it, ok := r.s.catalog[id]
	if !ok {
		return nil, apperror.ErrCatalogItemNotFound
	}
	cp := *it
	return &cp, nil
}

func (r *catalogRepo) List(_ context.Context, filter repository.CatalogFilter) ([]*entity.CatalogItem, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	category := strings.TrimSpace(filter.Category)
	search := strings.TrimSpace(filter.Search)
	matched := make([]*entity.CatalogItem, 0)
	for _, it := range r.s.catalog {
		if category != "" && it.Category != category {
			continue
		}
		if search != "" && !containsFold(it.Name, search) && !containsFold(it.SKU, search) {
			continue
		}
		if filter.ActiveOnly && !it.IsActive {
			continue
		}
		cp := *it
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].SKU < matched[j].SKU })
	return page(matched, filter.Limit, filter.Offset), len(matched), nil
}
