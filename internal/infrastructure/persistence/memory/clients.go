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

type clientRepo struct{ s *Store }

func (r *clientRepo) Create(_ context.Context, c *entity.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cp := *c
	r.s.clients[c.ID] = &cp
	return nil
}

func (r *clientRepo) Update(_ context.Context, c *entity.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.clients[c.ID]; !ok {
		return apperror.ErrClientNotFound
	}
	cp := *c
	r.s.clients[c.ID] = &cp
	return nil
}

func (r *clientRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Client, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.clients[id]
	if !ok {
		return nil, apperror.ErrClientNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *clientRepo) List(_ context.Context, filter repository.ClientFilter) ([]*entity.Client, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	search := strings.TrimSpace(filter.Search)
	matched := make([]*entity.Client, 0)
	for _, c := range r.s.clients {
		if filter.OwnerID != nil && c.OwnerID != *filter.OwnerID {
			continue
		}
		if search != "" && !containsFold(c.Name, search) && !containsFold(c.Email, search) {
			continue
		}
		cp := *c
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})
	return page(matched, filter.Limit, filter.Offset), len(matched), nil
}
