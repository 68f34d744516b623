package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
)

type eventRepo struct{ s *Store }

func cloneEvent(e *entity.ProposalEvent) *entity.ProposalEvent {
	c := *e
	c.VersionID = copyUUID(e.VersionID)
	c.Metadata = copyMap(e.Metadata)
	return &c
}

func (r *eventRepo) Append(_ context.Context, e *entity.ProposalEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.proposals[e.ProposalID]; !ok {
		return apperror.ErrProposalNotFound
	}
	if e.VersionID != nil {
		if _, ok := r.s.versions[*e.VersionID]; !ok {
			return apperror.ErrVersionNotFound
		}
	}
	r.s.events = append(r.s.events, cloneEvent(e))
	return nil
}

func (r *eventRepo) ListByProposal(_ context.Context, proposalID uuid.UUID, limit, offset int) ([]*entity.ProposalEvent, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := make([]*entity.ProposalEvent, 0)
	for i := len(r.s.events) - 1; i >= 0; i-- {
		if r.s.events[i].ProposalID == proposalID {
			matched = append(matched, r.s.events[i])
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	paged := page(matched, limit, offset)
	result := make([]*entity.ProposalEvent, len(paged))
	for i, e := range paged {
		result[i] = cloneEvent(e)
	}
	return result, len(matched), nil
}
