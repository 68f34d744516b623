package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
	"github.com/ignatzorin/proposal-engine/internal/domain/repository"
	"github.com/ignatzorin/proposal-engine/internal/domain/valueobject"
	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
)

type proposalRepo struct{ s *Store }

func cloneProposal(p *entity.Proposal) *entity.Proposal {
	c := *p
	c.ClientID = copyUUID(p.ClientID)
	c.ValidUntil = copyTime(p.ValidUntil)
	return &c
}

func (r *proposalRepo) Create(_ context.Context, p *entity.Proposal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if p.ClientID != nil {
		if _, ok := r.s.clients[*p.ClientID]; !ok {
			return apperror.ErrClientNotFound
		}
	}
	if _, exists := r.s.proposals[p.ID]; exists {
		return apperror.New(apperror.ErrCodeConflict, "предложение с таким id уже существует")
	}
	r.s.proposals[p.ID] = cloneProposal(p)
	return nil
}

func (r *proposalRepo) Update(_ context.Context, p *entity.Proposal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.proposals[p.ID]
	if !ok {
		return apperror.ErrProposalNotFound
	}
	if p.ClientID != nil {
		if _, ok := r.s.clients[*p.ClientID]; !ok {
			return apperror.ErrClientNotFound
		}
	}
	stored.Title = p.Title
	stored.ClientID = copyUUID(p.ClientID)
	stored.Currency = p.Currency
	stored.ValidUntil = copyTime(p.ValidUntil)
	stored.RequiresApproval = p.RequiresApproval
	stored.UpdatedAt = p.UpdatedAt
	return nil
}

func (r *proposalRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.proposals[id]; !ok {
		return apperror.ErrProposalNotFound
	}
	for _, v := range r.s.versions {
		if v.ProposalID == id {
			return apperror.ErrProposalHasVersions
		}
	}
	delete(r.s.proposals, id)

	kept := r.s.events[:0]
	for _, e := range r.s.events {
		if e.ProposalID != id {
			kept = append(kept, e)
		}
	}
	r.s.events = kept
	return nil
}

func (r *proposalRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Proposal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.proposals[id]
	if !ok {
		return nil, apperror.ErrProposalNotFound
	}
	return cloneProposal(p), nil
}

func (r *proposalRepo) List(_ context.Context, filter repository.ProposalFilter) ([]*entity.Proposal, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	search := strings.TrimSpace(filter.Search)
	matched := make([]*entity.Proposal, 0)
	for _, p := range r.s.proposals {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if filter.OwnerID != nil && p.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.ClientID != nil && (p.ClientID == nil || *p.ClientID != *filter.ClientID) {
			continue
		}
		if search != "" && !containsFold(p.Title, search) {
			continue
		}
		matched = append(matched, p)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	paged := page(matched, filter.Limit, filter.Offset)
	result := make([]*entity.Proposal, len(paged))
	for i, p := range paged {
		result[i] = cloneProposal(p)
	}
	return result, len(matched), nil
}

func (r *proposalRepo) CompareAndSetStatus(_ context.Context, id uuid.UUID, from []valueobject.ProposalStatus, to valueobject.ProposalStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.proposals[id]
	if !ok {
		return false, apperror.ErrProposalNotFound
	}
	for _, s := range from {
		if p.Status == s {
			p.Status = to
			p.UpdatedAt = time.Now().UTC()
			return true, nil
		}
	}
	return false, nil
}
