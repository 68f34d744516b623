package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
	"github.com/ignatzorin/proposal-engine/internal/domain/template"
	"github.com/ignatzorin/proposal-engine/internal/domain/valueobject"
	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
)

type versionRepo struct{ s *Store }

func cloneVersion(v *entity.ProposalVersion) *entity.ProposalVersion {
	c := *v

	if v.SnapshotBlocks != nil {
		c.SnapshotBlocks = make([]template.Block, len(v.SnapshotBlocks))
		for i, b := range v.SnapshotBlocks {
			c.SnapshotBlocks[i] = template.Block{ID: b.ID, Type: b.Type, Properties: copyMap(b.Properties)}
		}
	}
	if v.SnapshotVariables != nil {
		c.SnapshotVariables = template.Variables(copyMap(v.SnapshotVariables))
	}
	if v.RenderWarnings != nil {
		c.RenderWarnings = append([]template.Warning(nil), v.RenderWarnings...)
	}
	if v.Items != nil {
		c.Items = make([]entity.ProposalVersionItem, len(v.Items))
		for i, it := range v.Items {
			it.CatalogItemID = copyUUID(it.CatalogItemID)
			c.Items[i] = it
		}
	}
	return &c
}

func (r *versionRepo) Create(_ context.Context, v *entity.ProposalVersion) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.proposals[v.ProposalID]; !ok {
		return apperror.ErrProposalNotFound
	}
	if _, taken := r.s.tokens[v.PublicToken]; taken {
		return apperror.ErrDuplicateVersion
	}
	if _, exists := r.s.versions[v.ID]; exists {
		return apperror.ErrDuplicateVersion
	}

	number := 0
	for _, existing := range r.s.versions {
		if existing.ProposalID == v.ProposalID && existing.VersionNumber > number {
			number = existing.VersionNumber
		}
	}
	v.VersionNumber = number + 1
	for i := range v.Items {
		v.Items[i].VersionID = v.ID
	}

	r.s.versions[v.ID] = cloneVersion(v)
	r.s.tokens[v.PublicToken] = v.ID
	return nil
}

func (r *versionRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.ProposalVersion, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	v, ok := r.s.versions[id]
	if !ok {
		return nil, apperror.ErrVersionNotFound
	}
	return cloneVersion(v), nil
}

func (r *versionRepo) FindByToken(_ context.Context, token string) (*entity.ProposalVersion, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.tokens[token]
	if !ok {
		return nil, apperror.ErrVersionNotFound
	}
	return cloneVersion(r.s.versions[id]), nil
}

func (r *versionRepo) FindLatest(_ context.Context, proposalID uuid.UUID) (*entity.ProposalVersion, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var latest *entity.ProposalVersion
	for _, v := range r.s.versions {
		if v.ProposalID == proposalID && (latest == nil || v.VersionNumber > latest.VersionNumber) {
			latest = v
		}
	}
	if latest == nil {
		return nil, apperror.ErrVersionNotFound
	}
	return cloneVersion(latest), nil
}

func (r *versionRepo) ListByProposal(_ context.Context, proposalID uuid.UUID) ([]*entity.ProposalVersion, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]*entity.ProposalVersion, 0)
	for _, v := range r.s.versions {
		if v.ProposalID == proposalID {
			result = append(result, cloneVersion(v))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].VersionNumber > result[j].VersionNumber
	})
	return result, nil
}

func (r *versionRepo) CountByProposal(_ context.Context, proposalID uuid.UUID) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, v := range r.s.versions {
		if v.ProposalID == proposalID {
			n++
		}
	}
	return n, nil
}

func (r *versionRepo) MarkSigned(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	v, ok := r.s.versions[id]
	if !ok {
		return apperror.ErrVersionNotFound
	}
	v.Status = valueobject.VersionStatusSigned
	v.UpdatedAt = time.Now().UTC()
	return nil
}
