package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
)

type signatureRepo struct{ s *Store }

func (r *signatureRepo) Create(_ context.Context, sig *entity.ProposalSignature) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.versions[sig.VersionID]; !ok {
		return apperror.ErrVersionNotFound
	}
	_, versionSigned := r.s.signatures[sig.VersionID]
	_, proposalSigned := r.s.signedProposals[sig.ProposalID]
	if versionSigned || proposalSigned {
		return apperror.New(apperror.ErrCodeConflict, "предложение уже подписано")
	}
	c := *sig
	r.s.signatures[sig.VersionID] = &c
	r.s.signedProposals[sig.ProposalID] = sig.VersionID
	return nil
}

func (r *signatureRepo) FindByVersionID(_ context.Context, versionID uuid.UUID) (*entity.ProposalSignature, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sig, ok := r.s.signatures[versionID]
	if !ok {
		return nil, apperror.ErrSignatureNotFound
	}
	c := *sig
	return &c, nil
}

func (r *signatureRepo) ListByProposal(_ context.Context, proposalID uuid.UUID) ([]*entity.ProposalSignature, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]*entity.ProposalSignature, 0, 1)
	if versionID, ok := r.s.signedProposals[proposalID]; ok {
		c := *r.s.signatures[versionID]
		result = append(result, &c)
	}
	return result, nil
}
