package signature

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
	"github.com/ignatzorin/proposal-engine/internal/domain/repository"
	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
)

// IntegrityReport описывает сверку одной подписи с документом её версии.
type IntegrityReport struct {
	SignatureID  uuid.UUID `json:"signature_id"`
	VersionID    uuid.UUID `json:"version_id"`
	SignerEmail  string    `json:"signer_email"`
	StoredHash   string    `json:"stored_hash"`
	ComputedHash string    `json:"computed_hash"`
	Valid        bool      `json:"valid"`
}

type VerifyIntegrityUseCase struct {
	proposalRepo  repository.ProposalRepository
	versionRepo   repository.VersionRepository
	signatureRepo repository.SignatureRepository
}

func NewVerifyIntegrityUseCase(
	proposalRepo repository.ProposalRepository,
	versionRepo repository.VersionRepository,
	signatureRepo repository.SignatureRepository,
) *VerifyIntegrityUseCase {
	return &VerifyIntegrityUseCase{
		proposalRepo:  proposalRepo,
		versionRepo:   versionRepo,
		signatureRepo: signatureRepo,
	}
}

// Execute пересчитывает хэш документа для каждой подписи предложения.
func (uc *VerifyIntegrityUseCase) Execute(ctx context.Context, proposalID uuid.UUID) ([]IntegrityReport, error) {
	if _, err := uc.proposalRepo.FindByID(ctx, proposalID); err != nil {
		return nil, err
	}

	signatures, err := uc.signatureRepo.ListByProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}

	reports := make([]IntegrityReport, 0, len(signatures))
	for _, sig := range signatures {
		v, err := uc.versionRepo.FindByID(ctx, sig.VersionID)
		if apperror.IsNotFound(err) {
			reports = append(reports, IntegrityReport{
				SignatureID: sig.ID,
				VersionID:   sig.VersionID,
				SignerEmail: sig.SignerEmail,
				StoredHash:  sig.Hash,
			})
			continue
		}
		if err != nil {
			return nil, err
		}

		reports = append(reports, IntegrityReport{
			SignatureID:  sig.ID,
			VersionID:    sig.VersionID,
			SignerEmail:  sig.SignerEmail,
			StoredHash:   sig.Hash,
			ComputedHash: entity.ContentHash(v.SnapshotDocument),
			Valid:        sig.Matches(v.SnapshotDocument),
		})
	}
	return reports, nil
}
