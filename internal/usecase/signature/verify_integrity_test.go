package signature_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
	"github.com/ignatzorin/proposal-engine/internal/usecase/signature"
)

func TestVerifyIntegrity(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p, v := f.publish(t, nil)

	_, err := f.uc.Execute(ctx, validInput(p, v))
	require.NoError(t, err)

	verify := signature.NewVerifyIntegrityUseCase(f.store.Proposals(), f.store.Versions(), f.store.Signatures())
	reports, err := verify.Execute(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.True(t, reports[0].Valid)
	assert.Equal(t, v.ID, reports[0].VersionID)
	assert.Equal(t, entity.ContentHash(v.SnapshotDocument), reports[0].ComputedHash)
}

func TestVerifyIntegrity_TamperedHash(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p, v := f.publish(t, nil)

	forged := &entity.ProposalSignature{
		ID:            uuid.New(),
		ProposalID:    p.ID,
		VersionID:     v.ID,
		SignerName:    "Jane Doe",
		SignerEmail:   "jane@example.com",
		Method:        entity.SignatureMethodTyped,
		SignatureData: "Jane Doe",
		SignedAt:      time.Now().UTC(),
		Hash:          entity.ContentHash("другой документ"),
	}
	require.NoError(t, f.store.Signatures().Create(ctx, forged))

	verify := signature.NewVerifyIntegrityUseCase(f.store.Proposals(), f.store.Versions(), f.store.Signatures())
	reports, err := verify.Execute(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.False(t, reports[0].Valid)
	assert.NotEqual(t, reports[0].StoredHash, reports[0].ComputedHash)
}

func TestVerifyIntegrity_UnknownProposal(t *testing.T) {
	f := newFixture()
	verify := signature.NewVerifyIntegrityUseCase(f.store.Proposals(), f.store.Versions(), f.store.Signatures())

	_, err := verify.Execute(context.Background(), uuid.New())
	assert.True(t, apperror.IsNotFound(err))
}
