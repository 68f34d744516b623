package signature_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
	"github.com/ignatzorin/proposal-engine/internal/domain/repository"
	"github.com/ignatzorin/proposal-engine/internal/domain/template"
	"github.com/ignatzorin/proposal-engine/internal/domain/valueobject"
	"github.com/ignatzorin/proposal-engine/internal/infrastructure/persistence/memory"
	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
	"github.com/ignatzorin/proposal-engine/internal/service"
	"github.com/ignatzorin/proposal-engine/internal/usecase/notify"
	"github.com/ignatzorin/proposal-engine/internal/usecase/signature"
	"github.com/ignatzorin/proposal-engine/internal/usecase/version"
)

const pngDataURL = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

type recordingNotifier struct {
	mu    sync.Mutex
	items []notify.Notification
}

func (r *recordingNotifier) Notify(n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// failingEvents пишет события в хранилище, пока fail == false.
type failingEvents struct {
	repository.EventRepository
	fail bool
}

func (f *failingEvents) Append(ctx context.Context, e *entity.ProposalEvent) error {
	if f.fail {
		return errors.New("events table unavailable")
	}
	return f.EventRepository.Append(ctx, e)
}

type fixture struct {
	store    *memory.Store
	events   *failingEvents
	notifier *recordingNotifier
	uc       *signature.SignProposalUseCase
	blocks   []template.Block
	vars     template.Variables
}

func newFixture() *fixture {
	store := memory.NewStore()
	events := &failingEvents{EventRepository: store.Events()}
	notifier := &recordingNotifier{}
	return &fixture{
		store:    store,
		events:   events,
		notifier: notifier,
		uc:       signature.NewSignProposalUseCase(store.Proposals(), store.Versions(), store.Signatures(), events, notifier),
		blocks: []template.Block{
			{ID: "hero", Type: template.BlockHero, Properties: map[string]any{"title": "{{client.name}}"}},
			{ID: "terms", Type: template.BlockTerms, Properties: map[string]any{"text": "Net 30"}},
		},
		vars: template.Variables{"client": map[string]any{"name": "Acme"}},
	}
}

// publish создаёт предложение в статусе sent с одной версией.
func (f *fixture) publish(t *testing.T, validUntil *time.Time) (*entity.Proposal, *entity.ProposalVersion) {
	t.Helper()
	ctx := context.Background()
	p, err := entity.NewProposal(uuid.New(), "Retainer", nil, validUntil, "USD", false)
	require.NoError(t, err)
	require.NoError(t, f.store.Proposals().Create(ctx, p))
	return p, f.addVersion(t, p, "token-"+p.ID.String())
}

func (f *fixture) addVersion(t *testing.T, p *entity.Proposal, tok string) *entity.ProposalVersion {
	t.Helper()
	ctx := context.Background()
	doc := template.NewRenderer(nil).Render(f.blocks, f.vars).Document
	v := &entity.ProposalVersion{
		ID:                uuid.New(),
		ProposalID:        p.ID,
		SnapshotDocument:  doc,
		SnapshotBlocks:    f.blocks,
		SnapshotVariables: f.vars,
		PublicToken:       tok,
		Status:            valueobject.VersionStatusPublished,
	}
	require.NoError(t, f.store.Versions().Create(ctx, v))
	_, err := f.store.Proposals().CompareAndSetStatus(ctx, p.ID,
		[]valueobject.ProposalStatus{valueobject.ProposalStatusDraft}, valueobject.ProposalStatusSent)
	require.NoError(t, err)
	return v
}

func validInput(p *entity.Proposal, v *entity.ProposalVersion) signature.SignInput {
	return signature.SignInput{
		ProposalID:    p.ID,
		VersionID:     v.ID,
		SignerName:    "Jane Doe",
		SignerEmail:   "Jane@Example.com",
		Method:        "typed",
		SignatureData: "Jane Doe",
		IP:            "203.0.113.7",
		UserAgent:     "test-agent",
	}
}

func TestSign_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p, v := f.publish(t, nil)

	res, err := f.uc.Execute(ctx, validInput(p, v))
	require.NoError(t, err)
	require.True(t, res.Created)

	assert.Equal(t, entity.ContentHash(v.SnapshotDocument), res.Signature.Hash)
	assert.Len(t, res.Signature.Hash, 64)
	assert.Equal(t, "jane@example.com", res.Signature.SignerEmail)
	assert.Equal(t, "203.0.113.7", res.Signature.IP)
	for _, step := range res.Steps {
		assert.True(t, step.OK, step.Step)
	}

	gotProposal, _ := f.store.Proposals().FindByID(ctx, p.ID)
	assert.Equal(t, valueobject.ProposalStatusSigned, gotProposal.Status)
	gotVersion, _ := f.store.Versions().FindByID(ctx, v.ID)
	assert.Equal(t, valueobject.VersionStatusSigned, gotVersion.Status)

	events, total, err := f.store.Events().ListByProposal(ctx, p.ID, 10, 0)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, valueobject.EventTypeSignatureComplete, events[0].Type)
	assert.Equal(t, "Jane Doe", events[0].Metadata["signer_name"])
	assert.NotContains(t, events[0].Metadata, "signature_data")

	require.Len(t, f.notifier.items, 1)
	assert.Equal(t, p.OwnerID, f.notifier.items[0].OwnerID)
	assert.Equal(t, "signature_complete", f.notifier.items[0].Type)
}

func TestSign_DropsCachedPublicVersion(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p, v := f.publish(t, nil)

	cache := service.NewCacheService(ctx)
	view := version.NewPublicViewUseCase(f.store.Proposals(), f.store.Versions(), cache)

	before, err := view.Execute(ctx, v.PublicToken)
	require.NoError(t, err)
	assert.False(t, before.Version.IsSigned())
	_, cached := cache.Get(service.PublicVersionCacheKey(v.PublicToken))
	require.True(t, cached)

	_, err = f.uc.WithCache(cache).Execute(ctx, validInput(p, v))
	require.NoError(t, err)
	_, cached = cache.Get(service.PublicVersionCacheKey(v.PublicToken))
	assert.False(t, cached)

	after, err := view.Execute(ctx, v.PublicToken)
	require.NoError(t, err)
	assert.True(t, after.Version.IsSigned())
	assert.Equal(t, valueobject.ProposalStatusSigned, after.Proposal.Status)
}

func TestSign_RepeatReturnsExistingWithoutSideEffects(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p, v := f.publish(t, nil)

	first, err := f.uc.Execute(ctx, validInput(p, v))
	require.NoError(t, err)

	second, err := f.uc.Execute(ctx, validInput(p, v))
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Signature.ID, second.Signature.ID)
	assert.Empty(t, second.Steps)

	_, total, _ := f.store.Events().ListByProposal(ctx, p.ID, 10, 0)
	assert.Equal(t, 1, total)
	assert.Len(t, f.notifier.items, 1)
}

func TestSign_OtherVersionAfterSigning(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p, v1 := f.publish(t, nil)
	v2 := f.addVersion(t, p, "second-token")

	_, err := f.uc.Execute(ctx, validInput(p, v2))
	require.NoError(t, err)

	_, err = f.uc.Execute(ctx, validInput(p, v1))
	assert.ErrorIs(t, err, apperror.ErrAlreadySignedOther)
}

func TestSign_ExpiredProposal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	past := time.Now().Add(-time.Second)
	p, v := f.publish(t, &past)

	_, err := f.uc.Execute(ctx, validInput(p, v))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.ErrCodeProposalExpired))
	assert.Contains(t, err.Error(), "expired")

	_, err = f.store.Signatures().FindByVersionID(ctx, v.ID)
	assert.ErrorIs(t, err, apperror.ErrSignatureNotFound)
}

func TestSign_ValidUntilIsCheckedAgainstClock(t *testing.T) {
	f := newFixture()
	deadline := time.Now().Add(time.Hour)
	p, v := f.publish(t, &deadline)

	f.uc.WithClock(func() time.Time { return deadline.Add(time.Nanosecond) })
	_, err := f.uc.Execute(context.Background(), validInput(p, v))
	assert.ErrorIs(t, err, apperror.ErrProposalExpired)
}

func TestSign_VersionOfAnotherProposal(t *testing.T) {
	f := newFixture()
	p, _ := f.publish(t, nil)
	_, foreign := f.publish(t, nil)

	_, err := f.uc.Execute(context.Background(), validInput(p, foreign))
	assert.ErrorIs(t, err, apperror.ErrVersionNotFound)

	in := validInput(p, foreign)
	in.VersionID = uuid.New()
	_, err = f.uc.Execute(context.Background(), in)
	assert.True(t, apperror.IsNotFound(err))
}

func TestSign_RejectedProposal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p, v := f.publish(t, nil)
	_, err := f.store.Proposals().CompareAndSetStatus(ctx, p.ID,
		[]valueobject.ProposalStatus{valueobject.ProposalStatusSent}, valueobject.ProposalStatusRejected)
	require.NoError(t, err)

	_, err = f.uc.Execute(ctx, validInput(p, v))
	assert.ErrorIs(t, err, apperror.ErrProposalRejected)
}

func TestSign_ValidationCarriesFields(t *testing.T) {
	f := newFixture()
	p, v := f.publish(t, nil)

	in := validInput(p, v)
	in.SignerEmail = "not-an-email"
	in.Method = "fax"
	in.SignatureData = ""
	_, err := f.uc.Execute(context.Background(), in)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodeValidation, appErr.Code)
	assert.Contains(t, appErr.Fields, "signer_email")
	assert.Contains(t, appErr.Fields, "method")
	assert.Contains(t, appErr.Fields, "signature_data")
	assert.NotContains(t, appErr.Fields, "signer_name")
}

func TestSign_DrawnSignatureMustBeImage(t *testing.T) {
	f := newFixture()
	p, v := f.publish(t, nil)

	in := validInput(p, v)
	in.Method = "drawn"
	in.SignatureData = "Jane Doe"
	_, err := f.uc.Execute(context.Background(), in)
	assert.True(t, apperror.IsValidation(err))

	in.SignatureData = pngDataURL
	res, err := f.uc.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, entity.SignatureMethodDrawn, res.Signature.Method)
}

func TestSign_EventFailureDoesNotRollBackSignature(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p, v := f.publish(t, nil)
	f.events.fail = true

	res, err := f.uc.Execute(ctx, validInput(p, v))
	require.NoError(t, err)
	require.True(t, res.Created)

	outcomes := map[string]signature.StepOutcome{}
	for _, s := range res.Steps {
		outcomes[s.Step] = s
	}
	assert.True(t, outcomes[signature.StepProposalStatus].OK)
	assert.True(t, outcomes[signature.StepVersionStatus].OK)
	assert.False(t, outcomes[signature.StepEvent].OK)
	assert.NotEmpty(t, outcomes[signature.StepEvent].Error)

	stored, err := f.store.Signatures().FindByVersionID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Signature.ID, stored.ID)
}

func TestSignatureHashIntegrity(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p, v := f.publish(t, nil)

	res, err := f.uc.Execute(ctx, validInput(p, v))
	require.NoError(t, err)

	stored, err := f.store.Versions().FindByID(ctx, v.ID)
	require.NoError(t, err)
	rerendered := template.NewRenderer(nil).Render(stored.SnapshotBlocks, stored.SnapshotVariables).Document
	assert.True(t, res.Signature.Matches(rerendered))

	tampered := []byte(rerendered)
	tampered[len(tampered)/2] ^= 0x01
	assert.False(t, res.Signature.Matches(string(tampered)))
}
