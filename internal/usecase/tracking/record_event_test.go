package tracking_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/proposal-engine/internal/domain/entity"
	"github.com/ignatzorin/proposal-engine/internal/domain/repository"
	"github.com/ignatzorin/proposal-engine/internal/domain/valueobject"
	"github.com/ignatzorin/proposal-engine/internal/infrastructure/persistence/memory"
	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
	"github.com/ignatzorin/proposal-engine/internal/usecase/notify"
	"github.com/ignatzorin/proposal-engine/internal/usecase/tracking"
)

type countingNotifier struct{ n int }

func (c *countingNotifier) Notify(notify.Notification) { c.n++ }

// brokenStatus отказывает в CAS, остальное делегирует хранилищу.
type brokenStatus struct {
	repository.ProposalRepository
}

func (brokenStatus) CompareAndSetStatus(context.Context, uuid.UUID, []valueobject.ProposalStatus, valueobject.ProposalStatus) (bool, error) {
	return false, errors.New("connection reset")
}

func setup(t *testing.T, status valueobject.ProposalStatus) (*memory.Store, *entity.Proposal, *entity.ProposalVersion) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	p, err := entity.NewProposal(uuid.New(), "Audit", nil, nil, "", false)
	require.NoError(t, err)
	p.Status = status
	require.NoError(t, store.Proposals().Create(ctx, p))

	v := &entity.ProposalVersion{ID: uuid.New(), ProposalID: p.ID, PublicToken: uuid.NewString(), Status: valueobject.VersionStatusPublished}
	require.NoError(t, store.Versions().Create(ctx, v))
	return store, p, v
}

func statusOf(t *testing.T, store *memory.Store, id uuid.UUID) valueobject.ProposalStatus {
	t.Helper()
	p, err := store.Proposals().FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Status
}

func TestRecord_Transitions(t *testing.T) {
	tests := []struct {
		name      string
		from      valueobject.ProposalStatus
		eventType valueobject.EventType
		want      valueobject.ProposalStatus
		changed   bool
	}{
		{"open on sent", valueobject.ProposalStatusSent, valueobject.EventTypeOpen, valueobject.ProposalStatusViewed, true},
		{"open on viewed", valueobject.ProposalStatusViewed, valueobject.EventTypeOpen, valueobject.ProposalStatusViewed, false},
		{"open on draft", valueobject.ProposalStatusDraft, valueobject.EventTypeOpen, valueobject.ProposalStatusDraft, false},
		{"sent on draft", valueobject.ProposalStatusDraft, valueobject.EventTypeSent, valueobject.ProposalStatusSent, true},
		{"rejected from sent", valueobject.ProposalStatusSent, valueobject.EventTypeSignatureRejected, valueobject.ProposalStatusRejected, true},
		{"rejected from viewed", valueobject.ProposalStatusViewed, valueobject.EventTypeSignatureRejected, valueobject.ProposalStatusRejected, true},
		{"open on signed", valueobject.ProposalStatusSigned, valueobject.EventTypeOpen, valueobject.ProposalStatusSigned, false},
		{"sent on signed", valueobject.ProposalStatusSigned, valueobject.EventTypeSent, valueobject.ProposalStatusSigned, false},
		{"open on rejected", valueobject.ProposalStatusRejected, valueobject.EventTypeOpen, valueobject.ProposalStatusRejected, false},
		{"scroll has no transition", valueobject.ProposalStatusSent, valueobject.EventTypeScroll, valueobject.ProposalStatusSent, false},
		{"signature_complete has no transition", valueobject.ProposalStatusViewed, valueobject.EventTypeSignatureComplete, valueobject.ProposalStatusViewed, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, p, v := setup(t, tt.from)
			uc := tracking.NewRecordEventUseCase(store.Proposals(), store.Versions(), store.Events(), nil)

			res, err := uc.Execute(context.Background(), tracking.RecordInput{
				ProposalID: p.ID, VersionID: &v.ID, Type: string(tt.eventType),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.eventType, res.Event.Type)
			assert.Equal(t, tt.changed, res.Transition != nil)
			assert.Equal(t, tt.want, statusOf(t, store, p.ID))

			_, total, _ := store.Events().ListByProposal(context.Background(), p.ID, 10, 0)
			assert.Equal(t, 1, total)
		})
	}
}

func TestRecord_UnknownTypeRejected(t *testing.T) {
	store, p, _ := setup(t, valueobject.ProposalStatusSent)
	uc := tracking.NewRecordEventUseCase(store.Proposals(), store.Versions(), store.Events(), nil)

	_, err := uc.Execute(context.Background(), tracking.RecordInput{ProposalID: p.ID, Type: "clicked_ad"})
	assert.True(t, apperror.IsValidation(err))

	_, total, _ := store.Events().ListByProposal(context.Background(), p.ID, 10, 0)
	assert.Zero(t, total)
}

func TestRecord_ReferencesMustExist(t *testing.T) {
	store, p, _ := setup(t, valueobject.ProposalStatusSent)
	_, _, otherVersion := setup(t, valueobject.ProposalStatusSent)
	uc := tracking.NewRecordEventUseCase(store.Proposals(), store.Versions(), store.Events(), nil)
	ctx := context.Background()

	_, err := uc.Execute(ctx, tracking.RecordInput{ProposalID: uuid.New(), Type: "open"})
	assert.ErrorIs(t, err, apperror.ErrProposalNotFound)

	missing := uuid.New()
	_, err = uc.Execute(ctx, tracking.RecordInput{ProposalID: p.ID, VersionID: &missing, Type: "open"})
	assert.ErrorIs(t, err, apperror.ErrVersionNotFound)

	_, err = uc.Execute(ctx, tracking.RecordInput{ProposalID: p.ID, VersionID: &otherVersion.ID, Type: "open"})
	assert.ErrorIs(t, err, apperror.ErrVersionNotFound)
}

func TestRecord_VersionFromAnotherProposalInSameStore(t *testing.T) {
	store, p, _ := setup(t, valueobject.ProposalStatusSent)
	ctx := context.Background()
	q, err := entity.NewProposal(uuid.New(), "Other", nil, nil, "", false)
	require.NoError(t, err)
	require.NoError(t, store.Proposals().Create(ctx, q))
	qv := &entity.ProposalVersion{ID: uuid.New(), ProposalID: q.ID, PublicToken: "q", Status: valueobject.VersionStatusPublished}
	require.NoError(t, store.Versions().Create(ctx, qv))

	uc := tracking.NewRecordEventUseCase(store.Proposals(), store.Versions(), store.Events(), nil)
	_, err = uc.Execute(ctx, tracking.RecordInput{ProposalID: p.ID, VersionID: &qv.ID, Type: "open"})
	assert.ErrorIs(t, err, apperror.ErrVersionNotFound)
}

func TestRecord_TransitionFailureKeepsEvent(t *testing.T) {
	store, p, _ := setup(t, valueobject.ProposalStatusSent)
	notifier := &countingNotifier{}
	uc := tracking.NewRecordEventUseCase(brokenStatus{store.Proposals()}, store.Versions(), store.Events(), notifier)

	res, err := uc.Execute(context.Background(), tracking.RecordInput{ProposalID: p.ID, Type: "open", Metadata: map[string]any{"k": "v"}})
	require.NoError(t, err)
	assert.Nil(t, res.Transition)
	assert.Equal(t, 1, notifier.n)

	events, total, _ := store.Events().ListByProposal(context.Background(), p.ID, 10, 0)
	require.Equal(t, 1, total)
	assert.Equal(t, "v", events[0].Metadata["k"])
	assert.Equal(t, valueobject.ProposalStatusSent, statusOf(t, store, p.ID))
}

func TestRecord_OversizedMetadata(t *testing.T) {
	store, p, _ := setup(t, valueobject.ProposalStatusSent)
	uc := tracking.NewRecordEventUseCase(store.Proposals(), store.Versions(), store.Events(), nil)

	big := make([]byte, 20*1024)
	for i := range big {
		big[i] = 'a'
	}
	_, err := uc.Execute(context.Background(), tracking.RecordInput{ProposalID: p.ID, Type: "scroll", Metadata: map[string]any{"blob": string(big)}})
	assert.True(t, apperror.IsValidation(err))
}

func TestTrackOpen_SwallowsErrors(t *testing.T) {
	store, p, v := setup(t, valueobject.ProposalStatusSent)
	uc := tracking.NewRecordEventUseCase(store.Proposals(), store.Versions(), store.Events(), nil)
	ctx := context.Background()

	uc.TrackOpen(ctx, "garbage", "", "1.1.1.1", "ua")
	uc.TrackOpen(ctx, uuid.NewString(), "", "1.1.1.1", "ua")
	uc.TrackOpen(ctx, p.ID.String(), "not-a-uuid", "1.1.1.1", "ua")

	events, total, _ := store.Events().ListByProposal(ctx, p.ID, 10, 0)
	require.Equal(t, 1, total)
	assert.Nil(t, events[0].VersionID)
	assert.Equal(t, valueobject.ProposalStatusViewed, statusOf(t, store, p.ID))

	uc.TrackOpen(ctx, p.ID.String(), v.ID.String(), "1.1.1.1", "ua")
	_, total, _ = store.Events().ListByProposal(ctx, p.ID, 10, 0)
	assert.Equal(t, 2, total)
}

func TestStatusMonotonicity_RandomEventSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	types := valueobject.EventTypes()
	rank := map[valueobject.ProposalStatus]int{
		valueobject.ProposalStatusDraft:    0,
		valueobject.ProposalStatusSent:     1,
		valueobject.ProposalStatusViewed:   2,
		valueobject.ProposalStatusSigned:   3,
		valueobject.ProposalStatusRejected: 3,
	}

	for run := 0; run < 50; run++ {
		store, p, _ := setup(t, valueobject.ProposalStatusDraft)
		uc := tracking.NewRecordEventUseCase(store.Proposals(), store.Versions(), store.Events(), nil)
		prev := valueobject.ProposalStatusDraft

		for i := 0; i < 30; i++ {
			eventType := types[rng.Intn(len(types))]
			_, err := uc.Execute(context.Background(), tracking.RecordInput{ProposalID: p.ID, Type: string(eventType)})
			require.NoError(t, err)

			cur := statusOf(t, store, p.ID)
			assert.GreaterOrEqual(t, rank[cur], rank[prev], "status regressed from %s to %s on %s", prev, cur, eventType)
			if prev.IsTerminal() {
				assert.Equal(t, prev, cur)
			}
			prev = cur
		}
	}
}

func TestRepeatedOpenKeepsViewed(t *testing.T) {
	store, p, v := setup(t, valueobject.ProposalStatusSent)
	notifier := &countingNotifier{}
	uc := tracking.NewRecordEventUseCase(store.Proposals(), store.Versions(), store.Events(), notifier)
	ctx := context.Background()

	first, err := uc.Execute(ctx, tracking.RecordInput{ProposalID: p.ID, VersionID: &v.ID, Type: "open"})
	require.NoError(t, err)
	require.NotNil(t, first.Transition)
	assert.Equal(t, valueobject.ProposalStatusViewed, *first.Transition)

	second, err := uc.Execute(ctx, tracking.RecordInput{ProposalID: p.ID, VersionID: &v.ID, Type: "open"})
	require.NoError(t, err)
	assert.Nil(t, second.Transition)
	assert.Equal(t, valueobject.ProposalStatusViewed, statusOf(t, store, p.ID))

	_, total, _ := store.Events().ListByProposal(ctx, p.ID, 10, 0)
	assert.Equal(t, 2, total)
	assert.Equal(t, 2, notifier.n)
}
