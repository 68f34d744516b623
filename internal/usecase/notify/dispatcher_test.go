package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Name() string { return "mock" }

func (m *mockSink) Deliver(ctx context.Context, n Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func TestSyncDispatcher_DeliversToEverySink(t *testing.T) {
	first := new(mockSink)
	second := new(mockSink)
	first.On("Deliver", mock.Anything, mock.MatchedBy(func(n Notification) bool { return n.Type == "open" })).Return(nil).Once()
	second.On("Deliver", mock.Anything, mock.Anything).Return(errors.New("down")).Once()

	d := NewSyncDispatcher(first, second)
	d.Notify(Notification{Type: "open", ProposalID: uuid.New(), OwnerID: uuid.New()})

	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestDispatcher_FillsIDAndTimestamp(t *testing.T) {
	sink := new(mockSink)
	var got Notification
	sink.On("Deliver", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		got = args.Get(1).(Notification)
	}).Return(nil)

	NewSyncDispatcher(sink).Notify(Notification{Type: "sent"})

	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.False(t, got.OccurredAt.IsZero())
}

type chanSink struct {
	got chan Notification
}

func (s *chanSink) Name() string { return "chan" }

func (s *chanSink) Deliver(_ context.Context, n Notification) error {
	s.got <- n
	return nil
}

func TestAsyncDispatcher_DeliversOffCaller(t *testing.T) {
	sink := &chanSink{got: make(chan Notification, 1)}
	NewDispatcher(sink).Notify(Notification{Type: "signature_complete"})

	n := <-sink.got
	assert.Equal(t, "signature_complete", n.Type)
}
