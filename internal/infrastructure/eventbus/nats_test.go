package eventbus_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/proposal-engine/internal/infrastructure/eventbus"
	"github.com/ignatzorin/proposal-engine/internal/usecase/notify"
)

type mockConn struct {
	mock.Mock
}

func (m *mockConn) Publish(subject string, data []byte) error {
	args := m.Called(subject, data)
	return args.Error(0)
}

func TestPublisher_SubjectPerType(t *testing.T) {
	conn := new(mockConn)
	n := notify.Notification{ID: uuid.New(), Type: "signature_complete", ProposalID: uuid.New()}

	conn.On("Publish", "proposals.events.signature_complete", mock.MatchedBy(func(data []byte) bool {
		var got notify.Notification
		return json.Unmarshal(data, &got) == nil && got.ProposalID == n.ProposalID
	})).Return(nil).Once()

	p := eventbus.NewPublisher(conn)
	assert.Equal(t, "nats", p.Name())
	require.NoError(t, p.Deliver(context.Background(), n))
	conn.AssertExpectations(t)
}

func TestPublisher_Errors(t *testing.T) {
	conn := new(mockConn)
	conn.On("Publish", mock.Anything, mock.Anything).Return(errors.New("nats: connection closed"))
	p := eventbus.NewPublisher(conn)

	assert.Error(t, p.Deliver(context.Background(), notify.Notification{Type: "open"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Deliver(ctx, notify.Notification{Type: "open"}), context.Canceled)
	conn.AssertNumberOfCalls(t, "Publish", 1)
}
