package ws_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/proposal-engine/internal/usecase/notify"
	"github.com/ignatzorin/proposal-engine/internal/ws"
)

func startHub(t *testing.T, userID uuid.UUID) (*ws.Hub, *websocket.Conn, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := ws.NewHub()
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := ws.NewClient(conn, hub, userID)
		hub.Register(client)
		client.Run(r.Context())
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return hub.ConnectedCount(userID) == 1 }, 2*time.Second, 10*time.Millisecond)
	return hub, conn, cancel
}

func TestHubSink_DeliversToOwner(t *testing.T) {
	owner := uuid.New()
	hub, conn, cancel := startHub(t, owner)
	defer cancel()

	n := notify.Notification{ID: uuid.New(), Type: "open", ProposalID: uuid.New(), OwnerID: owner, OccurredAt: time.Now().UTC()}
	sink := ws.NewHubSink(hub)
	assert.Equal(t, "websocket", sink.Name())
	require.NoError(t, sink.Deliver(context.Background(), n))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var got struct {
		Type string              `json:"type"`
		Data notify.Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "open", got.Type)
	assert.Equal(t, n.ProposalID, got.Data.ProposalID)
}

func TestHub_OtherUsersReceiveNothing(t *testing.T) {
	owner := uuid.New()
	hub, conn, cancel := startHub(t, owner)
	defer cancel()

	require.NoError(t, hub.BroadcastToUser(context.Background(), uuid.New(), "open", nil))

	_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestHub_StopClosesClients(t *testing.T) {
	owner := uuid.New()
	hub, conn, cancel := startHub(t, owner)

	cancel()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	require.Eventually(t, func() bool { return hub.ConnectedCount(owner) == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Error(t, hub.BroadcastToUser(context.Background(), owner, "open", nil))
}
