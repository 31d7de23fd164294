package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/edupulse/backend/internal/contracts"
	"github.com/wonny/edupulse/backend/pkg/logger"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	var msg Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHub_SnapshotAndBroadcast(t *testing.T) {
	hub := NewHub(logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	hub.Publish(contracts.RiskEvent{StudentID: "S001", FinalRisk: contracts.RiskRed, OccurredAt: time.Now()})

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()
	conn := dial(t, srv)

	snap := read(t, conn)
	assert.Equal(t, MessageSnapshot, snap.Type)
	require.Len(t, snap.Events, 1)
	assert.Equal(t, "S001", snap.Events[0].StudentID)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(contracts.RiskEvent{StudentID: "S002", FinalRisk: contracts.RiskYellow, OccurredAt: time.Now()})

	// the first event may still be queued for broadcast; skip until S002 arrives
	for {
		msg := read(t, conn)
		require.Equal(t, MessageRiskChanged, msg.Type)
		require.Len(t, msg.Events, 1)
		if msg.Events[0].StudentID == "S002" {
			assert.Equal(t, contracts.RiskYellow, msg.Events[0].FinalRisk)
			break
		}
	}

	assert.Equal(t, 2, hub.Cache().Len())
}

func TestHub_StopDisconnectsClients(t *testing.T) {
	hub := NewHub(logger.Nop())
	go hub.Run(context.Background())

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()
	conn := dial(t, srv)
	read(t, conn)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	hub.Stop()
	assert.Zero(t, hub.ClientCount())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func dialStatus(t *testing.T, srv *httptest.Server) int {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		conn.Close()
		return http.StatusSwitchingProtocols
	}
	require.NotNil(t, resp, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestHub_RejectsClientsAfterStop(t *testing.T) {
	hub := NewHub(logger.Nop())
	go hub.Run(context.Background())

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	hub.Stop()
	assert.Equal(t, http.StatusServiceUnavailable, dialStatus(t, srv))
	assert.Zero(t, hub.ClientCount())
}

func TestHub_RejectsClientsAfterContextDone(t *testing.T) {
	hub := NewHub(logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, dialStatus(t, srv))

	cancel()
	require.Eventually(t, hub.isClosed, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, http.StatusServiceUnavailable, dialStatus(t, srv))
	assert.Zero(t, hub.ClientCount())
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	hub := NewHub(logger.Nop())
	// Run is not started: the queue fills and further events are dropped
	assert.NotPanics(t, func() {
		for i := 0; i < publishQueue+10; i++ {
			hub.Publish(contracts.RiskEvent{StudentID: "S001", OccurredAt: time.Now()})
		}
	})
	assert.Equal(t, 1, hub.Cache().Len())
}
