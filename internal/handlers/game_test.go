package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tap-race-backend/internal/matchmaking"
	"tap-race-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	Type    models.MessageType `json:"type"`
	Payload json.RawMessage    `json:"payload"`
}

func newTestGateway(t *testing.T) (*matchmaking.Matchmaker, *httptest.Server) {
	t.Helper()
	cfg := matchmaking.DefaultConfig()
	cfg.StartDelay = time.Hour
	cfg.MatchDuration = time.Hour
	cfg.CleanupDelay = time.Hour

	mm := matchmaking.NewMatchmaker(cfg, nil)
	handler := NewGameHandler(mm)
	srv := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	t.Cleanup(srv.Close)
	return mm, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType models.MessageType, payload interface{}) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(models.NewWSMessage(msgType, payload)))
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestWebSocketJoinFlow(t *testing.T) {
	_, srv := newTestGateway(t)

	c1 := dial(t, srv)
	send(t, c1, models.MsgJoinQueue, models.JoinQueuePayload{UserID: "u1", Username: "Player One"})

	f := readFrame(t, c1)
	require.Equal(t, models.MsgQueueJoined, f.Type)
	var joined models.QueueJoinedPayload
	require.NoError(t, json.Unmarshal(f.Payload, &joined))
	assert.Equal(t, 1, joined.Position)

	c2 := dial(t, srv)
	send(t, c2, models.MsgJoinQueue, models.JoinQueuePayload{UserID: "u2", Username: "Player Two"})

	f = readFrame(t, c2)
	require.Equal(t, models.MsgQueueJoined, f.Type)

	// Both participants are told about the match.
	for _, conn := range []*websocket.Conn{c1, c2} {
		f = readFrame(t, conn)
		require.Equal(t, models.MsgMatchFound, f.Type)
		var found models.MatchFoundPayload
		require.NoError(t, json.Unmarshal(f.Payload, &found))
		assert.Len(t, found.Players, 2)
		assert.NotEmpty(t, found.MatchID)
	}
}

func TestWebSocketBadPayload(t *testing.T) {
	_, srv := newTestGateway(t)

	conn := dial(t, srv)
	send(t, conn, models.MsgJoinQueue, map[string]interface{}{"username": "no id"})

	f := readFrame(t, conn)
	require.Equal(t, models.MsgError, f.Type)
	var errPayload models.ErrorPayload
	require.NoError(t, json.Unmarshal(f.Payload, &errPayload))
	assert.Equal(t, "BAD_PAYLOAD", errPayload.Code)
	assert.Equal(t, "bad payload", errPayload.Message)
}

func TestWebSocketUnknownMessage(t *testing.T) {
	_, srv := newTestGateway(t)

	conn := dial(t, srv)
	send(t, conn, models.MessageType("bogus"), nil)

	f := readFrame(t, conn)
	require.Equal(t, models.MsgError, f.Type)
	var errPayload models.ErrorPayload
	require.NoError(t, json.Unmarshal(f.Payload, &errPayload))
	assert.Equal(t, "UNKNOWN_MESSAGE", errPayload.Code)
}

func TestWebSocketJoinConflict(t *testing.T) {
	_, srv := newTestGateway(t)

	conn := dial(t, srv)
	send(t, conn, models.MsgJoinQueue, models.JoinQueuePayload{UserID: "u1", Username: "One"})
	require.Equal(t, models.MsgQueueJoined, readFrame(t, conn).Type)

	send(t, conn, models.MsgJoinQueue, models.JoinQueuePayload{UserID: "u1", Username: "One"})
	f := readFrame(t, conn)
	require.Equal(t, models.MsgError, f.Type)
	var errPayload models.ErrorPayload
	require.NoError(t, json.Unmarshal(f.Payload, &errPayload))
	assert.Equal(t, "ALREADY_QUEUED", errPayload.Code)
}

func TestWebSocketDisconnectCleansUp(t *testing.T) {
	mm, srv := newTestGateway(t)

	conn := dial(t, srv)
	send(t, conn, models.MsgJoinQueue, models.JoinQueuePayload{UserID: "u1", Username: "One"})
	require.Equal(t, models.MsgQueueJoined, readFrame(t, conn).Type)
	require.Equal(t, 1, mm.Stats().QueueSize)

	conn.Close()

	require.Eventually(t, func() bool {
		return mm.Stats().QueueSize == 0
	}, 2*time.Second, 10*time.Millisecond)
}
