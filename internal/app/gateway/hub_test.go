package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"chessrooms/internal/app/session"
)

type dispatched struct {
	connID string
	event  string
	data   string
}

// recordingHandler echoes every event back to its sender and records disconnects.
type recordingHandler struct {
	hub *Hub

	events       chan dispatched
	disconnected chan string
}

func newRecordingHandler(hub *Hub) *recordingHandler {
	return &recordingHandler{
		hub:          hub,
		events:       make(chan dispatched, 16),
		disconnected: make(chan string, 16),
	}
}

func (r *recordingHandler) Dispatch(connID, event string, data json.RawMessage) {
	if event == "joinRoom" {
		r.hub.Join(connID, "AB12")
	}
	r.events <- dispatched{connID: connID, event: event, data: string(data)}
}

func (r *recordingHandler) Disconnect(connID string) {
	r.disconnected <- connID
}

func newTestServer(t *testing.T, opts Options) (*Hub, *recordingHandler, string) {
	t.Helper()

	hub := NewHub(opts)
	handler := newRecordingHandler(hub)
	hub.SetHandler(handler)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(conn)
	}))
	t.Cleanup(srv.Close)

	return hub, handler, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev map[string]any
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func nextDispatch(t *testing.T, h *recordingHandler) dispatched {
	t.Helper()
	select {
	case d := <-h.events:
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("no event dispatched")
		return dispatched{}
	}
}

func TestHub_DispatchAndDeliver(t *testing.T) {
	hub, handler, url := newTestServer(t, Options{EventRate: rate.Inf, EventBurst: 10})

	conn := dial(t, url)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"joinRoom","data":{"roomCode":"AB12"}}`)))

	d := nextDispatch(t, handler)
	assert.Equal(t, "joinRoom", d.event)
	assert.JSONEq(t, `{"roomCode":"AB12"}`, d.data)
	assert.Equal(t, 1, hub.GroupSize("AB12"))

	hub.Send(d.connID, session.Event{Name: session.EventPlayerColor, Data: "w"})
	assert.Equal(t, map[string]any{"event": "playerColor", "data": "w"}, readEvent(t, conn))

	hub.Broadcast("AB12", session.Event{Name: session.EventSpectatorCount, Data: 0})
	assert.Equal(t, map[string]any{"event": "spectatorCount", "data": float64(0)}, readEvent(t, conn))
}

func TestHub_BroadcastOnlyReachesGroup(t *testing.T) {
	hub, handler, url := newTestServer(t, Options{EventRate: rate.Inf, EventBurst: 10})

	member := dial(t, url)
	outsider := dial(t, url)

	require.NoError(t, member.WriteJSON(map[string]any{"event": "joinRoom", "data": map[string]string{}}))
	joined := nextDispatch(t, handler)

	require.NoError(t, outsider.WriteJSON(map[string]any{"event": "ping", "data": nil}))
	other := nextDispatch(t, handler)
	require.NotEqual(t, joined.connID, other.connID)

	hub.Broadcast("AB12", session.Event{Name: session.EventGameState, Data: "fen"})
	hub.Send(other.connID, session.Event{Name: session.EventError, Data: "direct"})

	assert.Equal(t, "gameState", readEvent(t, member)["event"])
	assert.Equal(t, "direct", readEvent(t, outsider)["data"], "outsider sees only its direct event")

	hub.Leave(joined.connID, "AB12")
	assert.Equal(t, 0, hub.GroupSize("AB12"))
}

func TestHub_InvalidFramesAreIgnored(t *testing.T) {
	_, handler, url := newTestServer(t, Options{EventRate: rate.Inf, EventBurst: 10})

	conn := dial(t, url)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"data":{}}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"move","data":"e4"}`)))

	d := nextDispatch(t, handler)
	assert.Equal(t, "move", d.event)
	assert.Equal(t, `"e4"`, d.data)

	ev := readEvent(t, conn)
	assert.Equal(t, map[string]any{"event": "error", "data": "Unsupported request format."}, ev)
}

func TestHub_EventRateLimit(t *testing.T) {
	_, handler, url := newTestServer(t, Options{EventRate: rate.Limit(0.001), EventBurst: 1})

	conn := dial(t, url)
	require.NoError(t, conn.WriteJSON(map[string]any{"event": "move", "data": "e4"}))
	require.NoError(t, conn.WriteJSON(map[string]any{"event": "move", "data": "e5"}))

	assert.Equal(t, "move", nextDispatch(t, handler).event)

	ev := readEvent(t, conn)
	assert.Equal(t, "error", ev["event"])
	assert.Equal(t, "Too many requests. Please try again later.", ev["data"])

	select {
	case d := <-handler.events:
		t.Fatalf("limited event was dispatched: %+v", d)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	hub, handler, url := newTestServer(t, Options{EventRate: rate.Inf, EventBurst: 10})

	conn := dial(t, url)
	require.NoError(t, conn.WriteJSON(map[string]any{"event": "joinRoom", "data": map[string]string{}}))
	joined := nextDispatch(t, handler)

	require.NoError(t, conn.Close())

	select {
	case id := <-handler.disconnected:
		assert.Equal(t, joined.connID, id)
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect not reported")
	}

	require.Eventually(t, func() bool { return hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, hub.GroupSize("AB12"))

	hub.Send(joined.connID, session.Event{Name: session.EventError, Data: "gone"})
	hub.Broadcast("AB12", session.Event{Name: session.EventError, Data: "gone"})
}

func TestHub_Shutdown(t *testing.T) {
	hub, handler, url := newTestServer(t, Options{EventRate: rate.Inf, EventBurst: 10})

	conn := dial(t, url)
	require.NoError(t, conn.WriteJSON(map[string]any{"event": "joinRoom", "data": map[string]string{}}))
	nextDispatch(t, handler)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, hub.Shutdown(ctx))

	assert.Equal(t, 0, hub.Len())
	assert.Len(t, handler.disconnected, 1)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	late, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer late.Close()
	require.NoError(t, late.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = late.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway))
}
