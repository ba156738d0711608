/*
Package gateway owns the websocket connections of the server.

The Hub keeps every live Client and the room groups used for broadcasts, and hands
each inbound event to a Handler. It never blocks a caller: outbound frames are queued
on each client's buffered channel and dropped when that queue is full.
*/
package gateway

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"chessrooms/internal/app/session"
	"chessrooms/internal/pkg/logx"
	"chessrooms/internal/pkg/randx"
)

// Handler consumes the inbound events of the hub's connections.
type Handler interface {
	// Dispatch handles one named event. Calls for one connection are sequential.
	Dispatch(connID, event string, data json.RawMessage)

	// Disconnect is called once after the connection's read loop ends.
	Disconnect(connID string)
}

// Options bound per-connection inbound traffic.
type Options struct {
	EventRate  rate.Limit
	EventBurst int
}

// Hub tracks live connections and room groups. It implements session.Gateway.
type Hub struct {
	opts Options

	// mu protects clients, groups, memberships and closed.
	mu          sync.RWMutex
	clients     map[string]*Client
	groups      map[string]map[string]*Client
	memberships map[string]map[string]struct{}
	closed      bool

	handler Handler

	// wg tracks running read pumps so Shutdown can wait for them.
	wg sync.WaitGroup

	logger zerolog.Logger
}

var _ session.Gateway = (*Hub)(nil)

// NewHub constructs an empty Hub.
func NewHub(opts Options) *Hub {
	if opts.EventBurst <= 0 {
		opts.EventBurst = 1
	}

	return &Hub{
		opts:        opts,
		clients:     make(map[string]*Client),
		groups:      make(map[string]map[string]*Client),
		memberships: make(map[string]map[string]struct{}),
		logger:      logx.Component("Hub"),
	}
}

// SetHandler installs the event handler. It must be called before the first Serve.
func (h *Hub) SetHandler(handler Handler) {
	h.handler = handler
}

// Serve registers conn and runs its pumps. It blocks until the connection's read loop
// ends and the handler has been told about the disconnect.
func (h *Hub) Serve(conn *websocket.Conn) {
	client := newClient(h, randx.ConnectionID(), conn)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		client.closeWith(websocket.CloseGoingAway, "server shutting down")
		return
	}
	h.clients[client.ID] = client
	h.wg.Add(1)
	h.mu.Unlock()

	client.logger.Info().Msg("WebSocket connection registered.")

	go client.writePump()
	client.readPump()
}

func (h *Hub) dispatch(connID, event string, data json.RawMessage) {
	if h.handler == nil {
		return
	}
	h.handler.Dispatch(connID, event, data)
}

// unregister runs when a client's read loop ends. The handler sees the disconnect
// before the client's queue is closed, so its last broadcasts still reach the peers.
func (h *Hub) unregister(c *Client) {
	defer h.wg.Done()

	if h.handler != nil {
		h.handler.Disconnect(c.ID)
	}

	h.mu.Lock()
	for code := range h.memberships[c.ID] {
		h.removeFromGroup(c.ID, code)
	}
	delete(h.memberships, c.ID)
	if _, ok := h.clients[c.ID]; ok {
		delete(h.clients, c.ID)
		close(c.send)
	}
	h.mu.Unlock()

	c.logger.Info().Msg("WebSocket connection unregistered.")
}

// Send queues ev for one connection. Unknown connections are ignored.
func (h *Hub) Send(connID string, ev session.Event) {
	frame, ok := h.encode(ev)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if c, ok := h.clients[connID]; ok {
		c.enqueue(frame)
	}
}

// Broadcast queues ev for every connection in the room's group. The frame is encoded once.
func (h *Hub) Broadcast(roomCode string, ev session.Event) {
	frame, ok := h.encode(ev)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.groups[roomCode] {
		c.enqueue(frame)
	}
}

// Join adds connID to the room's group.
func (h *Hub) Join(connID, roomCode string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[connID]
	if !ok {
		return
	}

	group, ok := h.groups[roomCode]
	if !ok {
		group = make(map[string]*Client)
		h.groups[roomCode] = group
	}
	group[connID] = c

	rooms, ok := h.memberships[connID]
	if !ok {
		rooms = make(map[string]struct{})
		h.memberships[connID] = rooms
	}
	rooms[roomCode] = struct{}{}
}

// Leave removes connID from the room's group.
func (h *Hub) Leave(connID, roomCode string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromGroup(connID, roomCode)
	if rooms, ok := h.memberships[connID]; ok {
		delete(rooms, roomCode)
		if len(rooms) == 0 {
			delete(h.memberships, connID)
		}
	}
}

// removeFromGroup must be called with h.mu held.
func (h *Hub) removeFromGroup(connID, roomCode string) {
	group, ok := h.groups[roomCode]
	if !ok {
		return
	}
	delete(group, connID)
	if len(group) == 0 {
		delete(h.groups, roomCode)
	}
}

// Len returns the number of live connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GroupSize returns the number of connections in the room's group.
func (h *Hub) GroupSize(roomCode string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[roomCode])
}

func (h *Hub) encode(ev session.Event) ([]byte, bool) {
	frame, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error().Err(err).Str("event", ev.Name).Msg("Error marshaling outbound event")
		return nil, false
	}
	return frame, true
}

// Shutdown stops accepting connections, closes every live one and waits until their
// disconnects have been handled or ctx expires.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.logger.Info().Msg("Shutting down hub...")

	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.closeWith(websocket.CloseGoingAway, "server shutting down")
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.logger.Info().Int("closed_connections", len(clients)).Msg("Hub shutdown complete.")
		return nil
	case <-ctx.Done():
		h.logger.Warn().Err(ctx.Err()).Msg("Hub shutdown timed out.")
		return ctx.Err()
	}
}
