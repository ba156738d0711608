package gateway

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"chessrooms/internal/app/session"
	"chessrooms/internal/pkg/errs"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxMessageSize = 8192

	// capacity of the outbound queue of one connection.
	sendQueueSize = 256
)

// inboundFrame is the envelope every client frame is decoded from.
type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Client is one websocket connection registered with the hub.
type Client struct {
	// ID is the opaque connection id the coordinator knows this connection by.
	ID string

	hub  *Hub
	conn *websocket.Conn

	// a buffered channel used to queue frames waiting to be written. Only the hub closes it.
	send chan []byte

	// flood control for inbound events.
	limiter *rate.Limiter

	logger zerolog.Logger
}

func newClient(hub *Hub, id string, conn *websocket.Conn) *Client {
	return &Client{
		ID:      id,
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, sendQueueSize),
		limiter: rate.NewLimiter(hub.opts.EventRate, hub.opts.EventBurst),
		logger:  hub.logger.With().Str("conn_id", id).Logger(),
	}
}

// readPump reads frames until the connection fails, handing each event to the
// hub's handler. It unregisters the client on exit.
func (c *Client) readPump() {
	defer c.hub.unregister(c)

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			break
		}

		c.processInboundFrame(frame)
	}
}

func (c *Client) processInboundFrame(frame []byte) {
	var inbound inboundFrame
	if err := json.Unmarshal(frame, &inbound); err != nil {
		c.logger.Warn().Err(err).
			Int("frame_bytes", len(frame)).
			Msg("Client sent invalid JSON")
		c.hub.Send(c.ID, session.Event{
			Name: session.EventError,
			Data: errs.NewError(errs.ErrInvalidJSONFormat).Message,
		})
		return
	}

	if inbound.Event == "" {
		c.logger.Warn().Msg("Client sent frame without event name")
		return
	}

	if !c.limiter.Allow() {
		c.logger.Warn().Str("event", inbound.Event).Msg("Client exceeded event rate. Event dropped.")
		c.hub.Send(c.ID, session.Event{
			Name: session.EventError,
			Data: errs.NewError(errs.ErrRateLimitExceeded).Message,
		})
		return
	}

	c.hub.dispatch(c.ID, inbound.Event, inbound.Data)
}

// writePump writes queued frames and periodic pings until the queue is closed or a
// write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in writePump")
		}
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !c.writeQueuedFrame(frame, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePing() {
				return
			}
		}
	}
}

// writeQueuedFrame returns false once the pump should stop.
func (c *Client) writeQueuedFrame(frame []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

func (c *Client) writePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// enqueue queues frame without blocking. Callers hold the hub's read lock, which keeps
// the send channel open for the duration of the call.
func (c *Client) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send channel full, dropping message")
		return false
	}
}

// closeWith sends a close frame with code and reason and closes the connection,
// which ends the read pump.
func (c *Client) closeWith(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	if err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
		c.logger.Debug().Err(err).Msg("Failed to send close frame.")
	}

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}
