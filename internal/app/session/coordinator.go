/*
Package session contains the session coordinator: the event handlers that keep every
client of a chess room consistent with the room's state.

Each handler runs with the affected room locked from its first read to its last
outbound event, so concurrent events on one room are applied one at a time and every
client observes the same order of broadcasts.
*/
package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"chessrooms/internal/app/room"
	"chessrooms/internal/app/rules"
	"chessrooms/internal/configs"
	"chessrooms/internal/pkg/errs"
	"chessrooms/internal/pkg/logx"
	"chessrooms/internal/pkg/randx"
)

const (
	// defaultPlayerName is used when a join carries no name.
	defaultPlayerName = "Anonymous"

	// maxNameRunes bounds display names.
	maxNameRunes = 32
)

// Options tune coordinator policies.
type Options struct {
	// ResetPolicy is configs.ResetPolicyAny or configs.ResetPolicyPlayers.
	ResetPolicy string

	// MaxMessageBytes bounds the text of a chat message.
	MaxMessageBytes int

	// Now is the clock used for chat timestamps; nil means time.Now.
	Now func() time.Time
}

// Coordinator handles inbound client events against the room registry.
type Coordinator struct {
	registry *room.Registry
	engine   rules.Engine
	gateway  Gateway
	opts     Options
	logger   zerolog.Logger
}

// NewCoordinator wires a coordinator to its registry and gateway.
func NewCoordinator(registry *room.Registry, gateway Gateway, opts Options) *Coordinator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ResetPolicy == "" {
		opts.ResetPolicy = configs.ResetPolicyAny
	}
	if opts.MaxMessageBytes <= 0 {
		opts.MaxMessageBytes = 2000
	}

	return &Coordinator{
		registry: registry,
		engine:   registry.Engine(),
		gateway:  gateway,
		opts:     opts,
		logger:   logx.Component("Coordinator"),
	}
}

// Dispatch decodes one inbound event and runs its handler. A panic in a handler is
// logged and reported to the caller as an unknown error; it never reaches the
// connection's read loop.
func (c *Coordinator) Dispatch(connID, event string, data json.RawMessage) {
	defer func() {
		if rec := recover(); rec != nil {
			c.logger.Error().
				Str("conn_id", connID).
				Str("event", event).
				Interface("panic", rec).
				Msg("Recovered from panic in event handler.")
			c.sendError(connID, errs.NewError(errs.ErrUnknown))
		}
	}()

	switch event {
	case EventJoinRoom:
		var p JoinPayload
		if c.decode(connID, event, data, &p) {
			c.Join(connID, p)
		}

	case EventMove:
		var p MovePayload
		if c.decode(connID, event, data, &p) {
			c.Move(connID, p)
		}

	case EventResetGame:
		var p ResetPayload
		if c.decode(connID, event, data, &p) {
			c.Reset(connID, p)
		}

	case EventSendMessage:
		var p ChatPayload
		if c.decode(connID, event, data, &p) {
			c.Chat(connID, p)
		}

	default:
		c.logger.Warn().Str("conn_id", connID).Str("event", event).Msg("Client sent unsupported event")
	}
}

func (c *Coordinator) decode(connID, event string, data json.RawMessage, dst any) bool {
	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.Warn().Err(err).
			Str("conn_id", connID).
			Str("event", event).
			Msg("Client sent invalid event payload")
		return false
	}
	return true
}

// Join seats the caller as a player or adds it as a spectator.
func (c *Coordinator) Join(connID string, p JoinPayload) {
	code, ok := randx.NormalizeRoomCode(p.RoomCode)
	if !ok {
		c.sendError(connID, errs.NewError(errs.ErrInvalidParams))
		return
	}

	mode := p.Mode
	if mode == "" {
		mode = ModePlayer
	}
	if mode != ModePlayer && mode != ModeSpectator {
		c.sendError(connID, errs.NewError(errs.ErrInvalidParams))
		return
	}

	current, inRoom := c.registry.Lookup(connID)
	if inRoom && current == code {
		c.sendError(connID, errs.NewError(errs.ErrAlreadyInRoom))
		return
	}

	var joined bool
	if mode == ModeSpectator {
		joined = c.joinSpectator(connID, code)
	} else {
		joined = c.joinPlayer(connID, code, displayName(p.PlayerName))
	}

	// one room per connection: the old room is left only once the new join succeeded
	if joined && inRoom {
		c.leave(connID, current)
	}
}

func (c *Coordinator) joinSpectator(connID, code string) bool {
	r := c.registry.GetLocked(code)
	if r == nil {
		c.sendError(connID, errs.NewError(errs.ErrRoomNotFound))
		return false
	}
	defer r.Unlock()

	r.AddSpectator(connID)
	c.attach(connID, r)

	c.gateway.Send(connID, Event{Name: EventGameState, Data: r.Position().FEN()})
	c.broadcastSpectatorCount(r)
	c.replayChat(connID, r)

	r.Logger().Info().Str("conn_id", connID).Int("spectators", r.SpectatorCount()).Msg("Spectator joined room.")

	c.broadcastSpectatorCount(r)
	return true
}

func (c *Coordinator) joinPlayer(connID, code, name string) bool {
	participant := room.Participant{ConnID: connID, Name: name}

	r, created := c.registry.GetOrCreate(code, participant)
	defer r.Unlock()

	if created {
		c.attach(connID, r)
		c.gateway.Send(connID, Event{Name: EventPlayerColor, Data: rules.White})

		r.Logger().Info().Str("conn_id", connID).Str("player", name).Msg("Player created room.")
	} else {
		color, ok := r.AddPlayer(participant)
		if !ok {
			r.Logger().Info().Str("conn_id", connID).Str("player", name).Msg("Room is full. Player rejected.")
			c.sendError(connID, errs.NewError(errs.ErrRoomIsFull))
			return false
		}

		c.attach(connID, r)
		c.gateway.Send(connID, Event{Name: EventPlayerColor, Data: color})
		if opponent, ok := r.Opponent(connID); ok {
			c.gateway.Send(opponent.ConnID, Event{Name: EventOpponentJoined, Data: name})
		}
		c.gateway.Broadcast(r.Code, Event{Name: EventGameState, Data: r.Position().FEN()})
		c.broadcastSpectatorCount(r)
		c.replayChat(connID, r)

		r.Logger().Info().
			Str("conn_id", connID).
			Str("player", name).
			Str("color", string(color)).
			Msg("Player joined room.")
	}

	c.broadcastSpectatorCount(r)
	return true
}

// Move submits a move from a seated player to the rules engine.
func (c *Coordinator) Move(connID string, p MovePayload) {
	r := c.lockRoom(p.RoomCode)
	if r == nil {
		return
	}
	defer r.Unlock()

	player, ok := r.Player(connID)
	if !ok {
		r.Logger().Debug().Str("conn_id", connID).Msg("Ignoring move from a connection without a seat.")
		return
	}

	next, err := c.engine.ApplyMove(r.Position(), p.Move)
	if err != nil {
		r.Logger().Debug().Err(err).Str("player", player.Name).Str("move", p.Move.String()).Msg("Move rejected.")
		c.sendError(connID, errs.NewError(errs.ErrInvalidMove))
		return
	}

	r.SetPosition(next)
	c.gateway.Broadcast(r.Code, Event{Name: EventGameState, Data: next.FEN()})

	if status := c.engine.Status(next); status.Over() {
		r.Logger().Info().Str("status", status.String()).Str("reason", status.Reason).Msg("Game over.")
		c.gateway.Broadcast(r.Code, Event{Name: EventGameOver, Data: status.Outcome()})
	}
}

// Reset puts the room back to the starting position, subject to the reset policy.
func (c *Coordinator) Reset(connID string, p ResetPayload) {
	r := c.lockRoom(p.RoomCode)
	if r == nil {
		return
	}
	defer r.Unlock()

	if !c.mayReset(r, connID) {
		r.Logger().Debug().Str("conn_id", connID).Str("policy", c.opts.ResetPolicy).Msg("Reset not permitted.")
		return
	}

	start := c.engine.NewPosition()
	r.SetPosition(start)
	c.gateway.Broadcast(r.Code, Event{Name: EventGameState, Data: start.FEN()})

	r.Logger().Info().Str("conn_id", connID).Msg("Game reset.")
}

func (c *Coordinator) mayReset(r *room.Room, connID string) bool {
	if c.opts.ResetPolicy == configs.ResetPolicyPlayers {
		_, ok := r.Player(connID)
		return ok
	}
	return r.IsMember(connID)
}

// Chat appends a message to the room's chat log and echoes it to the whole room.
// A message whose id is already in the log is dropped silently.
func (c *Coordinator) Chat(connID string, p ChatPayload) {
	r := c.lockRoom(p.RoomCode)
	if r == nil {
		return
	}
	defer r.Unlock()

	if !r.IsMember(connID) {
		r.Logger().Debug().Str("conn_id", connID).Msg("Ignoring chat from a connection outside the room.")
		return
	}

	msg := p.Message
	if !msg.Normalize(c.opts.Now()) {
		return
	}
	if r.Chat().Contains(msg.ID) {
		return
	}
	if customErr := msg.ValidateLength(c.opts.MaxMessageBytes); customErr != nil {
		c.sendError(connID, customErr)
		return
	}
	if msg.Sender == "" {
		msg.Sender = c.senderName(r, connID)
	}

	if !r.Chat().Append(msg) {
		return
	}
	c.gateway.Broadcast(r.Code, Event{Name: EventChatMessage, Data: msg})
}

func (c *Coordinator) senderName(r *room.Room, connID string) string {
	if player, ok := r.Player(connID); ok {
		return player.Name
	}
	return "Spectator"
}

// Disconnect removes the connection from whatever room it belongs to.
func (c *Coordinator) Disconnect(connID string) {
	code, ok := c.registry.Lookup(connID)
	if !ok {
		return
	}
	c.leave(connID, code)
}

// leave removes connID from the room with code. A departing player triggers the
// opponent-disconnected notice; the room is dropped once nobody is left.
func (c *Coordinator) leave(connID, code string) {
	r := c.registry.GetLocked(code)
	if r == nil {
		c.registry.Unbind(connID, code)
		return
	}
	defer r.Unlock()

	c.detach(connID, r)

	if player, ok := r.RemovePlayer(connID); ok {
		r.Logger().Info().Str("conn_id", connID).Str("player", player.Name).Msg("Player left room.")

		if r.Empty() {
			c.registry.Remove(r)
			return
		}

		c.gateway.Broadcast(r.Code, Event{Name: EventError, Data: errs.NewError(errs.ErrOpponentDisconnected).Message})
		c.broadcastSpectatorCount(r)
		return
	}

	if r.RemoveSpectator(connID) {
		r.Logger().Info().Str("conn_id", connID).Int("spectators", r.SpectatorCount()).Msg("Spectator left room.")

		c.broadcastSpectatorCount(r)
		if r.Empty() {
			c.registry.Remove(r)
		}
	}
}

// Snapshot returns the public view of the room with code.
func (c *Coordinator) Snapshot(code string) (RoomView, *errs.CustomError) {
	normalized, ok := randx.NormalizeRoomCode(code)
	if !ok {
		return RoomView{}, errs.NewError(errs.ErrInvalidParams)
	}

	r := c.registry.GetLocked(normalized)
	if r == nil {
		return RoomView{}, errs.NewError(errs.ErrRoomNotFound)
	}
	defer r.Unlock()

	return RoomView{
		Snapshot: r.Snapshot(),
		Status:   c.engine.Status(r.Position()).String(),
	}, nil
}

// FreshRoomCode returns a generated code that no live room uses.
func (c *Coordinator) FreshRoomCode() (string, error) {
	for range 10 {
		code, err := randx.RoomCode()
		if err != nil {
			return "", err
		}
		if c.registry.Get(code) == nil {
			return code, nil
		}
	}
	return "", fmt.Errorf("no free room code after 10 attempts")
}

func (c *Coordinator) lockRoom(rawCode string) *room.Room {
	code, ok := randx.NormalizeRoomCode(rawCode)
	if !ok {
		return nil
	}
	return c.registry.GetLocked(code)
}

func (c *Coordinator) attach(connID string, r *room.Room) {
	c.registry.Bind(connID, r.Code)
	c.gateway.Join(connID, r.Code)
}

func (c *Coordinator) detach(connID string, r *room.Room) {
	c.registry.Unbind(connID, r.Code)
	c.gateway.Leave(connID, r.Code)
}

func (c *Coordinator) broadcastSpectatorCount(r *room.Room) {
	c.gateway.Broadcast(r.Code, Event{Name: EventSpectatorCount, Data: r.SpectatorCount()})
}

func (c *Coordinator) replayChat(connID string, r *room.Room) {
	for _, msg := range r.Chat().Messages() {
		c.gateway.Send(connID, Event{Name: EventChatMessage, Data: msg})
	}
}

func (c *Coordinator) sendError(connID string, customErr *errs.CustomError) {
	c.gateway.Send(connID, Event{Name: EventError, Data: customErr.Message})
}

func displayName(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return defaultPlayerName
	}
	if utf8.RuneCountInString(name) > maxNameRunes {
		name = string([]rune(name)[:maxNameRunes])
	}
	return name
}
