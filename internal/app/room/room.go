/*
Package room holds the in-memory state of chess rooms and the registry that owns them.

A Room is addressed by its normalized code and carries the seated players, the
spectators, the current position and the chat log. All Room methods, except Lock and
Unlock, must be called with the room locked; the lock spans one whole event so the
state change and the broadcasts derived from it happen atomically.
*/
package room

import (
	"sync"

	"github.com/rs/zerolog"

	"chessrooms/internal/app/rules"
	"chessrooms/internal/pkg/logx"
)

// MaxPlayers is the number of seats in a room.
const MaxPlayers = 2

// Participant is a connection holding a player seat.
type Participant struct {
	ConnID string      `json:"-"`
	Name   string      `json:"name"`
	Color  rules.Color `json:"color"`
}

// PlayerInfo describes a seated player in a Snapshot.
type PlayerInfo struct {
	Name  string      `json:"name"`
	Color rules.Color `json:"color"`
}

// Snapshot is a read-only view of a room.
type Snapshot struct {
	Code       string       `json:"roomCode"`
	Players    []PlayerInfo `json:"players"`
	Spectators int          `json:"spectators"`
	FEN        string       `json:"fen"`
	Messages   int          `json:"messages"`
}

// Room is one chess session.
type Room struct {
	// Code is the normalized room code.
	Code string

	mu sync.Mutex

	// players in join order.
	players []Participant

	spectators map[string]struct{}

	position rules.Position

	chat *ChatLog

	// removed is set once the registry has dropped the room; a locked holder that sees
	// it must go back to the registry.
	removed bool

	logger zerolog.Logger
}

func newRoom(code string, start rules.Position, chatCapacity int) *Room {
	return &Room{
		Code:       code,
		players:    make([]Participant, 0, MaxPlayers),
		spectators: make(map[string]struct{}),
		position:   start,
		chat:       NewChatLog(chatCapacity),
		logger:     logx.Logger().With().Str("room_code", code).Logger(),
	}
}

// Lock acquires the room for the duration of one event.
func (r *Room) Lock() { r.mu.Lock() }

// Unlock releases the room.
func (r *Room) Unlock() { r.mu.Unlock() }

// Logger returns the room-scoped logger.
func (r *Room) Logger() *zerolog.Logger { return &r.logger }

// Removed reports whether the registry has dropped this room.
func (r *Room) Removed() bool { return r.removed }

// Players returns a copy of the seated players in seat order.
func (r *Room) Players() []Participant {
	out := make([]Participant, len(r.players))
	copy(out, r.players)
	return out
}

// PlayerCount returns the number of seated players.
func (r *Room) PlayerCount() int { return len(r.players) }

// SpectatorCount returns the number of spectators.
func (r *Room) SpectatorCount() int { return len(r.spectators) }

// IsFull reports whether both seats are taken.
func (r *Room) IsFull() bool { return len(r.players) >= MaxPlayers }

// Empty reports whether the room has neither players nor spectators.
func (r *Room) Empty() bool { return len(r.players) == 0 && len(r.spectators) == 0 }

// AddPlayer seats p and returns its color: white for the first player, otherwise the
// color the seated player does not hold. ok is false when the room is full.
// A newcomer is not always black: after white leaves, the next player takes white.
func (r *Room) AddPlayer(p Participant) (color rules.Color, ok bool) {
	if r.IsFull() {
		return "", false
	}

	p.Color = rules.White
	if len(r.players) == 1 {
		p.Color = r.players[0].Color.Opponent()
	}

	r.players = append(r.players, p)
	return p.Color, true
}

// RemovePlayer frees the seat held by connID. The remaining player keeps seat order.
func (r *Room) RemovePlayer(connID string) (Participant, bool) {
	for i, p := range r.players {
		if p.ConnID == connID {
			r.players = append(r.players[:i], r.players[i+1:]...)
			return p, true
		}
	}
	return Participant{}, false
}

// Player returns the participant seated under connID.
func (r *Room) Player(connID string) (Participant, bool) {
	for _, p := range r.players {
		if p.ConnID == connID {
			return p, true
		}
	}
	return Participant{}, false
}

// Opponent returns the other seated player relative to connID.
func (r *Room) Opponent(connID string) (Participant, bool) {
	for _, p := range r.players {
		if p.ConnID != connID {
			return p, true
		}
	}
	return Participant{}, false
}

// AddSpectator records connID as a spectator. It reports false if already present.
func (r *Room) AddSpectator(connID string) bool {
	if _, ok := r.spectators[connID]; ok {
		return false
	}
	r.spectators[connID] = struct{}{}
	return true
}

// RemoveSpectator drops connID from the spectators.
func (r *Room) RemoveSpectator(connID string) bool {
	if _, ok := r.spectators[connID]; !ok {
		return false
	}
	delete(r.spectators, connID)
	return true
}

// IsSpectator reports whether connID watches this room.
func (r *Room) IsSpectator(connID string) bool {
	_, ok := r.spectators[connID]
	return ok
}

// IsMember reports whether connID is a player or a spectator of this room.
func (r *Room) IsMember(connID string) bool {
	if _, ok := r.Player(connID); ok {
		return true
	}
	return r.IsSpectator(connID)
}

// Position returns the current position.
func (r *Room) Position() rules.Position { return r.position }

// SetPosition replaces the current position.
func (r *Room) SetPosition(pos rules.Position) { r.position = pos }

// Chat returns the room's chat log.
func (r *Room) Chat() *ChatLog { return r.chat }

// Snapshot returns a read-only view of the room.
func (r *Room) Snapshot() Snapshot {
	players := make([]PlayerInfo, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, PlayerInfo{Name: p.Name, Color: p.Color})
	}

	return Snapshot{
		Code:       r.Code,
		Players:    players,
		Spectators: len(r.spectators),
		FEN:        r.position.FEN(),
		Messages:   r.chat.Len(),
	}
}
