package session

import (
	"chessrooms/internal/app/room"
	"chessrooms/internal/app/rules"
)

// Inbound event names.
const (
	EventJoinRoom    = "joinRoom"
	EventMove        = "move"
	EventResetGame   = "resetGame"
	EventSendMessage = "sendMessage"
)

// Outbound event names.
const (
	EventPlayerColor    = "playerColor"
	EventOpponentJoined = "opponentJoined"
	EventSpectatorCount = "spectatorCount"
	EventGameState      = "gameState"
	EventChatMessage    = "chatMessage"
	EventGameOver       = "gameOver"
	EventError          = "error"
)

// Event is a named event with its payload, as carried over the gateway.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// Mode is the role requested on join.
type Mode string

const (
	ModePlayer    Mode = "player"
	ModeSpectator Mode = "spectator"
)

// JoinPayload is the data of a joinRoom event.
type JoinPayload struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
	Mode       Mode   `json:"mode"`
}

// MovePayload is the data of a move event. Clients may also send the FEN they expect
// after the move; it is ignored because the engine result is authoritative.
type MovePayload struct {
	RoomCode string     `json:"roomCode"`
	Move     rules.Move `json:"move"`
}

// ResetPayload is the data of a resetGame event.
type ResetPayload struct {
	RoomCode string `json:"roomCode"`
}

// ChatPayload is the data of a sendMessage event.
type ChatPayload struct {
	RoomCode string           `json:"roomCode"`
	Message  room.ChatMessage `json:"message"`
}

// RoomView is the public description of a room served over HTTP.
type RoomView struct {
	room.Snapshot
	Status string `json:"status"`
}

// Gateway delivers outbound events and tracks room group membership.
// Implementations must not block: events are delivered while a room is locked.
type Gateway interface {
	// Send delivers ev to one connection.
	Send(connID string, ev Event)

	// Broadcast delivers ev to every connection in the room's group.
	Broadcast(roomCode string, ev Event)

	// Join adds connID to the room's group.
	Join(connID, roomCode string)

	// Leave removes connID from the room's group.
	Leave(connID, roomCode string)
}
