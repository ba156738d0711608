/*
Package rules adapts a chess rules engine to the two capabilities the session
coordinator needs: applying a move to a position and classifying a position as
ongoing, checkmate or draw.
*/
package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrIllegalMove is returned by Engine.ApplyMove when the engine rejects the move.
var ErrIllegalMove = errors.New("illegal move")

// Color is the side to move, "w" or "b".
type Color string

const (
	White Color = "w"
	Black Color = "b"
)

// Opponent returns the other color.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// Name returns the capitalized color name.
func (c Color) Name() string {
	if c == White {
		return "White"
	}
	return "Black"
}

// Position is an immutable game position. FEN describes the board; implementations may
// carry extra state (move history) needed to validate later moves.
type Position interface {
	FEN() string
	Turn() Color
}

// StatusKind classifies a position.
type StatusKind int

const (
	Ongoing StatusKind = iota
	Checkmate
	Draw
)

// Status is the terminal classification of a position.
type Status struct {
	Kind StatusKind

	// Loser is the checkmated side (the side to move) when Kind is Checkmate.
	Loser Color

	// Reason names the draw rule when Kind is Draw, e.g. "stalemate".
	Reason string
}

// Over reports whether the game has ended.
func (s Status) Over() bool {
	return s.Kind != Ongoing
}

// Outcome returns the human-readable game-over message, or "" while ongoing.
func (s Status) Outcome() string {
	switch s.Kind {
	case Checkmate:
		return fmt.Sprintf("Checkmate! %s wins!", s.Loser.Opponent().Name())
	case Draw:
		return "The game has ended in a draw."
	default:
		return ""
	}
}

// String names the status for snapshots and logs.
func (s Status) String() string {
	switch s.Kind {
	case Checkmate:
		return "checkmate"
	case Draw:
		return "draw"
	default:
		return "ongoing"
	}
}

// Engine is the rules engine contract.
type Engine interface {
	// NewPosition returns the standard starting position.
	NewPosition() Position

	// ApplyMove returns the position after move, or an error wrapping ErrIllegalMove.
	// pos is never modified.
	ApplyMove(pos Position, move Move) (Position, error)

	// Status classifies pos.
	Status(pos Position) Status
}

// Move is a move as submitted by a client: either notation text (SAN such as "Nf3" or
// UCI such as "e7e8q") or from/to squares with an optional promotion piece.
type Move struct {
	Text      string `json:"-"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Promotion string `json:"promotion,omitempty"`
}

// UnmarshalJSON accepts a JSON string or an object with from/to/promotion.
func (m *Move) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*m = Move{Text: strings.TrimSpace(text)}
		return nil
	}

	type squares Move
	var sq squares
	if err := json.Unmarshal(data, &sq); err != nil {
		return fmt.Errorf("move must be a string or an object with from/to: %w", err)
	}
	*m = Move(sq)
	return nil
}

// MarshalJSON writes the text form when set, otherwise the squares object.
func (m Move) MarshalJSON() ([]byte, error) {
	if m.Text != "" {
		return json.Marshal(m.Text)
	}
	type squares Move
	return json.Marshal(squares(m))
}

// IsZero reports whether the move carries no information.
func (m Move) IsZero() bool {
	return m.Text == "" && m.From == "" && m.To == ""
}

// UCI returns the squares form in UCI notation ("e2e4", "e7e8q"), or "" for text moves.
func (m Move) UCI() string {
	if m.From == "" || m.To == "" {
		return ""
	}
	return strings.ToLower(m.From + m.To + m.Promotion)
}

// String is the move as it should appear in logs.
func (m Move) String() string {
	if m.Text != "" {
		return m.Text
	}
	return m.UCI()
}
