/*
Package randx generates and normalizes room codes and generates message identifiers.

Room codes are case-insensitive; every code is normalized to its upper-case form
before it reaches the room registry.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	// RoomCodeChars is the alphabet of generated room codes (0-9, A-Z).
	RoomCodeChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// RoomCodeLength is the length of generated room codes.
	RoomCodeLength = 6

	// MaxRoomCodeLength bounds user-entered room codes, in characters.
	MaxRoomCodeLength = 16
)

var roomCodeCharsLen = big.NewInt(int64(len(RoomCodeChars)))

// RoomCode generates a random room code of RoomCodeLength characters using crypto/rand.
func RoomCode() (string, error) {
	result := make([]byte, RoomCodeLength)

	for i := range RoomCodeLength {
		num, err := rand.Int(rand.Reader, roomCodeCharsLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number for room code: %w", err)
		}

		result[i] = RoomCodeChars[num.Int64()]
	}

	return string(result), nil
}

// NormalizeRoomCode returns the canonical form of a user-entered code: trimmed and
// upper-cased. Any printable code is accepted, so hand-picked codes like "game-1" work
// alongside generated ones. ok is false when the result is empty, longer than
// MaxRoomCodeLength characters, or contains whitespace or control characters.
func NormalizeRoomCode(code string) (string, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(code))

	if normalized == "" || utf8.RuneCountInString(normalized) > MaxRoomCodeLength {
		return "", false
	}

	for _, char := range normalized {
		if unicode.IsSpace(char) || !unicode.IsPrint(char) {
			return "", false
		}
	}

	return normalized, true
}

// MessageID generates a UUID v4 string used for server-assigned chat message ids.
func MessageID() string {
	return uuid.New().String()
}

// ConnectionID generates the identifier of a gateway connection.
func ConnectionID() string {
	return uuid.NewString()
}
