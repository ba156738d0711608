package room

import (
	"strings"
	"time"

	"chessrooms/internal/pkg/errs"
	"chessrooms/internal/pkg/randx"
)

// ChatMessage is a chat line as exchanged with clients. ID is generated by the sending
// client and is the deduplication key.
type ChatMessage struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// Normalize trims the text and fills a missing id or timestamp.
// It returns false when there is nothing left to send.
func (m *ChatMessage) Normalize(now time.Time) bool {
	m.ID = strings.TrimSpace(m.ID)
	m.Sender = strings.TrimSpace(m.Sender)
	m.Message = strings.TrimSpace(m.Message)

	if m.Message == "" {
		return false
	}
	if m.ID == "" {
		m.ID = randx.MessageID()
	}
	if m.Timestamp <= 0 {
		m.Timestamp = now.UnixMilli()
	}
	return true
}

// ValidateLength rejects messages whose text exceeds maxBytes.
func (m *ChatMessage) ValidateLength(maxBytes int) *errs.CustomError {
	if len(m.Message) > maxBytes {
		return errs.NewError(errs.ErrMessageContentTooLong)
	}
	return nil
}
