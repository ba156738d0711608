package room

// ChatLog keeps the most recent chat messages of a room in arrival order.
// It holds at most its capacity; the oldest message is evicted first. The set of ids
// always matches the retained messages.
type ChatLog struct {
	buf   []ChatMessage
	start int
	count int
	ids   map[string]struct{}
}

// NewChatLog returns an empty log holding up to capacity messages (minimum 1).
func NewChatLog(capacity int) *ChatLog {
	if capacity < 1 {
		capacity = 1
	}
	return &ChatLog{
		buf: make([]ChatMessage, capacity),
		ids: make(map[string]struct{}, capacity),
	}
}

// Contains reports whether a message with id is retained.
func (l *ChatLog) Contains(id string) bool {
	_, ok := l.ids[id]
	return ok
}

// Append adds msg unless its id is already retained. It reports whether msg was added.
func (l *ChatLog) Append(msg ChatMessage) bool {
	if l.Contains(msg.ID) {
		return false
	}

	if l.count == len(l.buf) {
		evicted := l.buf[l.start]
		delete(l.ids, evicted.ID)
		l.buf[l.start] = msg
		l.start = (l.start + 1) % len(l.buf)
	} else {
		l.buf[(l.start+l.count)%len(l.buf)] = msg
		l.count++
	}

	l.ids[msg.ID] = struct{}{}
	return true
}

// Len returns the number of retained messages.
func (l *ChatLog) Len() int {
	return l.count
}

// Cap returns the maximum number of retained messages.
func (l *ChatLog) Cap() int {
	return len(l.buf)
}

// Messages returns the retained messages, oldest first.
func (l *ChatLog) Messages() []ChatMessage {
	out := make([]ChatMessage, 0, l.count)
	for i := range l.count {
		out = append(out, l.buf[(l.start+i)%len(l.buf)])
	}
	return out
}
