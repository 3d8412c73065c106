package chat

import (
	"sync"
	"time"
)

// Session is the append-only conversation log.
// Sequence numbers start at 1 and increase by one per message.
type Session struct {
	mu       sync.RWMutex
	messages []Message
	now      func() time.Time
}

// NewSession creates a session seeded with the assistant greeting
func NewSession() *Session {
	s := &Session{
		messages: make([]Message, 0, 16),
		now:      func() time.Time { return time.Now().UTC() },
	}
	s.Append(RoleAssistant, KindReply, Greeting, "")
	return s
}

// Append adds a message to the end of the log and returns it
func (s *Session) Append(role Role, kind Kind, text, turnID string) Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := newMessage(len(s.messages)+1, role, kind, text, turnID, s.now())
	s.messages = append(s.messages, msg)
	return msg
}

// Messages returns a copy of the full log
func (s *Session) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Since returns messages with a sequence number greater than seq
func (s *Session) Since(seq int) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if seq < 0 {
		seq = 0
	}
	if seq >= len(s.messages) {
		return []Message{}
	}
	out := make([]Message, len(s.messages)-seq)
	copy(out, s.messages[seq:])
	return out
}

// ForTurn returns the messages tagged with a turn id, in log order
func (s *Session) ForTurn(turnID string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Message
	for _, m := range s.messages {
		if m.TurnID == turnID {
			out = append(out, m)
		}
	}
	return out
}

// Len returns the number of messages
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}
