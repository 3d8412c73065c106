package chat

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Kind distinguishes the purpose of a message in the log
type Kind string

const (
	KindMessage      Kind = "message"
	KindReply        Kind = "reply"
	KindConfirmation Kind = "confirmation"
	KindError        Kind = "error"
	KindNotice       Kind = "notice"
)

// Greeting opens every session
const Greeting = "Hello! I can help you refine your graph. What would you like to change?"

// ClearedNotice is appended after the canvas is cleared
const ClearedNotice = "Canvas cleared. What would you like to create next?"

// Message is one immutable entry of the chat log
type Message struct {
	ID        string    `json:"id"`
	Seq       int       `json:"seq"`
	Role      Role      `json:"role"`
	Kind      Kind      `json:"kind"`
	Text      string    `json:"text"`
	TurnID    string    `json:"turnId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func newMessage(seq int, role Role, kind Kind, text, turnID string, now time.Time) Message {
	return Message{
		ID:        uuid.New().String(),
		Seq:       seq,
		Role:      role,
		Kind:      kind,
		Text:      text,
		TurnID:    turnID,
		Timestamp: now,
	}
}
