package models

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a chat message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is a single entry of the conversation history.
// Messages are never modified after they are appended.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Stats     *Stats    `json:"stats,omitempty"`
}

// Label returns the display label for the message author
func (m ChatMessage) Label() string {
	if m.Role == RoleAssistant {
		return "Logic Engine"
	}
	return "Linguistic Source"
}

// NewMessageID returns a time-ordered identifier. UUIDv7 values sort in
// creation order, so history order and ID order agree.
func NewMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
