package widget

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Source identifies which channel produced a message.
type Source string

const (
	SourceVoice Source = "voice"
	SourceChat  Source = "chat"
)

// Message is a single conversational turn. A message is immutable once
// appended to the history.
type Message struct {
	ID        uuid.UUID `json:"id"`
	Role      Role      `json:"role"`
	Source    Source    `json:"source"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func newMessage(role Role, source Source, content string) Message {
	return Message{
		ID:        uuid.New(),
		Role:      role,
		Source:    source,
		Content:   content,
		CreatedAt: time.Now(),
	}
}
