package domain

import (
	"time"
)

// Turn roles in a conversation transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one role-tagged entry in a conversational transcript. Crisis marks
// user turns that matched the crisis lexicon, kept for later audit.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Crisis    bool      `json:"crisis,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
