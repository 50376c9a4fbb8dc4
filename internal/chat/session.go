// Package chat implements the conversational session manager: one live,
// personalized dialogue per authenticated user, held in process memory only.
package chat

import (
	"sync"
	"time"

	"github.com/dostlabs/dost-server/internal/domain"
	"github.com/dostlabs/dost-server/internal/oracle"
)

// Session is the live dialogue state for one user identity: the oracle chat
// handle plus a role-tagged transcript. A session exists from the first chat
// turn until logout eviction or process exit; it is never persisted.
type Session struct {
	mu         sync.Mutex
	userID     int64
	dialog     oracle.Chat
	transcript []domain.Turn
}

func newSession(userID int64, dialog oracle.Chat, greeting string) *Session {
	return &Session{
		userID: userID,
		dialog: dialog,
		transcript: []domain.Turn{{
			Role:      domain.RoleAssistant,
			Content:   greeting,
			Timestamp: time.Now(),
		}},
	}
}

func (s *Session) appendExchange(userTurn, assistantTurn domain.Turn) {
	s.transcript = append(s.transcript, userTurn, assistantTurn)
}

// Transcript returns a copy of the session transcript for auditing.
func (s *Session) Transcript() []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Turn, len(s.transcript))
	copy(out, s.transcript)
	return out
}
