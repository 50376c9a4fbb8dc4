// Package oracle abstracts the text-completion service used for chat replies
// and affirmations. Callers treat it as a remote collaborator with
// non-deterministic latency and possible failure; every call is bounded by a
// timeout.
package oracle

import (
	"context"

	"github.com/dostlabs/dost-server/internal/domain"
)

// Chat is one live dialogue bound to a single user's context. The remote
// service keeps the conversational history for the handle's lifetime.
type Chat interface {
	// Send forwards one user message and returns the reply text.
	Send(ctx context.Context, message string) (string, error)
}

// Client is the text-completion oracle.
type Client interface {
	// StartChat opens a dialogue seeded with a system context and the given
	// opening turns.
	StartChat(ctx context.Context, system string, seed []domain.Turn) (Chat, error)

	// Generate performs a one-shot completion with no session state.
	Generate(ctx context.Context, prompt string) (string, error)
}
