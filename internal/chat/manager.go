package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dostlabs/dost-server/internal/crisis"
	"github.com/dostlabs/dost-server/internal/domain"
	"github.com/dostlabs/dost-server/internal/oracle"
	"github.com/dostlabs/dost-server/internal/persona"
	"github.com/dostlabs/dost-server/internal/store"
)

// FallbackReply is returned to the user whenever the oracle fails. The real
// failure is only logged server-side.
const FallbackReply = "Sorry, I'm having a little trouble thinking right now. Please try again in a moment."

// errDialogue marks an oracle failure while opening a dialogue, which is
// answered with FallbackReply rather than surfaced as an error.
var errDialogue = errors.New("dialogue unavailable")

// TurnResult is the outcome of one chat turn.
type TurnResult struct {
	Reply    string `json:"reply"`
	IsCrisis bool   `json:"is_crisis"`
}

// Manager routes chat turns and affirmation requests through per-user
// sessions. Turns for one user are serialized by the session's own lock;
// different users proceed fully in parallel.
type Manager struct {
	repo     store.Repository
	oracle   oracle.Client
	sessions SessionStore
}

// NewManager creates a session manager over the given collaborators.
func NewManager(repo store.Repository, client oracle.Client, sessions SessionStore) *Manager {
	return &Manager{
		repo:     repo,
		oracle:   client,
		sessions: sessions,
	}
}

// SendTurn processes one chat message for an authenticated user. The first
// turn lazily initializes the user's session from profile, lifestyle and
// challenge data; failed initialization caches nothing so the next call
// retries. Oracle failures during a turn yield FallbackReply and leave the
// transcript untouched.
func (m *Manager) SendTurn(ctx context.Context, userID int64, message string) (TurnResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return TurnResult{}, fmt.Errorf("message cannot be empty: %w", domain.ErrValidation)
	}

	isCrisis := crisis.Detect(message)
	if isCrisis {
		slog.Warn("crisis signal detected in chat message", "user_id", userID,
			"matched_phrases", len(crisis.Matches(message)))
	}

	sess, err := m.sessions.GetOrCreate(ctx, userID, func(ctx context.Context) (*Session, error) {
		return m.initSession(ctx, userID)
	})
	if err != nil {
		if errors.Is(err, errDialogue) {
			slog.Error("session initialization failed at the oracle", "user_id", userID, "error", err)
			return TurnResult{Reply: FallbackReply, IsCrisis: isCrisis}, nil
		}
		return TurnResult{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	reply, err := sess.dialog.Send(ctx, message)
	if err != nil {
		// Chat sends are never retried: a retry could land the message
		// twice in the oracle-side history.
		slog.Error("oracle chat send failed", "user_id", userID, "error", err)
		return TurnResult{Reply: FallbackReply, IsCrisis: isCrisis}, nil
	}

	now := time.Now()
	sess.appendExchange(
		domain.Turn{Role: domain.RoleUser, Content: message, Crisis: isCrisis, Timestamp: now},
		domain.Turn{Role: domain.RoleAssistant, Content: reply, Timestamp: now},
	)
	return TurnResult{Reply: reply, IsCrisis: isCrisis}, nil
}

// Affirmation generates one short personalized affirmation. The oracle call
// is idempotent and retried once on failure.
func (m *Manager) Affirmation(ctx context.Context, userID int64) (string, error) {
	brief, _, err := m.profileBrief(ctx, userID)
	if err != nil {
		return "", err
	}

	prompt := persona.AffirmationPrompt(brief)
	text, err := m.oracle.Generate(ctx, prompt)
	if err != nil {
		slog.Warn("affirmation generation failed, retrying once", "user_id", userID, "error", err)
		if text, err = m.oracle.Generate(ctx, prompt); err != nil {
			return "", fmt.Errorf("generate affirmation: %w: %w", domain.ErrUpstream, err)
		}
	}
	return strings.TrimSpace(text), nil
}

// Evict drops the user's live session. Called on logout so conversational
// memory does not outlive the login session.
func (m *Manager) Evict(userID int64) {
	m.sessions.Evict(userID)
}

// Transcript returns a copy of the user's session transcript for audit, or
// false when no session is live.
func (m *Manager) Transcript(userID int64) ([]domain.Turn, bool) {
	sess, ok := m.sessions.Peek(userID)
	if !ok {
		return nil, false
	}
	return sess.Transcript(), true
}

func (m *Manager) initSession(ctx context.Context, userID int64) (*Session, error) {
	brief, user, err := m.profileBrief(ctx, userID)
	if err != nil {
		return nil, err
	}

	greeting := persona.Greeting(user.FirstName)
	dialog, err := m.oracle.StartChat(ctx, persona.ChatSystemPrompt(brief), []domain.Turn{
		{Role: domain.RoleAssistant, Content: greeting},
	})
	if err != nil {
		return nil, fmt.Errorf("open dialogue: %w: %w", errDialogue, err)
	}

	slog.Info("chat session initialized", "user_id", userID)
	return newSession(userID, dialog, greeting), nil
}

// profileBrief loads the personalization inputs and renders the brief.
// Missing profile or lifestyle rows surface as ErrDataIncomplete so the
// caller can steer the user back to onboarding instead of crashing.
func (m *Manager) profileBrief(ctx context.Context, userID int64) (string, *domain.UserProfile, error) {
	user, err := m.repo.GetUser(ctx, userID)
	if err != nil {
		return "", nil, fmt.Errorf("load profile: %w: %w", domain.ErrUpstream, err)
	}
	if user == nil {
		return "", nil, fmt.Errorf("no profile for user %d: %w", userID, domain.ErrDataIncomplete)
	}

	lifestyle, err := m.repo.GetLifestyle(ctx, userID)
	if err != nil {
		return "", nil, fmt.Errorf("load lifestyle: %w: %w", domain.ErrUpstream, err)
	}
	if lifestyle == nil {
		return "", nil, fmt.Errorf("no lifestyle data for user %d: %w", userID, domain.ErrDataIncomplete)
	}

	challenges, err := m.repo.ListChallenges(ctx, userID)
	if err != nil {
		return "", nil, fmt.Errorf("load challenges: %w: %w", domain.ErrUpstream, err)
	}

	return persona.ProfileBrief(user, lifestyle, challenges), user, nil
}
