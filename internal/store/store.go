// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/dostlabs/dost-server/internal/domain"
)

// CompletionResult is the outcome of recording one activity completion.
type CompletionResult struct {
	// Streak is the user's consecutive-day streak after the call.
	Streak int
	// AlreadyCounted is true when a completion for the same user, activity
	// and calendar day already existed; nothing was written in that case.
	AlreadyCounted bool
}

// Repository defines the storage collaborator for the engagement and chat
// core. User accounts, lifestyle rows and auth sessions are written by the
// account subsystem; this core reads them and owns only streak columns,
// challenge selections, the activity catalogue seed and completion facts.
type Repository interface {
	// GetUser retrieves a user profile by ID. Returns (nil, nil) when the
	// user does not exist.
	GetUser(ctx context.Context, userID int64) (*domain.UserProfile, error)

	// GetLifestyle retrieves the one-to-one lifestyle profile for a user.
	// Returns (nil, nil) when the user has not completed onboarding.
	GetLifestyle(ctx context.Context, userID int64) (*domain.LifestyleProfile, error)

	// ListChallenges returns the user's challenge selections in insertion
	// order.
	ListChallenges(ctx context.Context, userID int64) ([]domain.ChallengeSelection, error)

	// AddChallenge appends a challenge selection for a user.
	AddChallenge(ctx context.Context, sel *domain.ChallengeSelection) error

	// GetActivity retrieves a catalogue entry. Returns (nil, nil) when the
	// activity does not exist.
	GetActivity(ctx context.Context, activityID int64) (*domain.Activity, error)

	// ListActivities returns the full live catalogue.
	ListActivities(ctx context.Context) ([]domain.Activity, error)

	// SeedActivities inserts the given catalogue entries if and only if the
	// activities table is empty. Returns the number of rows inserted.
	SeedActivities(ctx context.Context, activities []domain.Activity) (int, error)

	// CompleteActivity records a completion fact and applies the streak
	// transition in a single transaction. The duplicate check, the
	// completion insert and the streak update either all happen or none do.
	CompleteActivity(ctx context.Context, userID, activityID int64, at time.Time) (CompletionResult, error)

	// CountCompletions returns the number of completion facts for a user on
	// the given day.
	CountCompletions(ctx context.Context, userID int64, day domain.Date) (int, error)

	// GetSessionUser resolves an auth session token to a user ID. Returns
	// (0, nil) for an unknown token. The sessions table is owned by the
	// account subsystem; this core only reads and deletes rows.
	GetSessionUser(ctx context.Context, token string) (int64, error)

	// DeleteSession removes an auth session row on logout.
	DeleteSession(ctx context.Context, token string) error

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
