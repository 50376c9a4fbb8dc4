// Package ledger implements the engagement ledger: idempotent daily activity
// completions, consecutive-day streak accrual, and random catalogue sampling.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"time"

	"github.com/dostlabs/dost-server/internal/domain"
	"github.com/dostlabs/dost-server/internal/shared"
	"github.com/dostlabs/dost-server/internal/store"
)

// DefaultRandomCount is the catalogue sample size when the caller does not
// ask for a specific count.
const DefaultRandomCount = 5

// Service coordinates completion writes and streak reads. Mutations for one
// user are serialized through a keyed mutex so two simultaneous completions
// cannot double-increment the streak; the store makes each write atomic.
type Service struct {
	repo      store.Repository
	userLocks *shared.KeyedMutex
	fallback  []domain.Activity
}

// NewService creates an engagement ledger over the given repository.
// fallback is the bundled catalogue served when the live one is empty.
func NewService(repo store.Repository, fallback []domain.Activity) *Service {
	return &Service{
		repo:      repo,
		userLocks: shared.NewKeyedMutex(),
		fallback:  fallback,
	}
}

// RecordCompletion records that the user completed the activity at the given
// instant and returns the resulting streak. A repeated submission for the
// same activity on the same calendar day is a no-op reported through
// AlreadyCounted.
func (s *Service) RecordCompletion(ctx context.Context, userID, activityID int64, now time.Time) (store.CompletionResult, error) {
	key := strconv.FormatInt(userID, 10)
	s.userLocks.Lock(key)
	defer s.userLocks.Unlock(key)

	res, err := s.repo.CompleteActivity(ctx, userID, activityID, now)
	if shared.IsSQLiteConflictError(err) {
		// Cross-user writers can still collide on the database file.
		slog.Debug("completion write hit a busy database, retrying once",
			"user_id", userID, "activity_id", activityID)
		res, err = s.repo.CompleteActivity(ctx, userID, activityID, now)
	}
	if err != nil {
		return store.CompletionResult{}, fmt.Errorf("record completion: %w", err)
	}
	return res, nil
}

// Streak returns the user's current streak, defaulting to zero when the user
// has no profile or no recorded completions.
func (s *Service) Streak(ctx context.Context, userID int64) (int, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("read streak: %w", err)
	}
	if user == nil {
		return 0, nil
	}
	return user.ActivityStreak, nil
}

// RandomActivities samples up to n catalogue entries without replacement,
// uniformly shuffled. When the live catalogue is empty the bundled fallback
// is sampled instead.
func (s *Service) RandomActivities(ctx context.Context, n int) ([]domain.Activity, error) {
	if n <= 0 {
		n = DefaultRandomCount
	}

	activities, err := s.repo.ListActivities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	if len(activities) == 0 {
		slog.Warn("live activity catalogue is empty, serving bundled fallback")
		activities = append([]domain.Activity(nil), s.fallback...)
	} else {
		activities = append([]domain.Activity(nil), activities...)
	}

	rand.Shuffle(len(activities), func(i, j int) {
		activities[i], activities[j] = activities[j], activities[i]
	})
	if n > len(activities) {
		n = len(activities)
	}
	return activities[:n], nil
}
