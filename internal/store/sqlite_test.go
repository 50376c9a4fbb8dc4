package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dostlabs/dost-server/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo.(*SQLiteStore)
}

// insertUser writes a fixture account row the way the account subsystem would.
func insertUser(t *testing.T, s *SQLiteStore, firstName, email string, streak int, lastDay string) int64 {
	t.Helper()
	var last any
	if lastDay != "" {
		last = lastDay
	}
	res, err := s.db.Exec(`
		INSERT INTO users (first_name, last_name, email, field_of_study, activity_streak, last_activity_date, created_at)
		VALUES (?, 'Test', ?, 'Computer Science', ?, ?, ?)`,
		firstName, email, streak, last, time.Now().Unix())
	if err != nil {
		t.Fatalf("insert fixture user: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("fixture user id: %v", err)
	}
	return id
}

func seedTwoActivities(t *testing.T, s *SQLiteStore) []domain.Activity {
	t.Helper()
	n, err := s.SeedActivities(context.Background(), []domain.Activity{
		{Title: "Box breathing", Description: "Four counts in, hold, out, hold.", EstTime: "2-5 min"},
		{Title: "Gratitude note", Description: "Write down three good things.", EstTime: "5 min"},
	})
	if err != nil {
		t.Fatalf("SeedActivities: %v", err)
	}
	if n != 2 {
		t.Fatalf("seeded %d activities, want 2", n)
	}
	activities, err := s.ListActivities(context.Background())
	if err != nil {
		t.Fatalf("ListActivities: %v", err)
	}
	return activities
}

func TestSeedActivitiesIsIdempotent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	seedTwoActivities(t, s)

	n, err := s.SeedActivities(context.Background(), []domain.Activity{{Title: "Extra"}})
	if err != nil {
		t.Fatalf("second SeedActivities: %v", err)
	}
	if n != 0 {
		t.Errorf("second seed inserted %d rows, want 0", n)
	}
}

func TestCompleteActivityStreakTransitions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	acts := seedTwoActivities(t, s)
	userID := insertUser(t, s, "Asha", "asha@example.com", 3, "2024-01-10")

	jan11 := time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC)

	// Consecutive day: streak increments.
	res, err := s.CompleteActivity(ctx, userID, acts[0].ID, jan11)
	if err != nil {
		t.Fatalf("CompleteActivity: %v", err)
	}
	if res.AlreadyCounted || res.Streak != 4 {
		t.Fatalf("got %+v, want streak 4", res)
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if user.LastActivityDate == nil || user.LastActivityDate.String() != "2024-01-11" {
		t.Fatalf("last_activity_date = %v, want 2024-01-11", user.LastActivityDate)
	}

	// Same activity, same day: no-op.
	res, err = s.CompleteActivity(ctx, userID, acts[0].ID, jan11.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("duplicate CompleteActivity: %v", err)
	}
	if !res.AlreadyCounted || res.Streak != 4 {
		t.Fatalf("duplicate got %+v, want AlreadyCounted with streak 4", res)
	}

	// Different activity, same day: recorded, streak unchanged.
	res, err = s.CompleteActivity(ctx, userID, acts[1].ID, jan11.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("second-activity CompleteActivity: %v", err)
	}
	if res.AlreadyCounted || res.Streak != 4 {
		t.Fatalf("second activity got %+v, want streak 4 uncounted-as-duplicate", res)
	}

	count, err := s.CountCompletions(ctx, userID, domain.DateOf(jan11))
	if err != nil {
		t.Fatalf("CountCompletions: %v", err)
	}
	if count != 2 {
		t.Fatalf("completion facts = %d, want 2", count)
	}

	// Gap: streak resets to 1.
	jan13 := jan11.AddDate(0, 0, 2)
	res, err = s.CompleteActivity(ctx, userID, acts[0].ID, jan13)
	if err != nil {
		t.Fatalf("gap CompleteActivity: %v", err)
	}
	if res.Streak != 1 {
		t.Fatalf("after gap streak = %d, want 1", res.Streak)
	}
}

func TestCompleteActivityUnknownReferences(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	acts := seedTwoActivities(t, s)
	userID := insertUser(t, s, "Ravi", "ravi@example.com", 0, "")

	if _, err := s.CompleteActivity(ctx, 9999, acts[0].ID, time.Now()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown user: err = %v, want ErrNotFound", err)
	}
	if _, err := s.CompleteActivity(ctx, userID, 9999, time.Now()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown activity: err = %v, want ErrNotFound", err)
	}

	// Failed calls must not leave orphaned completion rows.
	count, err := s.CountCompletions(ctx, userID, domain.DateOf(time.Now()))
	if err != nil {
		t.Fatalf("CountCompletions: %v", err)
	}
	if count != 0 {
		t.Errorf("completion facts after failed calls = %d, want 0", count)
	}
}

func TestChallengesKeepInsertionOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	userID := insertUser(t, s, "Asha", "asha2@example.com", 0, "")

	for _, sub := range []string{"Peer pressure", "Loneliness and social isolation"} {
		err := s.AddChallenge(ctx, &domain.ChallengeSelection{
			UserID:      userID,
			Category:    "Relationships",
			Subcategory: sub,
			CreatedAt:   time.Now(),
		})
		if err != nil {
			t.Fatalf("AddChallenge: %v", err)
		}
	}

	selections, err := s.ListChallenges(ctx, userID)
	if err != nil {
		t.Fatalf("ListChallenges: %v", err)
	}
	if len(selections) != 2 {
		t.Fatalf("got %d selections, want 2", len(selections))
	}
	if selections[0].Subcategory != "Peer pressure" {
		t.Errorf("first selection = %q, want insertion order preserved", selections[0].Subcategory)
	}
}

func TestAuthSessionLookupAndDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	userID := insertUser(t, s, "Asha", "asha3@example.com", 0, "")

	if _, err := s.db.Exec(`INSERT INTO auth_sessions (token, user_id, created_at) VALUES (?, ?, ?)`,
		"tok-123", userID, time.Now().Unix()); err != nil {
		t.Fatalf("insert fixture session: %v", err)
	}

	got, err := s.GetSessionUser(ctx, "tok-123")
	if err != nil {
		t.Fatalf("GetSessionUser: %v", err)
	}
	if got != userID {
		t.Errorf("GetSessionUser = %d, want %d", got, userID)
	}

	if got, err = s.GetSessionUser(ctx, "nope"); err != nil || got != 0 {
		t.Errorf("unknown token = (%d, %v), want (0, nil)", got, err)
	}

	if err := s.DeleteSession(ctx, "tok-123"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if got, _ := s.GetSessionUser(ctx, "tok-123"); got != 0 {
		t.Errorf("token resolves to %d after delete, want 0", got)
	}
}
