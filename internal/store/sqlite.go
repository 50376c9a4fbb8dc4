package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dostlabs/dost-server/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		field_of_study TEXT NOT NULL DEFAULT '',
		activity_streak INTEGER NOT NULL DEFAULT 0,
		last_activity_date TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS lifestyles (
		user_id INTEGER PRIMARY KEY REFERENCES users(id),
		diet TEXT NOT NULL,
		physical_activity TEXT NOT NULL,
		social_interaction TEXT NOT NULL,
		relax_habit TEXT NOT NULL,
		screen_time_hrs INTEGER NOT NULL,
		stress_level INTEGER NOT NULL,
		sleep_hrs INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS challenge_selections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id),
		category TEXT NOT NULL,
		subcategory TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_challenges_user ON challenge_selections(user_id, id);

	CREATE TABLE IF NOT EXISTS activities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		est_time TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS activity_completions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id),
		activity_id INTEGER NOT NULL REFERENCES activities(id),
		completed_at INTEGER NOT NULL,
		completed_on TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_completions_user_day ON activity_completions(user_id, completed_on, activity_id);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		token TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id),
		created_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// GetUser retrieves a user profile by ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID int64) (*domain.UserProfile, error) {
	query := `
		SELECT id, first_name, last_name, email, field_of_study,
		       activity_streak, last_activity_date, created_at
		FROM users WHERE id = ?`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.UserProfile, error) {
	var user domain.UserProfile
	var lastActivity sql.NullString
	var createdAt int64

	err := row.Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.Email,
		&user.FieldOfStudy, &user.ActivityStreak, &lastActivity, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	if lastActivity.Valid {
		d, err := domain.ParseDate(lastActivity.String)
		if err != nil {
			return nil, fmt.Errorf("last_activity_date: %w", err)
		}
		user.LastActivityDate = &d
	}
	user.CreatedAt = time.Unix(createdAt, 0)
	return &user, nil
}

// GetLifestyle retrieves the lifestyle profile for a user.
func (s *SQLiteStore) GetLifestyle(ctx context.Context, userID int64) (*domain.LifestyleProfile, error) {
	query := `
		SELECT user_id, diet, physical_activity, social_interaction,
		       relax_habit, screen_time_hrs, stress_level, sleep_hrs
		FROM lifestyles WHERE user_id = ?`

	var l domain.LifestyleProfile
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&l.UserID, &l.Diet, &l.PhysicalActivity, &l.SocialInteraction,
		&l.RelaxHabit, &l.ScreenTimeHrs, &l.StressLevel, &l.SleepHrs,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan lifestyle row: %w", err)
	}
	return &l, nil
}

// ListChallenges returns the user's challenge selections in insertion order.
func (s *SQLiteStore) ListChallenges(ctx context.Context, userID int64) ([]domain.ChallengeSelection, error) {
	query := `
		SELECT id, user_id, category, subcategory, description, created_at
		FROM challenge_selections WHERE user_id = ? ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query challenges: %w", err)
	}
	defer closeRows(rows, "challenges")

	var selections []domain.ChallengeSelection
	for rows.Next() {
		var sel domain.ChallengeSelection
		var createdAt int64
		if err := rows.Scan(&sel.ID, &sel.UserID, &sel.Category, &sel.Subcategory, &sel.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("scan challenge row: %w", err)
		}
		sel.CreatedAt = time.Unix(createdAt, 0)
		selections = append(selections, sel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate challenges: %w", err)
	}
	return selections, nil
}

// AddChallenge appends a challenge selection for a user.
func (s *SQLiteStore) AddChallenge(ctx context.Context, sel *domain.ChallengeSelection) error {
	query := `
		INSERT INTO challenge_selections (user_id, category, subcategory, description, created_at)
		VALUES (?, ?, ?, ?, ?)`

	res, err := s.db.ExecContext(ctx, query,
		sel.UserID, sel.Category, sel.Subcategory, sel.Description, sel.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert challenge: %w", err)
	}
	if sel.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("challenge insert id: %w", err)
	}
	return nil
}

// GetActivity retrieves a catalogue entry by ID.
func (s *SQLiteStore) GetActivity(ctx context.Context, activityID int64) (*domain.Activity, error) {
	var a domain.Activity
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, est_time FROM activities WHERE id = ?`, activityID,
	).Scan(&a.ID, &a.Title, &a.Description, &a.EstTime)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan activity row: %w", err)
	}
	return &a, nil
}

// ListActivities returns the full live catalogue.
func (s *SQLiteStore) ListActivities(ctx context.Context) ([]domain.Activity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, description, est_time FROM activities ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer closeRows(rows, "activities")

	var activities []domain.Activity
	for rows.Next() {
		var a domain.Activity
		if err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.EstTime); err != nil {
			return nil, fmt.Errorf("scan activity row: %w", err)
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return activities, nil
}

// SeedActivities inserts catalogue entries when the table is empty.
func (s *SQLiteStore) SeedActivities(ctx context.Context, activities []domain.Activity) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed tx: %w", err)
	}
	defer rollback(tx, "seed activities")

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM activities`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count activities: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	for _, a := range activities {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO activities (title, description, est_time) VALUES (?, ?, ?)`,
			a.Title, a.Description, a.EstTime,
		); err != nil {
			return 0, fmt.Errorf("seed activity %q: %w", a.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed tx: %w", err)
	}
	return len(activities), nil
}

// CompleteActivity records a completion fact and applies the streak
// transition in one transaction. A duplicate (user, activity, day) submission
// writes nothing and reports the current streak.
func (s *SQLiteStore) CompleteActivity(ctx context.Context, userID, activityID int64, at time.Time) (CompletionResult, error) {
	day := domain.DateOf(at)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("begin completion tx: %w", err)
	}
	defer rollback(tx, "complete activity")

	user, err := scanUser(tx.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, email, field_of_study,
		       activity_streak, last_activity_date, created_at
		FROM users WHERE id = ?`, userID))
	if err == sql.ErrNoRows {
		return CompletionResult{}, fmt.Errorf("user %d: %w", userID, domain.ErrNotFound)
	}
	if err != nil {
		return CompletionResult{}, fmt.Errorf("scan user row: %w", err)
	}

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM activities WHERE id = ?`, activityID).Scan(&exists)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("check activity: %w", err)
	}
	if exists == 0 {
		return CompletionResult{}, fmt.Errorf("activity %d: %w", activityID, domain.ErrNotFound)
	}

	var dup int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM activity_completions
		WHERE user_id = ? AND activity_id = ? AND completed_on = ?`,
		userID, activityID, day.String(),
	).Scan(&dup)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("check duplicate completion: %w", err)
	}
	if dup > 0 {
		return CompletionResult{Streak: user.ActivityStreak, AlreadyCounted: true}, nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO activity_completions (user_id, activity_id, completed_at, completed_on)
		VALUES (?, ?, ?, ?)`,
		userID, activityID, at.Unix(), day.String(),
	); err != nil {
		return CompletionResult{}, fmt.Errorf("insert completion: %w", err)
	}

	next := user.StreakState().Advance(day)
	if _, err := tx.ExecContext(ctx, `
		UPDATE users SET activity_streak = ?, last_activity_date = ? WHERE id = ?`,
		next.Streak, day.String(), userID,
	); err != nil {
		return CompletionResult{}, fmt.Errorf("update streak: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return CompletionResult{}, fmt.Errorf("commit completion tx: %w", err)
	}
	return CompletionResult{Streak: next.Streak}, nil
}

// CountCompletions returns the number of completion facts for a user on one day.
func (s *SQLiteStore) CountCompletions(ctx context.Context, userID int64, day domain.Date) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM activity_completions WHERE user_id = ? AND completed_on = ?`,
		userID, day.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count completions: %w", err)
	}
	return count, nil
}

// GetSessionUser resolves an auth session token to a user ID.
func (s *SQLiteStore) GetSessionUser(ctx context.Context, token string) (int64, error) {
	var userID int64
	err := s.db.QueryRowContext(ctx, `SELECT user_id FROM auth_sessions WHERE token = ?`, token).Scan(&userID)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("scan auth session: %w", err)
	}
	return userID, nil
}

// DeleteSession removes an auth session row.
func (s *SQLiteStore) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM auth_sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete auth session: %w", err)
	}
	return nil
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		slog.Warn("failed to close rows", "query", what, "error", err)
	}
}

func rollback(tx *sql.Tx, what string) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		slog.Warn("rollback failed", "tx", what, "error", err)
	}
}
