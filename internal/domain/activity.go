package domain

import (
	"time"
)

// Activity is a catalogue entry describing one self-care exercise.
// Catalogue rows are seeded once at startup and never modified by this core.
type Activity struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	EstTime     string `json:"est_time"` // e.g. "2-5 min"
}

// ActivityCompletion records the fact "user U completed activity A at T".
// Completions are append-only; they are never updated or deleted.
type ActivityCompletion struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	ActivityID  int64     `json:"activity_id"`
	CompletedAt time.Time `json:"completed_at"`
	CompletedOn Date      `json:"completed_on"`
}
