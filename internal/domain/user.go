// Package domain contains core domain types for the Dost wellness application.
package domain

import (
	"time"
)

// UserProfile represents a registered student. Credentials and the rest of
// the account record are owned by the account subsystem; this core only
// reads the fields it needs for personalization and mutates the streak
// columns.
type UserProfile struct {
	ID               int64     `json:"id"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	Email            string    `json:"email"`
	FieldOfStudy     string    `json:"field_of_study"`
	ActivityStreak   int       `json:"activity_streak"`
	LastActivityDate *Date     `json:"last_activity_date,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// StreakState returns the user's current position in the day-transition
// state machine.
func (u *UserProfile) StreakState() StreakState {
	return StreakState{
		Streak:           u.ActivityStreak,
		LastActivityDate: u.LastActivityDate,
	}
}

// LifestyleProfile holds the one-to-one self-report data collected during
// onboarding. Read-only to this core.
type LifestyleProfile struct {
	UserID            int64  `json:"user_id"`
	Diet              string `json:"diet"`
	PhysicalActivity  string `json:"physical_activity"`
	SocialInteraction string `json:"social_interaction"`
	RelaxHabit        string `json:"relax_habit"`
	ScreenTimeHrs     int    `json:"screen_time_hrs"`
	StressLevel       int    `json:"stress_level"` // 0-10
	SleepHrs          int    `json:"sleep_hrs"`
}

// ChallengeSelection is a user-declared concern: a (category, subcategory,
// description) triple. Selections are append-only and insertion-ordered.
type ChallengeSelection struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
