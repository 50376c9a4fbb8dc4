package domain

// StreakState is the per-user input to the daily-streak state machine: the
// current consecutive-day count and the last day any activity was completed.
type StreakState struct {
	Streak           int
	LastActivityDate *Date
}

// Advance applies one counted completion on the given day and returns the
// resulting state. The transitions are:
//
//   - last activity today: another activity on the same day, streak unchanged
//   - last activity yesterday: streak increments by one
//   - anything else (no history, or a gap): streak resets to one
//
// LastActivityDate always moves to today. Advance is pure; callers are
// responsible for persisting the result atomically.
func (s StreakState) Advance(today Date) StreakState {
	next := StreakState{LastActivityDate: &today}
	switch {
	case s.LastActivityDate != nil && *s.LastActivityDate == today:
		next.Streak = s.Streak
	case s.LastActivityDate != nil && *s.LastActivityDate == today.Prev():
		next.Streak = s.Streak + 1
	default:
		next.Streak = 1
	}
	return next
}

// CompletedToday reports whether the state already counts a completion for
// the given day.
func (s StreakState) CompletedToday(today Date) bool {
	return s.LastActivityDate != nil && *s.LastActivityDate == today
}
