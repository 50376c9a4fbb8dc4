package domain

import (
	"testing"
)

func mustDate(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func TestStreakAdvance(t *testing.T) {
	t.Parallel()

	today := Date{Year: 2024, Month: 1, Day: 11}
	yesterday := today.Prev()
	lastWeek := today.AddDays(-7)

	tests := []struct {
		name  string
		state StreakState
		want  int
	}{
		{"first ever completion", StreakState{}, 1},
		{"consecutive day increments", StreakState{Streak: 3, LastActivityDate: &yesterday}, 4},
		{"same day keeps streak", StreakState{Streak: 5, LastActivityDate: &today}, 5},
		{"gap resets", StreakState{Streak: 9, LastActivityDate: &lastWeek}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.state.Advance(today)
			if got.Streak != tt.want {
				t.Errorf("Advance streak = %d, want %d", got.Streak, tt.want)
			}
			if got.LastActivityDate == nil || *got.LastActivityDate != today {
				t.Errorf("Advance last date = %v, want %v", got.LastActivityDate, today)
			}
		})
	}
}

func TestStreakScenarioIncrementThenGap(t *testing.T) {
	t.Parallel()

	jan10 := mustDate(t, "2024-01-10")
	state := StreakState{Streak: 3, LastActivityDate: &jan10}

	state = state.Advance(mustDate(t, "2024-01-11"))
	if state.Streak != 4 {
		t.Fatalf("after 2024-01-11 streak = %d, want 4", state.Streak)
	}
	if state.LastActivityDate.String() != "2024-01-11" {
		t.Fatalf("last date = %s, want 2024-01-11", state.LastActivityDate)
	}

	// Skipping 2024-01-12 breaks the run.
	state = state.Advance(mustDate(t, "2024-01-13"))
	if state.Streak != 1 {
		t.Fatalf("after gap streak = %d, want 1", state.Streak)
	}
}

func TestStreakTrailingRunProperty(t *testing.T) {
	t.Parallel()

	// The streak after any sequence of completion days equals the length of
	// the maximal trailing run of consecutive days in that sequence.
	days := []string{
		"2024-03-01", "2024-03-02", "2024-03-02", "2024-03-05",
		"2024-03-06", "2024-03-07", "2024-03-07",
	}
	var state StreakState
	for _, s := range days {
		state = state.Advance(mustDate(t, s))
	}
	if state.Streak != 3 { // 03-05, 03-06, 03-07
		t.Fatalf("streak = %d, want 3", state.Streak)
	}
}
