// Package catalog bundles the static self-care activity catalogue. The
// bundled entries seed the database on first startup and serve as the
// fallback when the live catalogue is empty.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/dostlabs/dost-server/internal/domain"
)

//go:embed activities.json
var activitiesJSON []byte

type activityEntry struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	EstTime     string `json:"est_time"`
}

// Bundled returns the embedded activity catalogue. IDs are assigned
// sequentially from 1 so a fallback entry is still addressable in responses.
func Bundled() ([]domain.Activity, error) {
	var entries []activityEntry
	if err := json.Unmarshal(activitiesJSON, &entries); err != nil {
		return nil, fmt.Errorf("decode bundled activities: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("bundled activity catalogue is empty")
	}

	activities := make([]domain.Activity, len(entries))
	for i, e := range entries {
		activities[i] = domain.Activity{
			ID:          int64(i + 1),
			Title:       e.Title,
			Description: e.Description,
			EstTime:     e.EstTime,
		}
	}
	return activities, nil
}
