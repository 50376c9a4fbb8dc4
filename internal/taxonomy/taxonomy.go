// Package taxonomy exposes the static challenge-category taxonomy: an
// ordered mapping from category name to its subcategory strings. The data is
// embedded, decoded once at init, and treated as immutable afterwards.
package taxonomy

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed categories.json
var categoriesJSON []byte

// Category is one taxonomy entry with its ordered subcategories.
type Category struct {
	Name          string   `json:"category"`
	Subcategories []string `json:"subcategories"`
}

var (
	categories []Category
	byName     map[string]map[string]bool
)

func init() {
	if err := load(); err != nil {
		panic(fmt.Sprintf("taxonomy: %v", err))
	}
}

func load() error {
	if err := json.Unmarshal(categoriesJSON, &categories); err != nil {
		return fmt.Errorf("decode categories: %w", err)
	}
	if len(categories) == 0 {
		return fmt.Errorf("empty category taxonomy")
	}
	byName = make(map[string]map[string]bool, len(categories))
	for _, c := range categories {
		subs := make(map[string]bool, len(c.Subcategories))
		for _, s := range c.Subcategories {
			subs[s] = true
		}
		byName[c.Name] = subs
	}
	return nil
}

// Categories returns the taxonomy in its declared order. Callers must not
// mutate the returned slice.
func Categories() []Category {
	return categories
}

// Valid reports whether the (category, subcategory) pair exists in the
// taxonomy.
func Valid(category, subcategory string) bool {
	subs, ok := byName[category]
	return ok && subs[subcategory]
}
