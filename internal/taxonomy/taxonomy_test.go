package taxonomy

import (
	"testing"
)

func TestCategoriesLoaded(t *testing.T) {
	t.Parallel()

	cats := Categories()
	if len(cats) != 8 {
		t.Fatalf("got %d categories, want 8", len(cats))
	}
	if cats[0].Name != "Spirituality" {
		t.Errorf("first category = %q, want declared order preserved", cats[0].Name)
	}
	for _, c := range cats {
		if len(c.Subcategories) == 0 {
			t.Errorf("category %q has no subcategories", c.Name)
		}
	}
}

func TestValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		category, subcategory string
		want                  bool
	}{
		{"Career", "Academic stress (exams, competition)", true},
		{"Relationships", "Peer pressure", true},
		{"Career", "Peer pressure", false},
		{"NoSuchCategory", "Peer pressure", false},
		{"", "", false},
	}
	for _, tt := range tests {
		if got := Valid(tt.category, tt.subcategory); got != tt.want {
			t.Errorf("Valid(%q, %q) = %v, want %v", tt.category, tt.subcategory, got, tt.want)
		}
	}
}
