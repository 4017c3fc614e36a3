package classify_test

import (
	"testing"

	"github.com/nordnytt/aggregator/internal/classify"
)

func TestCategorize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		title    string
		summary  string
		expected string
	}{
		{"health keyword", "New vaccine rollout", "", "health"},
		{"norwegian health keyword", "Nye bivirkninger rapportert", "", "health"},
		{"politics keyword", "Election results are in", "", "politics"},
		{"economics keyword", "Inflasjon stiger igjen", "", "economics"},
		{"conflict keyword", "War escalates", "", "conflict"},
		{"climate keyword", "Climate summit opens", "", "climate"},
		{"technology keyword", "Blockchain startup funded", "", "technology"},
		{"culture keyword", "Immigration debate continues", "", "culture"},
		{"media keyword", "Journalism under pressure", "", "media"},
		{"no match defaults", "Quiet afternoon", "Nothing much happened today.", classify.DefaultTopic},
		{"empty input defaults", "", "", classify.DefaultTopic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := classify.Categorize(tt.title, tt.summary)
			if got != tt.expected {
				t.Errorf("Categorize(%q, %q) = %q, expected %q",
					tt.title, tt.summary, got, tt.expected)
			}
		})
	}
}

// Buckets are evaluated in a fixed priority order: health beats politics
// when keywords from both appear.
func TestCategorize_PriorityOrder(t *testing.T) {
	t.Parallel()

	got := classify.Categorize("Vaccine politics in the election year", "")
	if got != "health" {
		t.Fatalf("expected health to win by priority, got %q", got)
	}
}
