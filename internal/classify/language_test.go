package classify_test

import (
	"testing"

	"github.com/nordnytt/aggregator/internal/classify"
)

func TestDetectLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		title    string
		summary  string
		expected string
	}{
		{
			name:     "norwegian text",
			title:    "Regjeringen vil ikke svare",
			summary:  "Stortinget skal behandle saken, og det er ikke avklart hva som skjer.",
			expected: classify.LangNorwegian,
		},
		{
			name:     "english text",
			title:    "The council will not answer",
			summary:  "The committee said that they will review this matter from now on.",
			expected: classify.LangEnglish,
		},
		{
			name:     "cjk short-circuits",
			title:    "新闻报道",
			summary:  "the and of to in is that for with",
			expected: classify.LangChinese,
		},
		{
			name:     "no signal",
			title:    "xyzzy",
			summary:  "qwrtpl mnbvcx",
			expected: classify.LangUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := classify.DetectLanguage(tt.title, tt.summary)
			if got != tt.expected {
				t.Errorf("DetectLanguage() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

// CJK content is rejected by the language gate no matter how many
// Norwegian or English indicator words surround it.
func TestLanguageGate_RejectsCJK(t *testing.T) {
	t.Parallel()

	lang := classify.DetectLanguage("og det er til på av 中文", "the and of to in is")
	if lang != classify.LangChinese {
		t.Fatalf("expected zh, got %q", lang)
	}

	if classify.IsAcceptedLanguage(lang) {
		t.Error("expected zh to be rejected")
	}
}

func TestIsAcceptedLanguage(t *testing.T) {
	t.Parallel()

	for _, lang := range []string{"no", "en", "nb", "nn"} {
		if !classify.IsAcceptedLanguage(lang) {
			t.Errorf("expected %q to be accepted", lang)
		}
	}

	for _, lang := range []string{"zh", "unknown", "de", ""} {
		if classify.IsAcceptedLanguage(lang) {
			t.Errorf("expected %q to be rejected", lang)
		}
	}
}
