// Package classify provides the heuristic language detector and the
// keyword-bucket topic categorizer. Both are intentionally coarse,
// best-effort signals: the indicator tables are plain data so they can be
// extended without touching pipeline logic.
package classify

import "strings"

// Language codes produced by DetectLanguage.
const (
	LangNorwegian = "no"
	LangEnglish   = "en"
	LangChinese   = "zh"
	LangUnknown   = "unknown"
)

// norwegianIndicators are common Norwegian words and names whose presence
// suggests Norwegian text.
var norwegianIndicators = []string{
	"og", "det", "er", "til", "på", "av", "med", "for", "som", "ikke",
	"har", "var", "vil", "skal", "kan", "må", "den", "de", "jeg", "du",
	"vi", "han", "hun", "norsk", "norge", "oslo", "regjeringen",
	"stortinget", "kroner", "år", "dag", "måned",
}

// englishIndicators are common English words whose presence suggests
// English text.
var englishIndicators = []string{
	"the", "and", "of", "to", "in", "is", "that", "for", "with", "as",
	"was", "will", "are", "this", "have", "from", "they", "we", "been",
	"their", "said", "each", "which", "she", "do", "how", "if", "up",
	"out", "many", "time", "very", "when", "much", "new", "would",
	"there", "what", "so", "people", "can", "first", "way", "could",
	"get", "use", "work", "made", "may", "also", "after", "now", "being",
}

// acceptedLanguages is the set of language codes the pipeline ingests;
// everything else is filtered out.
var acceptedLanguages = map[string]struct{}{
	"no": {},
	"en": {},
	"nb": {},
	"nn": {},
}

// DetectLanguage classifies the combined title and summary text. Any CJK
// ideograph short-circuits to Chinese. Otherwise Norwegian wins ties over
// English, and text with no indicator at all is "unknown".
func DetectLanguage(title, summary string) string {
	text := strings.ToLower(title + " " + summary)

	for _, r := range text {
		if r >= 0x4E00 && r <= 0x9FFF {
			return LangChinese
		}
	}

	norwegian := countIndicators(text, norwegianIndicators)
	english := countIndicators(text, englishIndicators)

	switch {
	case norwegian > english:
		return LangNorwegian
	case english > 0:
		return LangEnglish
	default:
		return LangUnknown
	}
}

// IsAcceptedLanguage reports whether articles in the given language are
// ingested at all.
func IsAcceptedLanguage(lang string) bool {
	_, ok := acceptedLanguages[lang]
	return ok
}

// countIndicators counts how many of the indicator words occur in the text.
func countIndicators(text string, indicators []string) int {
	count := 0

	for _, word := range indicators {
		if strings.Contains(text, word) {
			count++
		}
	}

	return count
}
