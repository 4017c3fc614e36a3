package classify

import "strings"

// DefaultTopic is assigned when no keyword bucket matches.
const DefaultTopic = "general"

// topicBucket pairs a topic label with its indicator keywords.
type topicBucket struct {
	label    string
	keywords []string
}

// topicBuckets are evaluated in order; the first bucket with any keyword
// match wins. Keywords mix Norwegian and English since sources publish in
// both languages.
var topicBuckets = []topicBucket{
	{"health", []string{
		"vaksine", "vaccine", "covid", "mrna", "pfizer", "moderna", "helse",
		"health", "medical", "pandemic", "virus", "immunity", "antibodies",
		"side effects", "bivirkninger",
	}},
	{"politics", []string{
		"politik", "politics", "election", "valg", "parlament", "government",
		"regjeringen", "stortinget", "president", "minister", "trump",
		"biden", "putin", "nato", "eu",
	}},
	{"economics", []string{
		"økonomi", "economy", "finance", "bank", "kroner", "dollar",
		"inflation", "inflasjon", "recession", "marked", "market",
		"investering", "investment",
	}},
	{"conflict", []string{
		"krig", "war", "ukraine", "ukraina", "russia", "russland",
		"military", "militær", "weapon", "våpen", "conflict", "konflikt",
		"invasion", "invasjon",
	}},
	{"climate", []string{
		"klima", "climate", "environment", "miljø", "carbon", "karbon",
		"global warming", "green", "grønn", "renewable", "fornybar",
	}},
	{"technology", []string{
		"teknologi", "technology", "ai", "artificial intelligence", "robot",
		"digital", "internet", "cyber", "blockchain", "bitcoin",
	}},
	{"culture", []string{
		"kultur", "culture", "society", "samfunn", "religion", "islam",
		"kristendom", "innvandring", "immigration", "feminism", "woke",
	}},
	{"media", []string{
		"media", "medier", "censorship", "sensur", "free speech",
		"ytringsfrihet", "journalism", "journalistikk", "fake news",
	}},
}

// Categorize assigns a topic label to the combined title and summary text.
// It is total: every input gets exactly one label, falling back to
// DefaultTopic when nothing matches.
func Categorize(title, summary string) string {
	text := strings.ToLower(title + " " + summary)

	for _, bucket := range topicBuckets {
		for _, keyword := range bucket.keywords {
			if strings.Contains(text, keyword) {
				return bucket.label
			}
		}
	}

	return DefaultTopic
}
