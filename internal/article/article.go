// Package article defines the persisted article entity.
package article

import (
	"encoding/json"
	"time"
)

// Article is one ingested news item. CanonicalURL is the uniqueness key;
// an article is created once on first acceptance and never mutated or
// deleted by the ingestion pipeline.
type Article struct {
	ID           int64           `db:"id" json:"id"`
	URL          string          `db:"url" json:"url"`
	CanonicalURL string          `db:"url_canonical" json:"url_canonical"`
	SourceDomain string          `db:"source_domain" json:"source_domain"`
	SourceName   string          `db:"source_name" json:"source_name"`
	Title        string          `db:"title" json:"title"`
	Summary      *string         `db:"summary" json:"summary,omitempty"`
	Author       *string         `db:"author" json:"author,omitempty"`
	PublishedAt  *time.Time      `db:"published_at" json:"published_at,omitempty"`
	Language     string          `db:"language" json:"language"`
	Topic        string          `db:"theme" json:"theme"`
	Raw          json.RawMessage `db:"raw" json:"raw,omitempty"`
	Signature    string          `db:"minhash_sig" json:"minhash_sig,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}
