// Package retriever implements a time-weighted document retriever: an
// in-memory collection of embedded documents where query ranking blends
// semantic similarity with an exponential recency decay, and being
// returned by a query refreshes a document's recency.
package retriever

import "time"

// Document is a unit of retrievable content.
//
// A Document is created once at insertion and never mutated afterwards,
// with one exception: LastAccessedAt moves forward whenever the document
// is included in a returned result set. Documents handed out by the
// retriever are copies; external code cannot change the collection's
// freshness state through them.
type Document struct {
	ID             string         `json:"id"`
	Content        string         `json:"content"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Embedding      []float64      `json:"-"`
	CreatedAt      time.Time      `json:"created_at"`
	LastAccessedAt time.Time      `json:"last_accessed_at"`

	// Seq is the insertion sequence number. It has no meaning beyond
	// deterministic tie-breaking: among documents with identical scores,
	// earlier-inserted documents rank first.
	Seq int64 `json:"seq"`
}

// Result pairs a document with its score breakdown for one query.
type Result struct {
	Doc        Document `json:"document"`
	Score      float64  `json:"score"`
	Similarity float64  `json:"similarity"`
	Decay      float64  `json:"decay"`
	Bonus      float64  `json:"bonus"`
}
