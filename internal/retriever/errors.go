package retriever

import "errors"

// Sentinel errors. Callers branch on these with errors.Is; the wrapped
// message carries the underlying cause.
var (
	// ErrEmbeddingUnavailable means the embedding provider failed or timed
	// out. The operation aborts without mutating any state — a zero vector
	// is never substituted.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrSimilarityFailed means the similarity function failed for at least
	// one document pair. The whole query fails rather than returning a
	// ranking with a silently dropped or zeroed entry.
	ErrSimilarityFailed = errors.New("similarity computation failed")

	// ErrInvalidConfig means the retriever was constructed or called with
	// an out-of-range parameter (decay rate outside [0,1], k <= 0).
	ErrInvalidConfig = errors.New("invalid retriever configuration")
)
