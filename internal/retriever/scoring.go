package retriever

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Similarity scores two vectors; higher means more similar. Symmetry is
// not required. Cosine is the default and scores in [-1,1]; the decay
// term it is summed with lives in [0,1].
type Similarity func(a, b []float64) (float64, error)

// Cosine computes the cosine similarity between two vectors.
// Unlike a best-effort implementation that returns 0 on bad input, a
// dimension mismatch is an error: scoring it as zero would silently
// corrupt the ranking.
func Cosine(a, b []float64) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("empty vector")
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0, nil
	}
	return dot / denom, nil
}

// hoursSince returns the elapsed hours from last to now, clamped at zero.
// The clamp is deliberate: a caller-supplied `now` earlier than a
// document's last access (clock skew, replayed timestamps in tests) must
// not produce a decay term above 1.
func hoursSince(last, now time.Time) float64 {
	h := now.Sub(last).Hours()
	if h < 0 {
		return 0
	}
	return h
}

// decayTerm computes (1-rate)^hours with the zero-elapsed case pinned
// explicitly: 0^0 is 1 by convention here, so a document accessed at the
// query instant always gets the full term even when rate == 1.
func decayTerm(rate, hours float64) float64 {
	if hours <= 0 {
		return 1
	}
	return math.Pow(1-rate, hours)
}

// bonus sums the configured metadata score keys for one document. A key
// that is absent or holds a non-numeric value contributes the default
// salience instead.
func (r *Retriever) bonus(meta map[string]any) float64 {
	var sum float64
	for _, key := range r.opts.ScoreKeys {
		v, ok := numericValue(meta[key])
		if !ok {
			v = r.opts.DefaultSalience
		}
		sum += v
	}
	return sum
}

func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
