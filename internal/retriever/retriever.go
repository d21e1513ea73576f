package retriever

import (
	"context"
	"crypto/rand"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Embedder turns text into a fixed-length vector. The provider must use
// the same dimensionality for every call over a collection's lifetime.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Default query parameters, used when Options leaves them unset.
const DefaultK = 4

// Options configures a Retriever. All fields are fixed at construction.
type Options struct {
	// DecayRate is the per-hour forgetting rate in [0,1]. 0 means
	// infinite memory (decay term always 1); 1 means anything not
	// accessed at the query instant scores a decay term of 0.
	DecayRate float64

	// K is the default result count for Query. Zero means DefaultK.
	K int

	// ScoreKeys lists metadata keys whose numeric values are added
	// directly into the final score.
	ScoreKeys []string

	// DefaultSalience is used in place of a score key that is absent
	// from a document's metadata. Zero-value default is 0.
	DefaultSalience float64

	// Similarity overrides the scoring function. Nil means Cosine.
	Similarity Similarity
}

// Retriever owns an in-memory document collection and answers top-k
// queries scored as similarity + decay + metadata bonus. Returning a
// document refreshes its last-access time, so repeatedly relevant
// documents resist decay while neglected ones fade at DecayRate.
//
// Safe for concurrent use. One mutex spans the score-rank-touch section
// of Query, so a query never observes a mix of pre- and post-refresh
// timestamps from a concurrent query.
type Retriever struct {
	embedder Embedder
	opts     Options

	mu      sync.Mutex
	docs    map[string]*Document
	nextSeq int64
	entropy *ulid.MonotonicEntropy
}

// New creates a Retriever around the given embedder.
func New(embedder Embedder, opts Options) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrInvalidConfig)
	}
	// Written as a negated conjunction so NaN fails the check too.
	if !(opts.DecayRate >= 0 && opts.DecayRate <= 1) {
		return nil, fmt.Errorf("%w: decay rate %v outside [0,1]", ErrInvalidConfig, opts.DecayRate)
	}
	if opts.K < 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrInvalidConfig, opts.K)
	}
	if opts.K == 0 {
		opts.K = DefaultK
	}
	if opts.Similarity == nil {
		opts.Similarity = Cosine
	}

	return &Retriever{
		embedder: embedder,
		opts:     opts,
		docs:     make(map[string]*Document),
		entropy:  ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// Insert embeds content and adds it to the collection, returning the new
// document's ID. If the embedder fails nothing is stored.
func (r *Retriever) Insert(ctx context.Context, content string, metadata map[string]any) (string, error) {
	vec, err := r.embedder.Embed(ctx, content)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	doc := &Document{
		ID:             ulid.MustNew(ulid.Timestamp(now), r.entropy).String(),
		Content:        content,
		Metadata:       metadata,
		Embedding:      vec,
		CreatedAt:      now,
		LastAccessedAt: now,
		Seq:            r.nextSeq,
	}
	r.nextSeq++
	r.docs[doc.ID] = doc
	return doc.ID, nil
}

// QueryOpts tunes one Query call. The zero value means "now, default k".
type QueryOpts struct {
	// Now is the timestamp decay is computed against. Zero means the
	// wall clock at call entry.
	Now time.Time

	// K overrides the configured result count. Zero means the default;
	// negative is rejected.
	K int
}

// Query embeds the query text, scores every document as
// similarity + (1-decayRate)^hoursSinceAccess + metadata bonus, and
// returns the top k in descending score order (ties broken by insertion
// order). The returned documents' last-access times are set to the query
// time as a single all-or-nothing side effect: a context cancelled
// before commit leaves no refresh visible.
//
// An empty collection returns an empty slice; k larger than the
// collection returns everything ranked.
func (r *Retriever) Query(ctx context.Context, text string, opts QueryOpts) ([]Result, error) {
	k := opts.K
	if k == 0 {
		k = r.opts.K
	}
	if k < 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrInvalidConfig, opts.K)
	}

	qvec, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	// The embed call above is the only suspension point. If the caller
	// has already abandoned the query, stop before taking the lock so no
	// freshness update ever becomes visible.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	results := make([]Result, 0, len(r.docs))
	for _, d := range r.docs {
		sim, err := r.opts.Similarity(qvec, d.Embedding)
		if err != nil {
			return nil, fmt.Errorf("%w: document %s: %v", ErrSimilarityFailed, d.ID, err)
		}
		decay := decayTerm(r.opts.DecayRate, hoursSince(d.LastAccessedAt, now))
		bonus := r.bonus(d.Metadata)
		results = append(results, Result{
			Doc:        *d,
			Score:      sim + decay + bonus,
			Similarity: sim,
			Decay:      decay,
			Bonus:      bonus,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Doc.Seq < results[j].Doc.Seq
	})

	if len(results) > k {
		results = results[:k]
	}

	// Commit the refresh for exactly the returned set. Last access only
	// moves forward: a backdated `now` never drags a timestamp below the
	// document's creation time.
	for i := range results {
		d := r.docs[results[i].Doc.ID]
		if now.After(d.LastAccessedAt) {
			d.LastAccessedAt = now
		}
		results[i].Doc.LastAccessedAt = d.LastAccessedAt
	}

	return results, nil
}

// Get returns a copy of the document with the given ID.
func (r *Retriever) Get(id string) (Document, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.docs[id]
	if !ok {
		return Document{}, false
	}
	return *d, true
}

// Remove deletes a document from the collection. The retriever never
// removes documents on its own; this exists for caller-driven cleanup.
func (r *Retriever) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[id]; !ok {
		return false
	}
	delete(r.docs, id)
	return true
}

// Len returns the number of documents in the collection.
func (r *Retriever) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.docs)
}

// Documents returns copies of every document in insertion order.
func (r *Retriever) Documents() []Document {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Document, 0, len(r.docs))
	for _, d := range r.docs {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// Restore reloads documents from a snapshot, preserving IDs, timestamps
// and sequence numbers. New insertions continue past the highest
// restored sequence. A document whose ID already exists is replaced.
func (r *Retriever) Restore(docs []Document) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range docs {
		d := docs[i]
		r.docs[d.ID] = &d
		if d.Seq >= r.nextSeq {
			r.nextSeq = d.Seq + 1
		}
	}
}
