package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lazypower/recall/internal/retriever"
)

// docView is the wire shape of a document: everything but the embedding,
// which is large and meaningless to API consumers.
type docView struct {
	ID             string         `json:"id"`
	Content        string         `json:"content"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	LastAccessedAt time.Time      `json:"last_accessed_at"`
	Seq            int64          `json:"seq"`
}

func viewOf(d retriever.Document) docView {
	return docView{
		ID:             d.ID,
		Content:        d.Content,
		Metadata:       d.Metadata,
		CreatedAt:      d.CreatedAt,
		LastAccessedAt: d.LastAccessedAt,
		Seq:            d.Seq,
	}
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content  string         `json:"content"`
		Metadata map[string]any `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		http.Error(w, `{"error":"content required"}`, http.StatusBadRequest)
		return
	}

	id, err := s.ret.Insert(r.Context(), req.Content, req.Metadata)
	if err != nil {
		writeRetrieverError(w, err)
		return
	}

	if s.db != nil {
		if doc, ok := s.ret.Get(id); ok {
			if err := s.db.SaveDocument(doc, s.model); err != nil {
				log.Printf("persist document %s: %v", id, err)
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"id": id})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs := s.ret.Documents()
	views := make([]docView, len(docs))
	for i, d := range docs {
		views[i] = viewOf(d)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"documents": views,
		"count":     len(views),
	})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "docID")

	doc, ok := s.ret.Get(id)
	if !ok {
		http.Error(w, `{"error":"document not found"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(viewOf(doc))
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "docID")

	if !s.ret.Remove(id) {
		http.Error(w, `{"error":"document not found"}`, http.StatusNotFound)
		return
	}
	if s.db != nil {
		if _, err := s.db.DeleteDocument(id); err != nil {
			log.Printf("delete document %s: %v", id, err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}

type queryResult struct {
	Document   docView `json:"document"`
	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
	Decay      float64 `json:"decay"`
	Bonus      float64 `json:"bonus"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string     `json:"query"`
		K     int        `json:"k"`
		Now   *time.Time `json:"now"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, `{"error":"query required"}`, http.StatusBadRequest)
		return
	}

	opts := retriever.QueryOpts{K: req.K}
	if req.Now != nil {
		opts.Now = *req.Now
	}

	results, err := s.ret.Query(r.Context(), req.Query, opts)
	if err != nil {
		writeRetrieverError(w, err)
		return
	}

	// Persist the refreshed last-access times for the returned set.
	if s.db != nil && len(results) > 0 {
		ids := make([]string, len(results))
		for i, res := range results {
			ids[i] = res.Doc.ID
		}
		if err := s.db.TouchDocuments(ids, results[0].Doc.LastAccessedAt); err != nil {
			log.Printf("persist touch: %v", err)
		}
	}

	out := make([]queryResult, len(results))
	for i, res := range results {
		out[i] = queryResult{
			Document:   viewOf(res.Doc),
			Score:      res.Score,
			Similarity: res.Similarity,
			Decay:      res.Decay,
			Bonus:      res.Bonus,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"results": out,
		"count":   len(out),
	})
}

func writeRetrieverError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case errors.Is(err, retriever.ErrInvalidConfig):
		w.WriteHeader(http.StatusBadRequest)
	case errors.Is(err, retriever.ErrEmbeddingUnavailable):
		w.WriteHeader(http.StatusServiceUnavailable)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
