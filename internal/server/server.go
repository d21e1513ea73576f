package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lazypower/recall/internal/retriever"
	"github.com/lazypower/recall/internal/store"
)

// Server is the recall HTTP API server. The retriever is the in-memory
// authority; the store, when present, is a write-behind snapshot so the
// collection survives restarts.
type Server struct {
	ret     *retriever.Retriever
	db      *store.DB
	model   string
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server. db may be nil for an ephemeral, in-memory
// collection.
func New(ret *retriever.Retriever, db *store.DB, model, version string) *Server {
	s := &Server{
		ret:     ret,
		db:      db,
		model:   model,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/documents", s.handleInsert)
		r.Get("/documents", s.handleListDocuments)
		r.Get("/documents/{docID}", s.handleGetDocument)
		r.Delete("/documents/{docID}", s.handleDeleteDocument)

		r.Post("/query", s.handleQuery)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	dbPath := ""
	if s.db != nil {
		dbPath = s.db.Path
		if err := s.db.Ping(); err != nil {
			dbOK = false
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"version":   s.version,
		"uptime":    time.Since(s.started).Seconds(),
		"documents": s.ret.Len(),
		"embedder":  s.model,
		"db":        dbOK,
		"db_path":   dbPath,
	})
}
