package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lazypower/recall/internal/embed"
	"github.com/lazypower/recall/internal/retriever"
	"github.com/lazypower/recall/internal/store"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	emb := embed.NewHashEmbedder(128)
	ret, err := retriever.New(emb, retriever.Options{DecayRate: 0.01, K: 4})
	if err != nil {
		t.Fatalf("retriever.New: %v", err)
	}

	return New(ret, db, emb.Model(), "test-version")
}

func doJSON(t *testing.T, srv *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t)

	w, resp := doJSON(t, srv, "GET", "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if resp["status"] != "ok" {
		t.Errorf("status = %v, want ok", resp["status"])
	}
	if resp["version"] != "test-version" {
		t.Errorf("version = %v, want test-version", resp["version"])
	}
	if resp["db"] != true {
		t.Errorf("db = %v, want true", resp["db"])
	}
}

func TestInsertDocument(t *testing.T) {
	srv := testServer(t)

	body := `{"content":"sqlite storage with wal mode","metadata":{"source":"notes"}}`
	w, resp := doJSON(t, srv, "POST", "/api/documents", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	id, _ := resp["id"].(string)
	if id == "" {
		t.Fatal("no id returned")
	}

	// Persisted to the snapshot store as well
	n, err := srv.db.CountDocuments()
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if n != 1 {
		t.Errorf("persisted documents = %d, want 1", n)
	}

	// And retrievable through the API
	w, resp = doJSON(t, srv, "GET", "/api/documents/"+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, want %d", w.Code, http.StatusOK)
	}
	if resp["content"] != "sqlite storage with wal mode" {
		t.Errorf("content = %v", resp["content"])
	}
}

func TestInsertMissingContent(t *testing.T) {
	srv := testServer(t)

	w, _ := doJSON(t, srv, "POST", "/api/documents", `{"metadata":{}}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	w, _ = doJSON(t, srv, "POST", "/api/documents", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid json status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestQueryRanksAndBounds(t *testing.T) {
	srv := testServer(t)

	for _, content := range []string{
		"sqlite database storage engine",
		"sqlite storage with wal mode",
		"quarterly marketing budget review",
	} {
		w, _ := doJSON(t, srv, "POST", "/api/documents", `{"content":"`+content+`"}`)
		if w.Code != http.StatusCreated {
			t.Fatalf("insert %q: status %d", content, w.Code)
		}
	}

	w, resp := doJSON(t, srv, "POST", "/api/query", `{"query":"sqlite storage","k":2}`)
	if w.Code != http.StatusOK {
		t.Fatalf("query status = %d; body: %s", w.Code, w.Body.String())
	}

	results, _ := resp["results"].([]any)
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2 (k bound)", len(results))
	}

	// Both returned documents should be the sqlite ones
	for _, raw := range results {
		res := raw.(map[string]any)
		doc := res["document"].(map[string]any)
		if !strings.Contains(doc["content"].(string), "sqlite") {
			t.Errorf("unexpected top result: %v", doc["content"])
		}
		if res["score"].(float64) <= 0 {
			t.Errorf("score = %v, want > 0", res["score"])
		}
	}
}

func TestQueryEmptyCollection(t *testing.T) {
	srv := testServer(t)

	w, resp := doJSON(t, srv, "POST", "/api/query", `{"query":"anything"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if resp["count"].(float64) != 0 {
		t.Errorf("count = %v, want 0", resp["count"])
	}
}

func TestQueryMissingText(t *testing.T) {
	srv := testServer(t)

	w, _ := doJSON(t, srv, "POST", "/api/query", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestDeleteDocument(t *testing.T) {
	srv := testServer(t)

	_, resp := doJSON(t, srv, "POST", "/api/documents", `{"content":"ephemeral note"}`)
	id := resp["id"].(string)

	w, _ := doJSON(t, srv, "DELETE", "/api/documents/"+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}

	w, _ = doJSON(t, srv, "GET", "/api/documents/"+id, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want %d", w.Code, http.StatusNotFound)
	}

	w, _ = doJSON(t, srv, "DELETE", "/api/documents/"+id, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("double delete status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestListDocuments(t *testing.T) {
	srv := testServer(t)

	doJSON(t, srv, "POST", "/api/documents", `{"content":"first"}`)
	doJSON(t, srv, "POST", "/api/documents", `{"content":"second"}`)

	w, resp := doJSON(t, srv, "GET", "/api/documents", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if resp["count"].(float64) != 2 {
		t.Fatalf("count = %v, want 2", resp["count"])
	}

	docs := resp["documents"].([]any)
	first := docs[0].(map[string]any)
	if first["content"] != "first" {
		t.Errorf("documents not in insertion order: %v", first["content"])
	}
}
