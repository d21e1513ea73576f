package store

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/lazypower/recall/internal/retriever"
)

// encodeEmbedding converts a []float64 to a binary BLOB (8 bytes per float64).
func encodeEmbedding(vec []float64) []byte {
	buf := make([]byte, len(vec)*8)
	for i, v := range vec {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// decodeEmbedding converts a binary BLOB back to []float64.
func decodeEmbedding(buf []byte) []float64 {
	n := len(buf) / 8
	vec := make([]float64, n)
	for i := 0; i < n; i++ {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return vec
}

// SaveDocument stores or replaces a document snapshot.
func (db *DB) SaveDocument(doc retriever.Document, model string) error {
	var meta []byte
	if doc.Metadata != nil {
		var err error
		meta, err = json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
	}

	_, err := db.Exec(`
		INSERT INTO documents (id, content, metadata, embedding, model, created_at, last_access, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			metadata = excluded.metadata,
			embedding = excluded.embedding,
			model = excluded.model,
			last_access = excluded.last_access
	`, doc.ID, doc.Content, nullableText(meta), encodeEmbedding(doc.Embedding), model,
		doc.CreatedAt.UnixMilli(), doc.LastAccessedAt.UnixMilli(), doc.Seq)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

// LoadDocuments returns all persisted documents in insertion order.
func (db *DB) LoadDocuments() ([]retriever.Document, error) {
	rows, err := db.Query(`
		SELECT id, content, metadata, embedding, created_at, last_access, seq
		FROM documents ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []retriever.Document
	for rows.Next() {
		var d retriever.Document
		var meta sql.NullString
		var blob []byte
		var createdAt, lastAccess int64
		if err := rows.Scan(&d.ID, &d.Content, &meta, &blob, &createdAt, &lastAccess, &d.Seq); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &d.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata for %s: %w", d.ID, err)
			}
		}
		d.Embedding = decodeEmbedding(blob)
		d.CreatedAt = time.UnixMilli(createdAt)
		d.LastAccessedAt = time.UnixMilli(lastAccess)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// TouchDocuments persists refreshed last-access times for the given IDs.
// Timestamps only move forward, mirroring the retriever's refresh rule.
func (db *DB) TouchDocuments(ids []string, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin touch: %w", err)
	}
	millis := now.UnixMilli()
	for _, id := range ids {
		if _, err := tx.Exec(`
			UPDATE documents SET last_access = MAX(last_access, ?) WHERE id = ?
		`, millis, id); err != nil {
			tx.Rollback()
			return fmt.Errorf("touch document %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit touch: %w", err)
	}
	return nil
}

// DeleteDocument removes a document snapshot. Returns false if it did not exist.
func (db *DB) DeleteDocument(id string) (bool, error) {
	res, err := db.Exec("DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// CountDocuments returns the number of persisted documents.
func (db *DB) CountDocuments() (int, error) {
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

func nullableText(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
