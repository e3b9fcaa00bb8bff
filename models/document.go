package models

import (
	"strings"
	"time"
)

// Document is a unit of indexable content: extracted text plus free-form
// metadata. Metadata values that are nil or blank strings are dropped before
// storage (see CleanMetadata).
type Document struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// RetrievedDocument is a Document returned from similarity search, ranked by
// relevance score.
type RetrievedDocument struct {
	Document
	Score float64 `json:"score"`
}

// CatalogEntry records one ingested file in the tenant's document catalog.
type CatalogEntry struct {
	ID         string    `bson:"_id" json:"id"`
	TenantID   string    `bson:"tenant_id" json:"tenant_id"`
	Filename   string    `bson:"filename" json:"filename"`
	ChunkCount int       `bson:"chunk_count" json:"chunk_count"`
	Status     string    `bson:"status" json:"status"` // "indexed" or "failed"
	Error      string    `bson:"error,omitempty" json:"error,omitempty"`
	UploadedAt time.Time `bson:"uploaded_at" json:"uploaded_at"`
}

// CleanMetadata returns a copy of md with nil values and blank strings removed.
func CleanMetadata(md map[string]any) map[string]any {
	cleaned := make(map[string]any, len(md))
	for k, v := range md {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		cleaned[k] = v
	}
	return cleaned
}
