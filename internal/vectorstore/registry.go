package vectorstore

import (
	"context"
	"fmt"

	"rag-chatbot-platform/internal/logger"
	"rag-chatbot-platform/models"
)

// Purpose selects which of a tenant's two logical collections a handle is
// bound to.
type Purpose string

const (
	PurposeDocument    Purpose = "document"
	PurposeChatHistory Purpose = "chat_history"
)

// IndexName returns the deterministic backing index name for a tenant and
// purpose.
func IndexName(tenant string, purpose Purpose) string {
	if purpose == PurposeChatHistory {
		return fmt.Sprintf("chat_history_%s", tenant)
	}
	return fmt.Sprintf("doc_%s", tenant)
}

// Store is a per-tenant, per-purpose handle bound to one backing index. It is
// not cached across requests; every registry lookup re-validates the index.
type Store struct {
	client *Client
	index  string
}

func (s *Store) IndexName() string { return s.index }

func (s *Store) SimilaritySearch(ctx context.Context, query string, k int) ([]models.RetrievedDocument, error) {
	return s.client.SimilaritySearch(ctx, s.index, query, k)
}

func (s *Store) AddDocuments(ctx context.Context, docs []models.Document) error {
	return s.client.AddDocuments(ctx, s.index, docs)
}

// Registry lazily provisions per-tenant vector store handles. Tenants are
// implicitly created on first use.
type Registry struct {
	client *Client
}

func NewRegistry(client *Client) *Registry {
	return &Registry{client: client}
}

// DocStore returns the handle for the tenant's document index, creating the
// backing index if it does not exist.
func (r *Registry) DocStore(ctx context.Context, tenant string) *Store {
	return r.store(ctx, tenant, PurposeDocument)
}

// ChatHistoryStore returns the handle for the tenant's chat history index,
// creating the backing index if it does not exist.
func (r *Registry) ChatHistoryStore(ctx context.Context, tenant string) *Store {
	return r.store(ctx, tenant, PurposeChatHistory)
}

// EnsureIndexes provisions both of a tenant's indexes. Idempotent.
func (r *Registry) EnsureIndexes(ctx context.Context, tenant string) {
	r.DocStore(ctx, tenant)
	r.ChatHistoryStore(ctx, tenant)
}

// store runs the existence-check-then-create protocol. Both steps are
// best-effort: a failed existence check is treated as "does not exist", and a
// failed create is logged while the handle is still returned, deferring the
// failure to first actual use.
func (r *Registry) store(ctx context.Context, tenant string, purpose Purpose) *Store {
	index := IndexName(tenant, purpose)

	exists, err := r.client.IndexExists(ctx, index)
	if err != nil {
		logger.Warn("Error checking index existence", "index", index, "error", err)
		exists = false
	}

	if !exists {
		if err := r.client.CreateIndex(ctx, index); err != nil {
			logger.Error("Failed to create index", "index", index, "error", err)
		} else {
			logger.Info("Created index", "index", index)
		}
	}

	return &Store{client: r.client, index: index}
}
