package vectorstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func TestIndexName(t *testing.T) {
	tests := []struct {
		tenant  string
		purpose Purpose
		want    string
	}{
		{"acme", PurposeDocument, "doc_acme"},
		{"acme", PurposeChatHistory, "chat_history_acme"},
		{"globex", PurposeDocument, "doc_globex"},
		{"globex", PurposeChatHistory, "chat_history_globex"},
	}

	for _, tt := range tests {
		if got := IndexName(tt.tenant, tt.purpose); got != tt.want {
			t.Errorf("IndexName(%q, %q) = %q, want %q", tt.tenant, tt.purpose, got, tt.want)
		}
	}
}

func TestRegistryTenantIsolation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewRegistry(NewClient(srv.URL, "", "", &stubEmbedder{dim: 4}))
	ctx := context.Background()

	a := r.DocStore(ctx, "acme")
	b := r.DocStore(ctx, "globex")
	if a.IndexName() == b.IndexName() {
		t.Fatal("different tenants share a document index")
	}

	docs := r.DocStore(ctx, "acme")
	history := r.ChatHistoryStore(ctx, "acme")
	if docs.IndexName() == history.IndexName() {
		t.Fatal("document and chat-history stores share an index")
	}
}

func TestEnsureIndexesCreatesMissing(t *testing.T) {
	var mu sync.Mutex
	created := map[string]bool{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			// Nothing exists yet
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			mu.Lock()
			created[r.URL.Path] = true
			mu.Unlock()
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	r := NewRegistry(NewClient(srv.URL, "", "", &stubEmbedder{dim: 4}))
	r.EnsureIndexes(context.Background(), "acme")

	mu.Lock()
	defer mu.Unlock()
	if !created["/doc_acme"] || !created["/chat_history_acme"] {
		t.Fatalf("expected both tenant indexes created, got %v", created)
	}
}

func TestStoreReturnedEvenWhenCreateFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "cluster unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r := NewRegistry(NewClient(srv.URL, "", "", &stubEmbedder{dim: 4}))

	// Provisioning failure is deferred to first use, not raised here
	store := r.DocStore(context.Background(), "acme")
	if store == nil {
		t.Fatal("expected a usable handle despite create failure")
	}
	if store.IndexName() != "doc_acme" {
		t.Fatalf("unexpected index name %q", store.IndexName())
	}
}
