package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"rag-chatbot-platform/internal/ai"
	"rag-chatbot-platform/internal/logger"
	"rag-chatbot-platform/models"

	"github.com/google/uuid"
)

// Client is a minimal REST client to OpenSearch. Documents are stored with a
// text field, a knn_vector field, and an open object metadata field; queries
// run approximate nearest-neighbor search over the vector field.
type Client struct {
	baseURL    string
	username   string
	password   string
	embedder   ai.EmbeddingClient
	httpClient *http.Client
}

func NewClient(baseURL, username, password string, embedder ai.EmbeddingClient) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		embedder: embedder,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Ping reports whether the OpenSearch cluster answers at all.
func (c *Client) Ping(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/", nil)
	if err != nil {
		return false
	}
	c.auth(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// IndexExists checks whether the named index exists. The error is non-nil
// only when the existence check itself could not be performed.
func (c *Client) IndexExists(ctx context.Context, index string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/"+index, nil)
	if err != nil {
		return false, err
	}
	c.auth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK, nil
}

// CreateIndex creates the named index with the knn schema: a text field, a
// knn_vector field of the embedder's dimension, and an object metadata field.
// A concurrent "already exists" response is treated as success.
func (c *Client) CreateIndex(ctx context.Context, index string) error {
	mapping := map[string]any{
		"settings": map[string]any{
			"index": map[string]any{
				"knn": true,
			},
		},
		"mappings": map[string]any{
			"properties": map[string]any{
				"text": map[string]any{
					"type": "text",
				},
				"vector_field": map[string]any{
					"type":      "knn_vector",
					"dimension": c.embedder.Dimension(),
				},
				"metadata": map[string]any{
					"type": "object",
				},
			},
		},
	}

	payload, err := json.Marshal(mapping)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/"+index, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.auth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode == http.StatusBadRequest && strings.Contains(string(body), "resource_already_exists_exception") {
		// Lost a create race with a concurrent request for the same tenant
		return nil
	}

	return fmt.Errorf("failed to create index %s: status %d: %s", index, resp.StatusCode, string(body))
}

type bulkAction struct {
	Index bulkIndexMeta `json:"index"`
}

type bulkIndexMeta struct {
	Index string `json:"_index"`
	ID    string `json:"_id"`
}

type indexedDocument struct {
	Text        string         `json:"text"`
	VectorField []float32      `json:"vector_field"`
	Metadata    map[string]any `json:"metadata"`
}

// AddDocuments embeds and indexes docs into the named index in one bulk
// request. Per-document embedding failures degrade to zero vectors inside
// EmbedBatch; a bulk-level failure is returned as an error.
func (c *Client) AddDocuments(ctx context.Context, index string, docs []models.Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}
	vectors := c.embedder.EmbedBatch(ctx, texts)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, doc := range docs {
		if err := enc.Encode(bulkAction{Index: bulkIndexMeta{Index: index, ID: uuid.NewString()}}); err != nil {
			return err
		}
		if err := enc.Encode(indexedDocument{
			Text:        doc.Text,
			VectorField: vectors[i],
			Metadata:    doc.Metadata,
		}); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/_bulk", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-ndjson")
	c.auth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bulk indexing request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("bulk indexing failed: status %d: %s", resp.StatusCode, string(body))
	}

	var bulkResp struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
			Error  any `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&bulkResp); err != nil {
		return fmt.Errorf("malformed bulk response: %w", err)
	}
	if bulkResp.Errors {
		failed := 0
		for _, item := range bulkResp.Items {
			for _, result := range item {
				if result.Status >= 300 {
					failed++
				}
			}
		}
		return fmt.Errorf("bulk indexing reported %d failed documents", failed)
	}

	return nil
}

type knnQuery struct {
	Size  int `json:"size"`
	Query struct {
		KNN struct {
			VectorField struct {
				Vector []float32 `json:"vector"`
				K      int       `json:"k"`
			} `json:"vector_field"`
		} `json:"knn"`
	} `json:"query"`
}

// SimilaritySearch embeds the query text and returns up to k documents ranked
// by vector similarity. Query embedding failures degrade to a zero vector so
// the search itself still runs.
func (c *Client) SimilaritySearch(ctx context.Context, index, query string, k int) ([]models.RetrievedDocument, error) {
	vector, err := c.embedder.Embed(ctx, query)
	if err != nil {
		logger.Error("Error embedding query, falling back to zero vector", "error", err)
		vector = make([]float32, c.embedder.Dimension())
	}

	var q knnQuery
	q.Size = k
	q.Query.KNN.VectorField.Vector = vector
	q.Query.KNN.VectorField.K = k

	payload, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+index+"/_search", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.auth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("similarity search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("similarity search failed: status %d: %s", resp.StatusCode, string(body))
	}

	var searchResp struct {
		Hits struct {
			Hits []struct {
				Score  float64 `json:"_score"`
				Source struct {
					Text     string         `json:"text"`
					Metadata map[string]any `json:"metadata"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("malformed search response: %w", err)
	}

	results := make([]models.RetrievedDocument, 0, len(searchResp.Hits.Hits))
	for _, hit := range searchResp.Hits.Hits {
		results = append(results, models.RetrievedDocument{
			Document: models.Document{
				Text:     hit.Source.Text,
				Metadata: hit.Source.Metadata,
			},
			Score: hit.Score,
		})
	}

	return results, nil
}

func (c *Client) auth(req *http.Request) {
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
}
