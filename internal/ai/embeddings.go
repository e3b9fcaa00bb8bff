package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"rag-chatbot-platform/internal/config"
	"rag-chatbot-platform/internal/logger"
	"rag-chatbot-platform/models"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

// EmbeddingClient converts text into fixed-dimension vectors.
type EmbeddingClient interface {
	// Embed returns the vector for text. Blank input returns an all-zero
	// vector without calling the remote service. Remote failures are
	// reported as *models.EmbeddingError.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds every text, substituting a zero vector for any item
	// that fails. It never returns an error; failures are logged.
	EmbedBatch(ctx context.Context, texts []string) [][]float32

	Dimension() int

	// IsAvailable probes the service with a test embedding and reports
	// health without raising.
	IsAvailable(ctx context.Context) bool
}

// NewEmbeddingClient selects the embeddings provider from configuration.
// Default provider is the Ollama embeddings endpoint.
func NewEmbeddingClient(cfg *config.Config) (EmbeddingClient, error) {
	switch cfg.EmbeddingsProvider {
	case "ollama", "":
		return NewOllamaEmbeddings(cfg), nil
	case "google":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
		}
		return &GoogleEmbeddings{
			apiKey:    cfg.GeminiAPIKey,
			model:     cfg.GoogleEmbeddingsModel,
			dimension: cfg.EmbeddingDimension,
		}, nil
	default:
		return nil, fmt.Errorf("unknown embeddings provider: %s", cfg.EmbeddingsProvider)
	}
}

// OllamaEmbeddings calls the Ollama /api/embeddings endpoint.
type OllamaEmbeddings struct {
	model       string
	endpoint    string
	dimension   int
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

func NewOllamaEmbeddings(cfg *config.Config) *OllamaEmbeddings {
	return &OllamaEmbeddings{
		model:     cfg.EmbeddingModel,
		endpoint:  cfg.OllamaURL + "/api/embeddings",
		dimension: cfg.EmbeddingDimension,
		httpClient: &http.Client{
			Timeout: cfg.EmbeddingTimeout,
		},
		// caps request rate against the local model server
		rateLimiter: rate.NewLimiter(rate.Limit(50), 10),
	}
}

func (e *OllamaEmbeddings) Dimension() int { return e.dimension }

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (e *OllamaEmbeddings) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		logger.Warn("Empty text provided for embedding")
		return make([]float32, e.dimension), nil
	}

	if err := e.rateLimiter.Wait(ctx); err != nil {
		return nil, &models.EmbeddingError{Err: err}
	}

	payload, err := json.Marshal(embeddingRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, &models.EmbeddingError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &models.EmbeddingError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &models.EmbeddingError{Err: fmt.Errorf("network error while getting embeddings: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &models.EmbeddingError{
			Err: fmt.Errorf("embedding request failed with status %d: %s", resp.StatusCode, string(body)),
		}
	}

	var result embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &models.EmbeddingError{Err: fmt.Errorf("malformed embedding response: %w", err)}
	}

	if len(result.Embedding) == 0 {
		return nil, &models.EmbeddingError{Err: fmt.Errorf("no embedding found in response")}
	}

	return result.Embedding, nil
}

func (e *OllamaEmbeddings) EmbedBatch(ctx context.Context, texts []string) [][]float32 {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			logger.Error("Error embedding document, substituting zero vector", "error", err, "index", i)
			vec = make([]float32, e.dimension)
		}
		embeddings[i] = vec
	}
	return embeddings
}

func (e *OllamaEmbeddings) IsAvailable(ctx context.Context) bool {
	vec, err := e.Embed(ctx, "test")
	if err != nil {
		logger.Warn("Embedding service not available", "error", err)
		return false
	}
	return len(vec) > 0
}

// GoogleEmbeddings is the alternative provider using the Generative AI SDK
// (text-embedding-004). Requires EMBEDDING_DIM to match the model's output.
type GoogleEmbeddings struct {
	apiKey    string
	model     string
	dimension int
}

func (g *GoogleEmbeddings) Dimension() int { return g.dimension }

func (g *GoogleEmbeddings) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return make([]float32, g.dimension), nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return nil, &models.EmbeddingError{Err: err}
	}
	defer client.Close()

	model := client.EmbeddingModel(g.model)
	resp, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, &models.EmbeddingError{Err: err}
	}
	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, &models.EmbeddingError{Err: fmt.Errorf("no embedding returned")}
	}
	if len(resp.Embedding.Values) != g.dimension {
		return nil, &models.EmbeddingError{
			Err: fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(resp.Embedding.Values), g.dimension),
		}
	}

	return resp.Embedding.Values, nil
}

func (g *GoogleEmbeddings) EmbedBatch(ctx context.Context, texts []string) [][]float32 {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := g.Embed(ctx, text)
		if err != nil {
			logger.Error("Error embedding document, substituting zero vector", "error", err, "index", i)
			vec = make([]float32, g.dimension)
		}
		embeddings[i] = vec
	}
	return embeddings
}

func (g *GoogleEmbeddings) IsAvailable(ctx context.Context) bool {
	vec, err := g.Embed(ctx, "test")
	return err == nil && len(vec) > 0
}
