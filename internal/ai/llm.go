package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"rag-chatbot-platform/internal/config"
	"rag-chatbot-platform/internal/logger"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// OllamaClient streams generations from the Ollama /api/generate endpoint.
// A circuit breaker guards against a wedged or failing model server.
type OllamaClient struct {
	endpoint        string
	textModel       string
	multimodalModel string
	httpClient      *http.Client
	breaker         *gobreaker.CircuitBreaker
}

func NewOllamaClient(cfg *config.Config) *OllamaClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "OllamaGenerate",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &OllamaClient{
		endpoint:        cfg.OllamaURL + "/api/generate",
		textModel:       cfg.LLMModel,
		multimodalModel: cfg.MultimodalModel,
		httpClient: &http.Client{
			Timeout: cfg.GenerationTimeout,
		},
		breaker: breaker,
	}
}

type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images,omitempty"`
	Stream bool     `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// StreamGenerate streams a text generation for prompt, invoking onChunk for
// each produced fragment as soon as it arrives. An error opening the stream
// is returned before any chunk is delivered; an error mid-stream is returned
// after the chunks produced so far have been forwarded.
func (c *OllamaClient) StreamGenerate(ctx context.Context, prompt string, onChunk func(string)) error {
	return c.stream(ctx, generateRequest{
		Model:  c.textModel,
		Prompt: prompt,
		Stream: true,
	}, onChunk)
}

// StreamGenerateWithImages streams a multimodal generation about the given
// images. Images are base64-encoded for transport.
func (c *OllamaClient) StreamGenerateWithImages(ctx context.Context, prompt string, images [][]byte, onChunk func(string)) error {
	encoded := make([]string, 0, len(images))
	for _, img := range images {
		if len(img) == 0 {
			continue
		}
		encoded = append(encoded, base64.StdEncoding.EncodeToString(img))
	}

	return c.stream(ctx, generateRequest{
		Model:  c.multimodalModel,
		Prompt: prompt,
		Images: encoded,
		Stream: true,
	}, onChunk)
}

func (c *OllamaClient) stream(ctx context.Context, genReq generateRequest, onChunk func(string)) error {
	tracer := otel.Tracer("ollama-client")
	ctx, span := tracer.Start(ctx, "ollama.generate_stream")
	defer span.End()
	span.SetAttributes(
		attribute.String("ollama.model", genReq.Model),
		attribute.Int("ollama.images", len(genReq.Images)),
	)

	// The breaker covers opening the stream; a server that accepts the
	// request but dies mid-stream is handled by the line loop below.
	result, err := c.breaker.Execute(func() (interface{}, error) {
		payload, err := json.Marshal(genReq)
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, fmt.Errorf("model server error: %d - %s", resp.StatusCode, string(body))
		}
		return resp, nil
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	resp := result.(*http.Response)
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk generateResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			// Skip malformed JSON lines
			continue
		}

		if chunk.Response != "" {
			onChunk(chunk.Response)
		}
		if chunk.Done {
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("model stream interrupted: %w", err)
	}

	return nil
}
