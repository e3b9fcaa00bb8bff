package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rag-chatbot-platform/internal/config"
)

func newTestLLM(url string) *OllamaClient {
	return NewOllamaClient(&config.Config{
		OllamaURL:         url,
		LLMModel:          "test-llm",
		MultimodalModel:   "test-mm",
		GenerationTimeout: 5 * time.Second,
	})
}

func TestStreamGenerateForwardsChunks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"response":"foo","done":false}`)
		fmt.Fprintln(w, `not json at all`)
		fmt.Fprintln(w, `{"response":"bar","done":false}`)
		fmt.Fprintln(w, `{"response":"","done":true}`)
		fmt.Fprintln(w, `{"response":"after done","done":false}`)
	}))
	defer srv.Close()

	var got []string
	err := newTestLLM(srv.URL).StreamGenerate(context.Background(), "p", func(chunk string) {
		got = append(got, chunk)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "foo|bar"
	if strings.Join(got, "|") != want {
		t.Fatalf("chunks = %v, want %s (malformed lines skipped, done terminates)", got, want)
	}
}

func TestStreamGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := newTestLLM(srv.URL).StreamGenerate(context.Background(), "p", func(string) {
		t.Error("no chunk expected on open failure")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "model server error") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStreamGenerateWithImagesEncodesBase64(t *testing.T) {
	var captured struct {
		Model  string   `json:"model"`
		Images []string `json:"images"`
		Stream bool     `json:"stream"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &captured)
		fmt.Fprintln(w, `{"response":"a cat","done":true}`)
	}))
	defer srv.Close()

	err := newTestLLM(srv.URL).StreamGenerateWithImages(context.Background(), "what is this?",
		[][]byte{[]byte("raw-bytes"), nil}, func(string) {})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if captured.Model != "test-mm" {
		t.Errorf("model = %q, want the multimodal model", captured.Model)
	}
	if !captured.Stream {
		t.Error("expected streaming request")
	}
	// Empty images are dropped, the rest base64-encoded
	if len(captured.Images) != 1 || captured.Images[0] != "cmF3LWJ5dGVz" {
		t.Errorf("images = %v", captured.Images)
	}
}

func TestStreamGenerateCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"response":"first","done":false}`)
		w.(http.Flusher).Flush()
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	err := newTestLLM(srv.URL).StreamGenerate(ctx, "p", func(chunk string) {
		cancel()
	})
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
}
