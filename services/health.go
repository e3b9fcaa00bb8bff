package services

import (
	"context"
	"sync"
	"time"

	"rag-chatbot-platform/internal/ai"
	"rag-chatbot-platform/internal/logger"
	"rag-chatbot-platform/internal/vectorstore"

	"github.com/go-co-op/gocron"
)

// DependencyStatus is a snapshot of the last dependency probe.
type DependencyStatus struct {
	EmbeddingService bool      `json:"embedding_service"`
	VectorStore      bool      `json:"vector_store"`
	CheckedAt        time.Time `json:"checked_at"`
}

// HealthMonitor periodically probes the embedding service and the vector
// store. Probes are best-effort; a failed probe marks the dependency
// unavailable but never interrupts serving.
type HealthMonitor struct {
	embedder  ai.EmbeddingClient
	store     *vectorstore.Client
	scheduler *gocron.Scheduler

	mu     sync.RWMutex
	status DependencyStatus
}

func NewHealthMonitor(embedder ai.EmbeddingClient, store *vectorstore.Client) *HealthMonitor {
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()

	return &HealthMonitor{
		embedder:  embedder,
		store:     store,
		scheduler: s,
	}
}

// Start runs an immediate probe and schedules recurring ones.
func (h *HealthMonitor) Start(interval time.Duration) error {
	h.probe()

	_, err := h.scheduler.Every(interval).Tag("dependency-probe").Do(h.probe)
	if err != nil {
		return err
	}
	h.scheduler.StartAsync()
	return nil
}

func (h *HealthMonitor) Stop() {
	h.scheduler.Stop()
}

// Status returns the latest probe snapshot.
func (h *HealthMonitor) Status() DependencyStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}

func (h *HealthMonitor) probe() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	status := DependencyStatus{
		EmbeddingService: h.embedder.IsAvailable(ctx),
		VectorStore:      h.store.Ping(ctx),
		CheckedAt:        time.Now(),
	}

	if !status.EmbeddingService {
		logger.Warn("Embedding service probe failed")
	}
	if !status.VectorStore {
		logger.Warn("Vector store probe failed")
	}

	h.mu.Lock()
	h.status = status
	h.mu.Unlock()
}
