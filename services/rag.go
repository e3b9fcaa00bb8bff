package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rag-chatbot-platform/internal/ai"
	"rag-chatbot-platform/internal/logger"
	"rag-chatbot-platform/internal/telemetry"
	"rag-chatbot-platform/internal/vectorstore"
	"rag-chatbot-platform/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const ragTemplate = `
<|SYSTEM|>
You are a precise RAG assistant. Your sole task is to answer the user's ` + "`<QUESTION>`" + ` using ONLY the provided ` + "`<CONTEXT>`" + `.

## Your Rules:
1.  **Strictly Grounded:** Base every single statement in your answer on the provided text. NEVER use external knowledge or make assumptions.
2.  **Cite Everything:** You MUST add a citation ` + "`[1]`" + ` or ` + "`[3][5]`" + ` after every piece of information. The citation goes *before* the punctuation.
3.  **List Your Sources:** After the answer, you MUST provide a ` + "`Sources:`" + ` list, citing the full title of each source you used.
4.  **Be Direct:** Do not add any conversational preamble. Start directly with the answer.
5.  **Handle No Information Politely:** If the context does not contain the answer, you MUST respond with the exact phrase: "I'm sorry, but I couldn't find the information needed to answer your question in the provided documents."

<|USER|>
<CONTEXT>
%s
</CONTEXT>

<SOURCES_BLOCK>
%s
</SOURCES_BLOCK>

<CHAT_HISTORY>
%s
</CHAT_HISTORY>

<QUESTION>
%s
</QUESTION>

<|SYSTEM|>
`

const (
	emptyContextSentinel = "{empty}"
	noHistorySentinel    = "No relevant previous conversation history available."
	historyPreamble      = "Relevant previous conversations:"
)

// RAGService runs the retrieval-augmented answer pipeline: per-tenant
// retrieval, numbered citations, a strict grounding prompt, streamed
// generation, and chat-history persistence.
type RAGService struct {
	registry  *vectorstore.Registry
	llm       *ai.OllamaClient
	metrics   *telemetry.Metrics
	historyK  int
	documentK int
}

func NewRAGService(registry *vectorstore.Registry, llm *ai.OllamaClient, metrics *telemetry.Metrics, historyK, documentK int) *RAGService {
	if historyK <= 0 {
		historyK = 3
	}
	if documentK <= 0 {
		documentK = 10
	}
	return &RAGService{
		registry:  registry,
		llm:       llm,
		metrics:   metrics,
		historyK:  historyK,
		documentK: documentK,
	}
}

// StreamAnswer answers query from the tenant's indexes, streaming text
// fragments on the returned channel as the model produces them. After the
// stream ends (normally, on model failure, or on caller cancellation) the
// accumulated text plus a sources block is persisted as chat history; the
// write never affects the delivered stream.
//
// Failures before any content is produced (document retrieval, prompt
// assembly) are returned synchronously with a nil channel.
func (s *RAGService) StreamAnswer(ctx context.Context, query, tenant string) (<-chan string, error) {
	start := time.Now()
	tracer := otel.Tracer("rag-pipeline")
	ctx, span := tracer.Start(ctx, "rag.answer")
	span.SetAttributes(
		attribute.String("tenant.id", tenant),
		attribute.Int("rag.query_length", len(query)),
	)

	// Idempotent precondition: both tenant indexes exist
	s.registry.EnsureIndexes(ctx, tenant)

	history := s.relevantHistory(ctx, query, tenant)

	docContext, sourcesBlock, retrieved, err := s.relevantDocuments(ctx, query, tenant)
	if err != nil {
		span.RecordError(err)
		span.End()
		return nil, fmt.Errorf("document retrieval failed: %w", err)
	}
	span.SetAttributes(attribute.Int("rag.documents_retrieved", retrieved))

	prompt := fmt.Sprintf(ragTemplate, docContext, sourcesBlock, history, query)

	out := make(chan string)
	go func() {
		defer span.End()
		defer close(out)

		var answer strings.Builder
		streamErr := s.llm.StreamGenerate(ctx, prompt, func(chunk string) {
			answer.WriteString(chunk)
			select {
			case out <- chunk:
			case <-ctx.Done():
				// caller disconnected; the generate loop observes the
				// same context and stops
			}
		})
		if streamErr != nil {
			logger.Error("Error during model streaming", "tenant", tenant, "error", streamErr)
			span.RecordError(streamErr)
			if s.metrics != nil {
				s.metrics.RecordDegradedEvent(ctx, "model_stream")
			}
		}

		// Partial answers are preserved, never discarded
		response := answer.String() + "\n\nSources:\n" + sourcesBlock
		s.storeChatHistory(query, response, tenant)

		if s.metrics != nil {
			s.metrics.RecordAnswerDuration(context.WithoutCancel(ctx), tenant, time.Since(start).Seconds())
		}
	}()

	return out, nil
}

// relevantHistory retrieves up to historyK chat records by similarity.
// Retrieval failure degrades to a fixed sentinel; it never aborts answering.
func (s *RAGService) relevantHistory(ctx context.Context, query, tenant string) string {
	store := s.registry.ChatHistoryStore(ctx, tenant)

	docs, err := store.SimilaritySearch(ctx, query, s.historyK)
	if err != nil {
		logger.Error("Error retrieving chat history", "tenant", tenant, "error", err)
		if s.metrics != nil {
			s.metrics.RecordDegradedEvent(ctx, "history_retrieval")
		}
		return noHistorySentinel
	}
	if len(docs) == 0 {
		return noHistorySentinel
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}
	return historyPreamble + "\n" + strings.Join(texts, "\n")
}

// relevantDocuments retrieves up to documentK chunks and builds the numbered
// context and the sources block. Labels are 1-based in retrieval-rank order;
// near-duplicate chunks keep separate numbers.
func (s *RAGService) relevantDocuments(ctx context.Context, query, tenant string) (docContext, sourcesBlock string, retrieved int, err error) {
	store := s.registry.DocStore(ctx, tenant)

	docs, err := store.SimilaritySearch(ctx, query, s.documentK)
	if err != nil {
		return "", "", 0, err
	}

	if len(docs) == 0 {
		return emptyContextSentinel, "", 0, nil
	}

	contextLines := make([]string, len(docs))
	sourceLines := make([]string, len(docs))
	for i, doc := range docs {
		contextLines[i] = fmt.Sprintf("[%d] %s", i+1, doc.Text)
		sourceLines[i] = fmt.Sprintf("[%d] %s", i+1, sourceDescriptor(doc.Metadata))
	}

	return strings.Join(contextLines, "\n"), strings.Join(sourceLines, "\n"), len(docs), nil
}

// sourceDescriptor renders a human-readable source for a retrieved chunk:
// title, else source filename, else a fixed unknown marker. Stored page
// numbers are 0-indexed and displayed 1-indexed.
func sourceDescriptor(md map[string]any) string {
	title, _ := md["title"].(string)
	if title == "" {
		title, _ = md["source_file"].(string)
	}
	if title == "" {
		title = "Unknown Source"
	}

	if page, ok := metadataInt(md, "page"); ok {
		return fmt.Sprintf("%s (page %d)", title, page+1)
	}
	return title
}

// metadataInt reads an integer metadata value that may have round-tripped
// through JSON as a float64.
func metadataInt(md map[string]any, key string) (int, bool) {
	switch v := md[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// storeChatHistory persists one Q/A exchange as conversational memory. Runs
// on its own context so a disconnected caller still gets its partial answer
// recorded; failure is logged, never surfaced.
func (s *RAGService) storeChatHistory(query, response, tenant string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store := s.registry.ChatHistoryStore(ctx, tenant)

	record := models.Document{
		Text: fmt.Sprintf("Q: %s\nA: %s", query, response),
		Metadata: map[string]any{
			"type":      "chat_history",
			"tenant_id": tenant,
			"query":     query,
			"response":  response,
		},
	}

	if err := store.AddDocuments(ctx, []models.Document{record}); err != nil {
		logger.Error("Error storing chat history", "tenant", tenant, "error", err)
		if s.metrics != nil {
			s.metrics.RecordDegradedEvent(ctx, "history_persistence")
		}
	}
}

// AnswerAboutImages streams a multimodal answer about the given images. It
// does not consult tenant indexes and leaves no chat-history trace. A
// transport failure is delivered as one error-text chunk so the stream stays
// well-formed for the caller.
func (s *RAGService) AnswerAboutImages(ctx context.Context, query string, images [][]byte) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)

		streamErr := s.llm.StreamGenerateWithImages(ctx, query, images, func(chunk string) {
			select {
			case out <- chunk:
			case <-ctx.Done():
			}
		})
		if streamErr != nil {
			logger.Error("Error during multimodal streaming", "error", streamErr)
			if s.metrics != nil {
				s.metrics.RecordDegradedEvent(ctx, "multimodal_stream")
			}
			select {
			case out <- fmt.Sprintf("Error: %v", streamErr):
			case <-ctx.Done():
			}
		}
	}()
	return out
}
