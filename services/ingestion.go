package services

import (
	"context"
	"fmt"
	"strings"

	"rag-chatbot-platform/internal/logger"
	"rag-chatbot-platform/internal/telemetry"
	"rag-chatbot-platform/internal/vectorstore"
	"rag-chatbot-platform/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// IngestionService orchestrates normalize -> chunk -> annotate -> batch-index
// for uploaded files.
type IngestionService struct {
	registry  *vectorstore.Registry
	splitter  *TextSplitter
	catalog   *CatalogService
	metrics   *telemetry.Metrics
	batchSize int
}

func NewIngestionService(registry *vectorstore.Registry, splitter *TextSplitter, catalog *CatalogService, metrics *telemetry.Metrics, batchSize int) *IngestionService {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &IngestionService{
		registry:  registry,
		splitter:  splitter,
		catalog:   catalog,
		metrics:   metrics,
		batchSize: batchSize,
	}
}

// IngestFileBytes ingests one file into the tenant's document index and
// returns the number of chunks written. A file with no extractable text
// returns 0 without error. Batches already written when a later batch fails
// are not rolled back; the error reports the failure with the written count.
func (s *IngestionService) IngestFileBytes(ctx context.Context, data []byte, filename, tenant string) (int, error) {
	tracer := otel.Tracer("ingestion")
	ctx, span := tracer.Start(ctx, "ingest.file")
	defer span.End()
	span.SetAttributes(
		attribute.String("tenant.id", tenant),
		attribute.String("file.name", filename),
		attribute.Int("file.size", len(data)),
	)

	chunks := s.extractChunks(data, filename)
	if len(chunks) == 0 {
		logger.Warn("No content extracted", "filename", filename, "tenant", tenant)
		s.recordCatalog(ctx, tenant, filename, 0, nil)
		return 0, nil
	}

	for i := range chunks {
		md := models.CleanMetadata(chunks[i].Metadata)
		md["source_file"] = filename
		md["type"] = "document"
		chunks[i].Metadata = md
		chunks[i].Text = strings.Join(strings.Fields(chunks[i].Text), " ")
	}

	store := s.registry.DocStore(ctx, tenant)

	written := 0
	for start := 0; start < len(chunks); start += s.batchSize {
		end := start + s.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		if err := store.AddDocuments(ctx, batch); err != nil {
			logger.Error("Error indexing batch", "filename", filename, "tenant", tenant,
				"batch", start/s.batchSize+1, "error", err)
			ingErr := &models.IngestionError{Filename: filename, Err: err}
			s.recordCatalog(ctx, tenant, filename, written, ingErr)
			span.RecordError(ingErr)
			return written, ingErr
		}

		written += len(batch)
		logger.Info("Indexed batch", "filename", filename, "tenant", tenant,
			"batch", start/s.batchSize+1, "chunks", len(batch))
	}

	if s.metrics != nil {
		s.metrics.RecordChunksIndexed(ctx, tenant, written)
	}
	span.SetAttributes(attribute.Int("ingest.chunks", written))
	logger.Info("Successfully ingested file", "filename", filename, "tenant", tenant, "chunks", written)

	s.recordCatalog(ctx, tenant, filename, written, nil)
	return written, nil
}

// extractChunks loads, cleans, and splits the file. Extraction failure is
// replaced by a single synthetic chunk recording the error, so a failed file
// stays visible and searchable instead of silently dropped.
func (s *IngestionService) extractChunks(data []byte, filename string) []models.Document {
	docs, err := LoadDocuments(data, filename)
	if err != nil {
		logger.Error("Error loading file", "filename", filename, "error", err)
		docs = []models.Document{
			{
				Text: fmt.Sprintf("Error loading file: %s. Error: %v", filename, err),
				Metadata: map[string]any{
					"source": filename,
					"error":  true,
				},
			},
		}
	}

	cleaned := make([]models.Document, 0, len(docs))
	for _, doc := range docs {
		text := CleanText(doc.Text, false)
		if text == "" {
			continue
		}
		doc.Text = text
		cleaned = append(cleaned, doc)
	}

	return s.splitter.SplitDocuments(cleaned)
}

// recordCatalog is bookkeeping only; its failure never affects the ingestion
// result.
func (s *IngestionService) recordCatalog(ctx context.Context, tenant, filename string, chunkCount int, ingestErr error) {
	if s.catalog == nil {
		return
	}
	if err := s.catalog.RecordIngestion(ctx, tenant, filename, chunkCount, ingestErr); err != nil {
		logger.Error("Failed to record catalog entry", "filename", filename, "tenant", tenant, "error", err)
	}
}
