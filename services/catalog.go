package services

import (
	"context"
	"time"

	"rag-chatbot-platform/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CatalogService maintains the per-tenant catalog of ingested files. The
// catalog is bookkeeping only; the indexed chunks live in the vector store.
type CatalogService struct {
	collection *mongo.Collection
}

func NewCatalogService(db *mongo.Database) *CatalogService {
	return &CatalogService{
		collection: db.Collection("documents"),
	}
}

// RecordIngestion upserts the catalog entry for a file, keyed by tenant and
// filename so re-uploads overwrite the previous record.
func (s *CatalogService) RecordIngestion(ctx context.Context, tenant, filename string, chunkCount int, ingestErr error) error {
	status := "indexed"
	errText := ""
	if ingestErr != nil {
		status = "failed"
		errText = ingestErr.Error()
	}

	filter := bson.M{"tenant_id": tenant, "filename": filename}
	update := bson.M{
		"$set": bson.M{
			"chunk_count": chunkCount,
			"status":      status,
			"error":       errText,
			"uploaded_at": time.Now(),
		},
		"$setOnInsert": bson.M{
			"_id": uuid.NewString(),
		},
	}

	_, err := s.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// ListByTenant returns the tenant's catalog entries, newest first.
func (s *CatalogService) ListByTenant(ctx context.Context, tenant string) ([]models.CatalogEntry, error) {
	cursor, err := s.collection.Find(ctx,
		bson.M{"tenant_id": tenant},
		options.Find().SetSort(bson.M{"uploaded_at": -1}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := make([]models.CatalogEntry, 0)
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}

	return entries, nil
}
