package models

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFileType is returned by the loader dispatch for extensions
// without a registered loader.
var ErrUnsupportedFileType = errors.New("unsupported file type")

// EmbeddingError wraps failures of the remote embedding service: non-success
// status, malformed response, network error, or a missing embedding field.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding error: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// IngestionError wraps the causal error of a failed file ingestion.
type IngestionError struct {
	Filename string
	Err      error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("failed to ingest %s: %v", e.Filename, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }
