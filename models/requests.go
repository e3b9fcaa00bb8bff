package models

// AskRequest is the body of POST /ask-stream.
type AskRequest struct {
	Query    string `json:"query" binding:"required"`
	TenantID string `json:"tenantId"`
}

// IngestResponse is the result of a multi-file upload. Per-file failures are
// collected in Errors; they do not fail the batch.
type IngestResponse struct {
	Message     string   `json:"message"`
	TotalChunks int      `json:"total_chunks"`
	Errors      []string `json:"errors"`
}
