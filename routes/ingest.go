package routes

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"rag-chatbot-platform/internal/config"
	"rag-chatbot-platform/internal/logger"
	"rag-chatbot-platform/internal/vectorstore"
	"rag-chatbot-platform/models"
	"rag-chatbot-platform/services"
	"rag-chatbot-platform/utils"

	"github.com/gin-gonic/gin"
)

// SetupIngestRoutes registers document upload and catalog endpoints.
func SetupIngestRoutes(
	router *gin.Engine,
	cfg *config.Config,
	registry *vectorstore.Registry,
	ingestService *services.IngestionService,
	catalogService *services.CatalogService,
	exportService *services.ExportService,
) {
	// Multi-file upload. Per-file failures are collected and reported
	// alongside the successful chunk count; they never fail the batch.
	router.POST("/ingest-multiple-files", func(c *gin.Context) {
		tenant := c.PostForm("tenantId")
		if strings.TrimSpace(tenant) == "" {
			utils.RespondWithBadRequest(c, "Tenant ID is required.", nil)
			return
		}

		form, err := c.MultipartForm()
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid multipart form", gin.H{"error": err.Error()})
			return
		}

		files := form.File["files"]
		if len(files) == 0 {
			utils.RespondWithBadRequest(c, "At least one file is required", nil)
			return
		}

		registry.EnsureIndexes(c.Request.Context(), tenant)

		totalChunks := 0
		ingestErrors := make([]string, 0)

		for _, header := range files {
			if !services.SupportedFileType(header.Filename) {
				ingestErrors = append(ingestErrors, fmt.Sprintf("Unsupported file type: %s", header.Filename))
				continue
			}
			if header.Size > cfg.MaxFileSize {
				ingestErrors = append(ingestErrors, fmt.Sprintf("File too large: %s", header.Filename))
				continue
			}

			f, err := header.Open()
			if err != nil {
				ingestErrors = append(ingestErrors, fmt.Sprintf("Failed to ingest %s: %v", header.Filename, err))
				continue
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				ingestErrors = append(ingestErrors, fmt.Sprintf("Failed to ingest %s: %v", header.Filename, err))
				continue
			}

			count, err := ingestService.IngestFileBytes(c.Request.Context(), data, header.Filename, tenant)
			if err != nil {
				// A failed file is reported in errors only; chunks written
				// before the failure stay indexed but are not counted
				logger.Error("Error ingesting file", "file", header.Filename, "tenant", tenant, "error", err)
				ingestErrors = append(ingestErrors, fmt.Sprintf("Failed to ingest %s: %v", header.Filename, err))
				continue
			}
			totalChunks += count
		}

		c.JSON(http.StatusOK, models.IngestResponse{
			Message:     "Ingestion completed",
			TotalChunks: totalChunks,
			Errors:      ingestErrors,
		})
	})

	// Catalog listing, newest upload first.
	router.GET("/documents", func(c *gin.Context) {
		tenant := c.Query("tenantId")
		if strings.TrimSpace(tenant) == "" {
			utils.RespondWithBadRequest(c, "Tenant ID is required.", nil)
			return
		}

		entries, err := catalogService.ListByTenant(c.Request.Context(), tenant)
		if err != nil {
			logger.Error("Failed to list documents", "tenant", tenant, "error", err)
			utils.RespondWithInternalError(c, "Failed to list documents", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{"documents": entries})
	})

	// Catalog export as a spreadsheet.
	router.GET("/export/documents", func(c *gin.Context) {
		tenant := c.Query("tenantId")
		if strings.TrimSpace(tenant) == "" {
			utils.RespondWithBadRequest(c, "Tenant ID is required.", nil)
			return
		}

		data, err := exportService.ExportCatalogXLSX(c.Request.Context(), tenant)
		if err != nil {
			logger.Error("Failed to export documents", "tenant", tenant, "error", err)
			utils.RespondWithInternalError(c, "Failed to export documents", nil)
			return
		}

		filename := fmt.Sprintf("documents_%s.xlsx", tenant)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK,
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	})
}
