package routes

import (
	"io"
	"net/http"
	"strings"

	"rag-chatbot-platform/internal/logger"
	"rag-chatbot-platform/models"
	"rag-chatbot-platform/services"
	"rag-chatbot-platform/utils"

	"github.com/gin-gonic/gin"
)

// SetupAskRoutes registers the question-answering endpoints.
func SetupAskRoutes(router *gin.Engine, ragService *services.RAGService) {
	// Main RAG endpoint: streams a grounded answer with a trailing sources
	// section, persisting the exchange as chat history once the stream ends.
	router.POST("/ask-stream", func(c *gin.Context) {
		var req models.AskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		if strings.TrimSpace(req.TenantID) == "" {
			utils.RespondWithBadRequest(c, "Tenant ID is required.", nil)
			return
		}
		if strings.TrimSpace(req.Query) == "" {
			utils.RespondWithBadRequest(c, "Query is required", nil)
			return
		}

		chunks, err := ragService.StreamAnswer(c.Request.Context(), req.Query, req.TenantID)
		if err != nil {
			logger.Error("Failed to start answer stream", "tenant", req.TenantID, "error", err)
			utils.RespondWithInternalError(c, "Failed to generate answer", nil)
			return
		}

		streamChunks(c, chunks)
	})

	// Multimodal side-channel: answers a question about uploaded images.
	// Independent of the text pipeline; nothing is persisted.
	router.POST("/ask-image", func(c *gin.Context) {
		query := c.PostForm("query")
		if strings.TrimSpace(query) == "" {
			utils.RespondWithBadRequest(c, "Query is required", nil)
			return
		}

		form, err := c.MultipartForm()
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid multipart form", gin.H{"error": err.Error()})
			return
		}

		files := form.File["images"]
		if len(files) == 0 {
			utils.RespondWithBadRequest(c, "At least one image is required", nil)
			return
		}

		images := make([][]byte, 0, len(files))
		for _, header := range files {
			if header.Filename == "" {
				continue
			}
			f, err := header.Open()
			if err != nil {
				utils.RespondWithBadRequest(c, "Failed to read image", gin.H{"file": header.Filename})
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				utils.RespondWithBadRequest(c, "Failed to read image", gin.H{"file": header.Filename})
				return
			}
			images = append(images, data)
		}

		if len(images) == 0 {
			utils.RespondWithBadRequest(c, "No valid images found", nil)
			return
		}

		chunks := ragService.AnswerAboutImages(c.Request.Context(), query, images)
		streamChunks(c, chunks)
	})
}

// streamChunks forwards channel output to the client as soon as it arrives,
// flushing per chunk. The response ends when the channel closes.
func streamChunks(c *gin.Context, chunks <-chan string) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		chunk, ok := <-chunks
		if !ok {
			return false
		}
		if _, err := io.WriteString(w, chunk); err != nil {
			return false
		}
		return true
	})
}
