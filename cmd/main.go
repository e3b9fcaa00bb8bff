package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rag-chatbot-platform/internal/ai"
	"rag-chatbot-platform/internal/config"
	"rag-chatbot-platform/internal/logger"
	"rag-chatbot-platform/internal/telemetry"
	"rag-chatbot-platform/internal/vectorstore"
	"rag-chatbot-platform/middleware"
	"rag-chatbot-platform/routes"
	"rag-chatbot-platform/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Tracing and metrics
	shutdownTracer, err := telemetry.InitTracer("rag-chatbot-platform")
	if err != nil {
		logger.Warn("Tracing disabled", "error", err)
	} else {
		defer shutdownTracer()
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Warn("Metrics disabled", "error", err)
	}

	// Connect to MongoDB
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

	// Connect to Redis (rate limiting); a failure here is non-fatal since
	// the limiter fails open
	redisClient, err := config.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, rate limiting disabled", "error", err)
		redisClient = nil
	}

	// Model and vector-store clients
	embedder, err := ai.NewEmbeddingClient(cfg)
	if err != nil {
		log.Fatal("Failed to initialize embeddings:", err)
	}
	llm := ai.NewOllamaClient(cfg)
	osClient := vectorstore.NewClient(cfg.OpenSearchURL, cfg.OpenSearchUser, cfg.OpenSearchPassword, embedder)
	registry := vectorstore.NewRegistry(osClient)

	// Services
	db := mongoClient.Database(cfg.DBName)
	catalogService := services.NewCatalogService(db)
	exportService := services.NewExportService(catalogService)
	splitter := services.NewTextSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	ingestService := services.NewIngestionService(registry, splitter, catalogService, metrics, cfg.IndexBatchSize)
	ragService := services.NewRAGService(registry, llm, metrics, cfg.HistoryTopK, cfg.DocumentTopK)

	// Periodic dependency probes backing /ready
	healthMonitor := services.NewHealthMonitor(embedder, osClient)
	if err := healthMonitor.Start(time.Duration(cfg.HealthProbeInterval) * time.Second); err != nil {
		logger.Warn("Health monitor failed to start", "error", err)
	}
	defer healthMonitor.Stop()

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.EnrichTrace())
	if metrics != nil {
		router.Use(middleware.MetricsMiddleware(metrics))
	}
	if redisClient != nil {
		router.Use(middleware.RateLimitMiddleware(redisClient, cfg))
	}

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Requested-With"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	// Health check endpoints
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})
	router.GET("/ready", func(c *gin.Context) {
		status := healthMonitor.Status()
		code := http.StatusOK
		if !status.EmbeddingService || !status.VectorStore {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"embedding_service": status.EmbeddingService,
			"vector_store":      status.VectorStore,
			"checked_at":        status.CheckedAt,
		})
	})

	// Setup routes
	routes.SetupAskRoutes(router, ragService)
	routes.SetupIngestRoutes(router, cfg, registry, ingestService, catalogService, exportService)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
