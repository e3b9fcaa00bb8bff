package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	// Ollama model server
	OllamaURL          string
	EmbeddingModel     string
	LLMModel           string
	MultimodalModel    string
	EmbeddingTimeout   time.Duration
	GenerationTimeout  time.Duration
	EmbeddingDimension int

	// Alternative embeddings provider ("ollama" default, "google")
	EmbeddingsProvider    string
	GeminiAPIKey          string
	GoogleEmbeddingsModel string

	// OpenSearch vector store
	OpenSearchURL      string
	OpenSearchUser     string
	OpenSearchPassword string

	// Chunking / retrieval
	ChunkSize      int
	ChunkOverlap   int
	HistoryTopK    int
	DocumentTopK   int
	IndexBatchSize int

	// Upload limits
	MaxFileSize int64

	// Document catalog (MongoDB)
	MongoURI string
	DBName   string

	// Redis Configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	RateLimitReqs   int
	RateLimitWindow int

	// Dependency health probe interval in seconds
	HealthProbeInterval int
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8001"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8001"), ","),

		OllamaURL:          getEnv("OLLAMA_URL", "http://localhost:11434"),
		EmbeddingModel:     getEnv("EMBEDDING_MODEL", "all-minilm:22m"),
		LLMModel:           getEnv("LLM_MODEL", "deepseek-r1:1.5b"),
		MultimodalModel:    getEnv("MULTIMODAL_MODEL", "gemma3:4b"),
		EmbeddingTimeout:   time.Duration(getEnvInt("EMBEDDING_TIMEOUT", 30)) * time.Second,
		GenerationTimeout:  time.Duration(getEnvInt("GENERATION_TIMEOUT", 300)) * time.Second,
		EmbeddingDimension: getEnvInt("EMBEDDING_DIM", 384),

		EmbeddingsProvider:    getEnv("EMBEDDINGS_PROVIDER", "ollama"),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),

		OpenSearchURL:      getEnv("OPENSEARCH_URL", "http://localhost:9200"),
		OpenSearchUser:     getEnv("OPENSEARCH_USER", "admin"),
		OpenSearchPassword: getEnv("OPENSEARCH_PASSWORD", ""),

		ChunkSize:      getEnvInt("CHUNK_SIZE", 1200),
		ChunkOverlap:   getEnvInt("CHUNK_OVERLAP", 120),
		HistoryTopK:    getEnvInt("HISTORY_TOP_K", 3),
		DocumentTopK:   getEnvInt("DOCUMENT_TOP_K", 10),
		IndexBatchSize: getEnvInt("INDEX_BATCH_SIZE", 100),

		MaxFileSize: getEnvInt64("MAX_FILE_SIZE", 104857600), // 100MB

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017/rag_chatbot"),
		DBName:   getEnv("DB_NAME", "rag_chatbot"),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		HealthProbeInterval: getEnvInt("HEALTH_PROBE_INTERVAL", 120),
	}

	// Validate required fields
	if cfg.EmbeddingsProvider == "google" && cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required when EMBEDDINGS_PROVIDER=google - set it in .env file")
	}

	if cfg.EmbeddingDimension <= 0 {
		return nil, fmt.Errorf("EMBEDDING_DIM must be positive")
	}

	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP must be smaller than CHUNK_SIZE")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
