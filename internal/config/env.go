package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Chunking
	TargetTokens  int
	OverlapTokens int
	Tokenizer     string

	// Embedding
	EmbedProvider  string // "openai" | "gemini"
	OpenAIAPIKey   string
	GeminiAPIKey   string
	EmbedModel     string
	EmbedDim       int
	EmbedBatchSize int
	EmbedTimeout   time.Duration

	// Vector store
	VectorBackend   string // "qdrant" | "pgvector"
	QdrantHost      string
	QdrantPort      int
	QdrantAPIKey    string
	CollectionName  string
	DistanceMetric  string
	UpsertBatchSize int
	UpsertTimeout   time.Duration

	// History
	HistoryBackend string // "memory" | "postgres"
	DatabaseURL    string

	// Batch processing
	IngestConcurrency int

	// Optional raw-upload archive
	ArchiveBucket string
	AwsAccessKey  string
	AwsSecretKey  string
	AwsRegion     string
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		TargetTokens:  getEnvInt("TARGET_TOKENS", 500),
		OverlapTokens: getEnvInt("OVERLAP_TOKENS", 50),
		Tokenizer:     getEnv("TOKENIZER", "cl100k_base"),

		EmbedProvider:  getEnv("EMBED_PROVIDER", "openai"),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		EmbedModel:     getEnv("EMBED_MODEL", "text-embedding-3-small"),
		EmbedDim:       getEnvInt("EMBED_DIM", 1536),
		EmbedBatchSize: getEnvInt("EMBED_BATCH_SIZE", 50),
		EmbedTimeout:   getEnvDuration("EMBED_TIMEOUT", 30*time.Second),

		VectorBackend:   getEnv("VECTOR_BACKEND", "qdrant"),
		QdrantHost:      getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:      getEnvInt("QDRANT_PORT", 6334),
		QdrantAPIKey:    getEnv("QDRANT_API_KEY", ""),
		CollectionName:  getEnv("COLLECTION_NAME", "tax_knowledge_base"),
		DistanceMetric:  getEnv("DISTANCE_METRIC", "Cosine"),
		UpsertBatchSize: getEnvInt("UPSERT_BATCH_SIZE", 100),
		UpsertTimeout:   getEnvDuration("UPSERT_TIMEOUT", 30*time.Second),

		HistoryBackend: getEnv("HISTORY_BACKEND", "memory"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),

		IngestConcurrency: getEnvInt("INGEST_CONCURRENCY", 4),

		ArchiveBucket: getEnv("ARCHIVE_BUCKET", ""),
		AwsAccessKey:  getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey:  getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:     getEnv("AWS_REGION", "us-east-2"),
	}

	if cfg.HistoryBackend == "postgres" && cfg.DatabaseURL == "" {
		log.Fatal("HISTORY_BACKEND=postgres but DATABASE_URL not set")
	}
	if cfg.OverlapTokens >= cfg.TargetTokens {
		log.Fatalf("OVERLAP_TOKENS (%d) must be smaller than TARGET_TOKENS (%d)",
			cfg.OverlapTokens, cfg.TargetTokens)
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a duration, using default %s", key, v, def)
		return def
	}
	return d
}
