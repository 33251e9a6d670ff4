package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	LogLevel string

	DBPath         string
	MigrationsPath string
	BackupDir      string

	// S3
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3BucketName      string
	S3UseSSL          bool

	// Embeddings
	OllamaURL      string
	EmbeddingModel string
	EmbeddingDim   int

	// Processing limits
	MaxFileSize int64
	ChunkSize   int

	RateLimitEnabled bool
}

func Load() (*Config, error) {
	// .env is optional; deployed environments set variables directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBPath:         getEnv("DB_PATH", "./data/school_content.db"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "internal/db/migrations"),
		BackupDir:      getEnv("BACKUP_DIR", "./data/backups"),

		S3Endpoint:        getEnv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", "minioadmin"),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", "minioadmin"),
		S3BucketName:      getEnv("S3_BUCKET_NAME", "school-documents"),
		S3UseSSL:          getEnvBool("S3_USE_SSL", false),

		OllamaURL:      getEnv("OLLAMA_URL", "http://localhost:11434"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
		EmbeddingDim:   getEnvInt("EMBEDDING_DIM", 384),

		MaxFileSize: getEnvInt64("MAX_FILE_SIZE", 50*1024*1024),
		ChunkSize:   getEnvInt("CHUNK_SIZE", 1000),

		RateLimitEnabled: getEnvBool("RATE_LIMIT_ENABLED", true),
	}

	if cfg.EmbeddingDim <= 0 {
		return nil, fmt.Errorf("EMBEDDING_DIM must be positive, got %d", cfg.EmbeddingDim)
	}
	if cfg.MaxFileSize <= 0 {
		return nil, fmt.Errorf("MAX_FILE_SIZE must be positive, got %d", cfg.MaxFileSize)
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
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
