package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	RedisURL    string
	JWTSecret   string
	ServerPort  string

	EmbeddingURL    string
	EmbeddingModel  string
	EmbeddingAPIKey string
	GenerationURL   string

	IndexPath string
	DocsDir   string

	ChunkMaxTokens     int
	ChunkOverlapTokens int
	ChunkMinTokens     int
}

func Load() (*Config, error) {
	godotenv.Load()

	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", "secret"),
		ServerPort:  getEnv("SERVER_PORT", "8080"),

		EmbeddingURL:    getEnv("EMBEDDING_URL", "http://localhost:5000"),
		EmbeddingModel:  getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingAPIKey: getEnv("EMBEDDING_API_KEY", ""),
		GenerationURL:   getEnv("GENERATION_URL", ""),

		IndexPath: getEnv("INDEX_PATH", "data/index.json"),
		DocsDir:   getEnv("DOCS_DIR", "docs"),

		ChunkMaxTokens:     getEnvInt("CHUNK_MAX_TOKENS", 300),
		ChunkOverlapTokens: getEnvInt("CHUNK_OVERLAP_TOKENS", 30),
		ChunkMinTokens:     getEnvInt("CHUNK_MIN_TOKENS", 40),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultVal
}
