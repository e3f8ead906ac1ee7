package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	Auth     AuthConfig
}

type AppConfig struct {
	Port               string
	StoreURL           string // storefront base used for product links
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string // empty disables event publishing
	RedisURL           string // empty disables the embedding cache
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	ProductIndexTopic string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini", "jina" or "ollama"
	EmbeddingBaseURL  string
	EmbeddingModel    string
	EmbeddingKeys     []string // low-cost pool, also used for classification
	OllamaBaseURL     string
	OllamaModel       string

	LLMProvider     string // "gemini", "ollama" or "huggingface"
	LLMBaseURL      string
	PrimaryKeys     []string
	PrimaryModels   []string
	SecondaryKeys   []string
	SecondaryModels []string
	CheapModels     []string // models tried on the embedding pool for classification

	AttemptTimeout    time.Duration
	RetrievalTopK     int
	RetrievalMinScore float64
	HistoryLimit      int
	CorpusCacheTTL    time.Duration
	EmbeddingCacheTTL time.Duration
}

type AuthConfig struct {
	JWTSecret string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			StoreURL:           getEnv("STORE_BASE_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			ProductIndexTopic: getEnv("PRODUCT_INDEX_TOPIC_NAME", "PRODUCT_INDEX"),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			EmbeddingBaseURL:  getEnv("EMBEDDING_BASE_URL", ""),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", ""),
			EmbeddingKeys:     getEnvAsList("EMBEDDING_API_KEYS", nil),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),

			LLMProvider:     getEnv("LLM_PROVIDER", "gemini"),
			LLMBaseURL:      getEnv("LLM_BASE_URL", ""),
			PrimaryKeys:     getEnvAsList("LLM_PRIMARY_API_KEYS", nil),
			PrimaryModels:   getEnvAsList("LLM_PRIMARY_MODELS", []string{"gemini-2.5-flash", "gemini-2.0-flash"}),
			SecondaryKeys:   getEnvAsList("LLM_SECONDARY_API_KEYS", nil),
			SecondaryModels: getEnvAsList("LLM_SECONDARY_MODELS", []string{"gemini-2.0-flash-lite"}),
			CheapModels:     getEnvAsList("LLM_CHEAP_MODELS", []string{"gemini-2.0-flash-lite"}),

			AttemptTimeout:    getEnvAsDuration("LLM_ATTEMPT_TIMEOUT", 30*time.Second),
			RetrievalTopK:     getEnvAsInt("RETRIEVAL_TOP_K", 5),
			RetrievalMinScore: getEnvAsFloat("RETRIEVAL_MIN_SCORE", 0),
			HistoryLimit:      getEnvAsInt("CHAT_HISTORY_LIMIT", 10),
			CorpusCacheTTL:    getEnvAsDuration("CORPUS_CACHE_TTL", 5*time.Minute),
			EmbeddingCacheTTL: getEnvAsDuration("EMBEDDING_CACHE_TTL", 24*time.Hour),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("45s") or plain seconds ("45").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key string, fallback []string) []string {
	strValue := getEnv(key, "")
	var out []string
	for _, part := range strings.Split(strValue, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
