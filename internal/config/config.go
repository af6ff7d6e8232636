package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Routing  RoutingConfig
	Context  ContextConfig
	Session  SessionConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini" or "ollama"
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string
	LLMModel          string
	GeminiAPIKey      string
	JinaAPIKey        string // empty disables reranking
	GenerationTimeout time.Duration
}

// RoutingConfig carries the confidence bands. Band edges must stay
// contiguous; Validate in pkg/rag rejects broken orderings at startup.
type RoutingConfig struct {
	HighThreshold        float64
	MediumHighThreshold  float64
	MediumThreshold      float64
	VeryHighGate         float64
	MinContextConfidence float64
	SearchTopK           int
	SearchScoreFloor     float64
}

type ContextConfig struct {
	BudgetChars      int
	MaxChunksPerFile int
}

type SessionConfig struct {
	Backend       string // "memory" or "redis"
	TTL           time.Duration
	SweepInterval time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "qwen2.5"),
			GeminiAPIKey:      getEnv("GOOGLE_GEMINI_API_KEY", ""),
			JinaAPIKey:        getEnv("JINA_API_KEY", ""),
			GenerationTimeout: getEnvAsDuration("GENERATION_TIMEOUT", 30*time.Second),
		},
		Routing: RoutingConfig{
			HighThreshold:        getEnvAsFloat("ROUTING_HIGH_THRESHOLD", 0.80),
			MediumHighThreshold:  getEnvAsFloat("ROUTING_MEDIUM_HIGH_THRESHOLD", 0.65),
			MediumThreshold:      getEnvAsFloat("ROUTING_MEDIUM_THRESHOLD", 0.50),
			VeryHighGate:         getEnvAsFloat("ROUTING_VERY_HIGH_GATE", 0.82),
			MinContextConfidence: getEnvAsFloat("ROUTING_MIN_CONTEXT_CONFIDENCE", 0.78),
			SearchTopK:           getEnvAsInt("SEARCH_TOP_K", 10),
			SearchScoreFloor:     getEnvAsFloat("SEARCH_SCORE_FLOOR", 0.35),
		},
		Context: ContextConfig{
			BudgetChars:      getEnvAsInt("CONTEXT_BUDGET_CHARS", 6000),
			MaxChunksPerFile: getEnvAsInt("CONTEXT_MAX_CHUNKS_PER_FILE", 4),
		},
		Session: SessionConfig{
			Backend:       getEnv("SESSION_BACKEND", "memory"),
			TTL:           getEnvAsDuration("SESSION_TTL", 1*time.Hour),
			SweepInterval: getEnvAsDuration("SESSION_SWEEP_INTERVAL", 10*time.Minute),
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

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
