package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Ai        AIConfig
	Cluster   ClusterConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	IngestTopic        string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini" or "ollama"
	GeminiAPIKey      string
	OllamaBaseURL     string
	OllamaModel       string
}

// ClusterConfig holds the adaptive threshold curve parameters.
// The similarity required to join a topic is min(Max, Base + Slope*ln(1+n))
// where n is the number of ideas already in the discussion.
type ClusterConfig struct {
	ThresholdBase  float64
	ThresholdSlope float64
	ThresholdMax   float64
	CandidateLimit int
}

type RateLimitConfig struct {
	MaxSubmissions int // per submitter per window
	WindowSeconds  int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			IngestTopic:        getEnv("CLUSTER_IDEA_TOPIC_NAME", "CLUSTER_IDEA"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			GeminiAPIKey:      getEnv("GOOGLE_GEMINI_API_KEY", ""),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
		},
		Cluster: ClusterConfig{
			ThresholdBase:  getEnvAsFloat("CLUSTER_THRESHOLD_BASE", 0.55),
			ThresholdSlope: getEnvAsFloat("CLUSTER_THRESHOLD_SLOPE", 0.03),
			ThresholdMax:   getEnvAsFloat("CLUSTER_THRESHOLD_MAX", 0.80),
			CandidateLimit: getEnvAsInt("CLUSTER_CANDIDATE_LIMIT", 10),
		},
		RateLimit: RateLimitConfig{
			MaxSubmissions: getEnvAsInt("RATE_LIMIT_MAX_SUBMISSIONS", 10),
			WindowSeconds:  getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
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
