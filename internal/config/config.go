package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	APIPort  string
	LogLevel string

	HoldingsPath string
	TradesPath   string

	GeminiAPIKey     string
	GeminiGenModel   string
	GeminiEmbedModel string

	PineconeHost   string
	PineconeAPIKey string

	// PostgresDSN enables the query audit log when set.
	PostgresDSN string

	// NATSURL enables the reindex trigger queue when set.
	NATSURL     string
	NATSSubject string

	ChunkMaxTokens int
	ChunkOverlap   int
	RetrievalTopK  int

	AnswerTimeoutSeconds int

	RateLimitRPS   float64
	RateLimitBurst int

	// MaxInFlight caps concurrent requests; callers over the cap wait up
	// to BackpressureWaitMs before a 503.
	MaxInFlight        int
	BackpressureWaitMs int

	IndexerMetricsPort string
}

// Load reads configuration from (in rising priority) the optional YAML
// file named by CONFIG_PATH, a .env file in the working directory, and
// the process environment. Required keys without defaults (the API keys)
// stay empty when unset; startup validates them.
func Load() Config {
	_ = godotenv.Load()

	fromFile := loadFile(os.Getenv("CONFIG_PATH"))

	return Config{
		APIPort:  env("API_PORT", fromFile.APIPort, "8080"),
		LogLevel: env("LOG_LEVEL", fromFile.LogLevel, "info"),

		HoldingsPath: env("HOLDINGS_PATH", fromFile.HoldingsPath, "./data/holdings.csv"),
		TradesPath:   env("TRADES_PATH", fromFile.TradesPath, "./data/trades.csv"),

		GeminiAPIKey:     env("GEMINI_API_KEY", fromFile.GeminiAPIKey, ""),
		GeminiGenModel:   env("GEMINI_GEN_MODEL", fromFile.GeminiGenModel, "gemini-2.5-flash"),
		GeminiEmbedModel: env("GEMINI_EMBED_MODEL", fromFile.GeminiEmbedModel, "text-embedding-004"),

		PineconeHost:   env("PINECONE_HOST", fromFile.PineconeHost, ""),
		PineconeAPIKey: env("PINECONE_API_KEY", fromFile.PineconeAPIKey, ""),

		PostgresDSN: env("POSTGRES_DSN", fromFile.PostgresDSN, ""),

		NATSURL:     env("NATS_URL", fromFile.NATSURL, ""),
		NATSSubject: env("NATS_SUBJECT", fromFile.NATSSubject, "fundchat.reindex"),

		ChunkMaxTokens: envInt("CHUNK_MAX_TOKENS", 500),
		ChunkOverlap:   envInt("CHUNK_OVERLAP", 50),
		RetrievalTopK:  envInt("RETRIEVAL_TOP_K", 10),

		AnswerTimeoutSeconds: envInt("ANSWER_TIMEOUT_SECONDS", 60),

		RateLimitRPS:   envFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: envInt("RATE_LIMIT_BURST", 10),

		MaxInFlight:        envInt("MAX_IN_FLIGHT", 32),
		BackpressureWaitMs: envInt("BACKPRESSURE_WAIT_MS", 200),

		IndexerMetricsPort: env("INDEXER_METRICS_PORT", "", "9090"),
	}
}

// Validate reports the configuration gaps that make serving impossible.
func (c Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.PineconeAPIKey == "" {
		return fmt.Errorf("PINECONE_API_KEY is required")
	}
	if c.PineconeHost == "" {
		return fmt.Errorf("PINECONE_HOST is required")
	}
	return nil
}

func (c Config) AnswerTimeout() time.Duration {
	return time.Duration(c.AnswerTimeoutSeconds) * time.Second
}

func (c Config) BackpressureWait() time.Duration {
	return time.Duration(c.BackpressureWaitMs) * time.Millisecond
}

// fileConfig is the YAML shape of the optional config file. Only string
// settings may come from the file; tunables stay env-only.
type fileConfig struct {
	APIPort          string `yaml:"api_port"`
	LogLevel         string `yaml:"log_level"`
	HoldingsPath     string `yaml:"holdings_path"`
	TradesPath       string `yaml:"trades_path"`
	GeminiAPIKey     string `yaml:"gemini_api_key"`
	GeminiGenModel   string `yaml:"gemini_gen_model"`
	GeminiEmbedModel string `yaml:"gemini_embed_model"`
	PineconeHost     string `yaml:"pinecone_host"`
	PineconeAPIKey   string `yaml:"pinecone_api_key"`
	PostgresDSN      string `yaml:"postgres_dsn"`
	NATSURL          string `yaml:"nats_url"`
	NATSSubject      string `yaml:"nats_subject"`
}

func loadFile(path string) fileConfig {
	var out fileConfig
	if path == "" {
		return out
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return out
	}
	_ = yaml.Unmarshal(raw, &out)
	return out
}

func env(key, fileValue, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if fileValue != "" {
		return fileValue
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
