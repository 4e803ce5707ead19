package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIPort  string `yaml:"api_port"`
	LogLevel string `yaml:"log_level"`

	OllamaURL         string `yaml:"ollama_url"`
	OllamaChatModel   string `yaml:"ollama_chat_model"`
	OllamaEmbedModel  string `yaml:"ollama_embed_model"`
	OllamaVisionModel string `yaml:"ollama_vision_model"`

	RerankerURL string `yaml:"reranker_url"`

	RetrievalTopK   int `yaml:"retrieval_top_k"`
	RerankTopN      int `yaml:"rerank_top_n"`
	ChunkPercentile int `yaml:"chunk_percentile"`

	SessionTTLSeconds int `yaml:"session_ttl_seconds"`
	MaxSessions       int `yaml:"max_sessions"`

	StoragePath  string `yaml:"storage_path"`
	SnapshotPath string `yaml:"snapshot_path"`

	NATSURL           string `yaml:"nats_url"`
	NATSSubjectPrefix string `yaml:"nats_subject_prefix"`

	PostgresDSN string `yaml:"postgres_dsn"`

	RateLimitRPS      int `yaml:"rate_limit_rps"`
	RateLimitBurst    int `yaml:"rate_limit_burst"`
	BackpressureLimit int `yaml:"backpressure_limit"`
	MaxConnections    int `yaml:"max_connections"`
}

// Load reads configuration from the environment. If CONFIG_FILE points at a
// YAML file, its values are applied first and the environment overrides them.
func Load() (Config, error) {
	cfg := Config{
		APIPort:  "8080",
		LogLevel: "info",

		OllamaURL:         "http://localhost:11434",
		OllamaChatModel:   "llama3.1:8b",
		OllamaEmbedModel:  "bge-m3",
		OllamaVisionModel: "llava",

		RerankerURL: "",

		RetrievalTopK:   10,
		RerankTopN:      3,
		ChunkPercentile: 95,

		SessionTTLSeconds: 3600,
		MaxSessions:       1024,

		StoragePath:  "./data/uploads",
		SnapshotPath: "./data/snapshots",

		NATSURL:           "",
		NATSSubjectPrefix: "sessions",

		PostgresDSN: "",

		RateLimitRPS:      20,
		RateLimitBurst:    40,
		BackpressureLimit: 64,
		MaxConnections:    256,
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.APIPort = mustEnv("API_PORT", cfg.APIPort)
	cfg.LogLevel = mustEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.OllamaURL = mustEnv("OLLAMA_URL", cfg.OllamaURL)
	cfg.OllamaChatModel = mustEnv("OLLAMA_CHAT_MODEL", cfg.OllamaChatModel)
	cfg.OllamaEmbedModel = mustEnv("OLLAMA_EMBED_MODEL", cfg.OllamaEmbedModel)
	cfg.OllamaVisionModel = mustEnv("OLLAMA_VISION_MODEL", cfg.OllamaVisionModel)

	cfg.RerankerURL = mustEnv("RERANKER_URL", cfg.RerankerURL)

	cfg.RetrievalTopK = mustEnvInt("RETRIEVAL_TOP_K", cfg.RetrievalTopK)
	cfg.RerankTopN = mustEnvInt("RERANK_TOP_N", cfg.RerankTopN)
	cfg.ChunkPercentile = mustEnvInt("CHUNK_PERCENTILE", cfg.ChunkPercentile)

	cfg.SessionTTLSeconds = mustEnvInt("SESSION_TTL_SECONDS", cfg.SessionTTLSeconds)
	cfg.MaxSessions = mustEnvInt("MAX_SESSIONS", cfg.MaxSessions)

	cfg.StoragePath = mustEnv("STORAGE_PATH", cfg.StoragePath)
	cfg.SnapshotPath = mustEnv("SNAPSHOT_PATH", cfg.SnapshotPath)

	cfg.NATSURL = mustEnv("NATS_URL", cfg.NATSURL)
	cfg.NATSSubjectPrefix = mustEnv("NATS_SUBJECT_PREFIX", cfg.NATSSubjectPrefix)

	cfg.PostgresDSN = mustEnv("POSTGRES_DSN", cfg.PostgresDSN)

	cfg.RateLimitRPS = mustEnvInt("RATE_LIMIT_RPS", cfg.RateLimitRPS)
	cfg.RateLimitBurst = mustEnvInt("RATE_LIMIT_BURST", cfg.RateLimitBurst)
	cfg.BackpressureLimit = mustEnvInt("BACKPRESSURE_LIMIT", cfg.BackpressureLimit)
	cfg.MaxConnections = mustEnvInt("MAX_CONNECTIONS", cfg.MaxConnections)

	return cfg, nil
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
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
