package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr string `yaml:"http_addr"`
	LogLevel string `yaml:"log_level"`

	APIAuthToken      string `yaml:"api_auth_token"`
	APIRateLimitRPS   int    `yaml:"api_rate_limit_rps"`
	APIRateLimitBurst int    `yaml:"api_rate_limit_burst"`
	APIMaxInFlight    int    `yaml:"api_max_in_flight"`
	APIMaxConns       int    `yaml:"api_max_conns"`

	VectorProvider    string `yaml:"vector_provider"`
	ChromemPath       string `yaml:"chromem_path"`
	ChromemCollection string `yaml:"chromem_collection"`
	ChromemCompress   bool   `yaml:"chromem_compress"`
	QdrantURL         string `yaml:"qdrant_url"`
	QdrantCollection  string `yaml:"qdrant_collection"`

	EmbedModel     string `yaml:"embed_model"`
	EmbedCacheDir  string `yaml:"embed_cache_dir"`
	EmbedMaxLength int    `yaml:"embed_max_length"`
	EmbedBatchSize int    `yaml:"embed_batch_size"`

	RetrievalTopK          int     `yaml:"retrieval_top_k"`
	RetrievalMaxK          int     `yaml:"retrieval_max_k"`
	RetrievalMinSimilarity float64 `yaml:"retrieval_min_similarity"`

	HistoryMaxTurns     int `yaml:"history_max_turns"`
	HistoryTurnMaxChars int `yaml:"history_turn_max_chars"`
	ContextMaxChars     int `yaml:"context_max_chars"`
	ContextDocMaxChars  int `yaml:"context_doc_max_chars"`
	ContextMaxDocs      int `yaml:"context_max_docs"`

	GeminiAPIKey  string `yaml:"gemini_api_key"`
	GeminiBaseURL string `yaml:"gemini_base_url"`
	GeminiModel   string `yaml:"gemini_model"`

	HFToken   string `yaml:"hf_token"`
	HFBaseURL string `yaml:"hf_base_url"`
	HFModel   string `yaml:"hf_model"`

	GenerationTimeout  time.Duration `yaml:"generation_timeout"`
	GenerationMinChars int           `yaml:"generation_min_chars"`

	CorpusSource string `yaml:"corpus_source"`
	CorpusPath   string `yaml:"corpus_path"`
	PostgresDSN  string `yaml:"postgres_dsn"`

	NATSURL string `yaml:"nats_url"`

	WorkerMetricsAddr string `yaml:"worker_metrics_addr"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Load resolves configuration in three layers: built-in defaults, then the
// optional YAML file named by CONFIG_FILE, then environment variables.
// Later layers win.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func defaults() Config {
	return Config{
		HTTPAddr: ":8080",
		LogLevel: "info",

		APIRateLimitRPS:   10,
		APIRateLimitBurst: 20,
		APIMaxInFlight:    64,
		APIMaxConns:       256,

		VectorProvider:    "chromem",
		ChromemPath:       "data/chromem",
		ChromemCollection: "burkina_culture",
		ChromemCompress:   true,
		QdrantURL:         "http://localhost:6333",
		QdrantCollection:  "burkina_culture",

		EmbedModel:     "sentence-transformers/all-MiniLM-L6-v2",
		EmbedCacheDir:  "data/models",
		EmbedMaxLength: 512,
		EmbedBatchSize: 32,

		RetrievalTopK:          5,
		RetrievalMaxK:          20,
		RetrievalMinSimilarity: 0.30,

		HistoryMaxTurns:     10,
		HistoryTurnMaxChars: 150,
		ContextMaxChars:     4000,
		ContextDocMaxChars:  500,
		ContextMaxDocs:      3,

		GeminiBaseURL: "https://generativelanguage.googleapis.com",
		GeminiModel:   "gemini-2.5-flash",

		HFBaseURL: "https://api-inference.huggingface.co",
		HFModel:   "mistralai/Mistral-7B-Instruct-v0.2",

		GenerationTimeout:  30 * time.Second,
		GenerationMinChars: 30,

		CorpusSource: "file",
		CorpusPath:   "data/corpus.json",

		NATSURL: "nats://localhost:4222",

		WorkerMetricsAddr: ":9090",

		ShutdownTimeout: 10 * time.Second,
	}
}

func (c *Config) applyEnv() {
	c.HTTPAddr = mustEnv("HTTP_ADDR", c.HTTPAddr)
	c.LogLevel = mustEnv("LOG_LEVEL", c.LogLevel)

	c.APIAuthToken = mustEnv("API_AUTH_TOKEN", c.APIAuthToken)
	c.APIRateLimitRPS = mustEnvInt("API_RATE_LIMIT_RPS", c.APIRateLimitRPS)
	c.APIRateLimitBurst = mustEnvInt("API_RATE_LIMIT_BURST", c.APIRateLimitBurst)
	c.APIMaxInFlight = mustEnvInt("API_MAX_IN_FLIGHT", c.APIMaxInFlight)
	c.APIMaxConns = mustEnvInt("API_MAX_CONNS", c.APIMaxConns)

	c.VectorProvider = mustEnv("VECTOR_PROVIDER", c.VectorProvider)
	c.ChromemPath = mustEnv("CHROMEM_PATH", c.ChromemPath)
	c.ChromemCollection = mustEnv("CHROMEM_COLLECTION", c.ChromemCollection)
	c.ChromemCompress = mustEnvBool("CHROMEM_COMPRESS", c.ChromemCompress)
	c.QdrantURL = mustEnv("QDRANT_URL", c.QdrantURL)
	c.QdrantCollection = mustEnv("QDRANT_COLLECTION", c.QdrantCollection)

	c.EmbedModel = mustEnv("EMBED_MODEL", c.EmbedModel)
	c.EmbedCacheDir = mustEnv("EMBED_CACHE_DIR", c.EmbedCacheDir)
	c.EmbedMaxLength = mustEnvInt("EMBED_MAX_LENGTH", c.EmbedMaxLength)
	c.EmbedBatchSize = mustEnvInt("EMBED_BATCH_SIZE", c.EmbedBatchSize)

	c.RetrievalTopK = mustEnvInt("RETRIEVAL_TOP_K", c.RetrievalTopK)
	c.RetrievalMaxK = mustEnvInt("RETRIEVAL_MAX_K", c.RetrievalMaxK)
	c.RetrievalMinSimilarity = mustEnvFloat("RETRIEVAL_MIN_SIMILARITY", c.RetrievalMinSimilarity)

	c.HistoryMaxTurns = mustEnvInt("HISTORY_MAX_TURNS", c.HistoryMaxTurns)
	c.HistoryTurnMaxChars = mustEnvInt("HISTORY_TURN_MAX_CHARS", c.HistoryTurnMaxChars)
	c.ContextMaxChars = mustEnvInt("CONTEXT_MAX_CHARS", c.ContextMaxChars)
	c.ContextDocMaxChars = mustEnvInt("CONTEXT_DOC_MAX_CHARS", c.ContextDocMaxChars)
	c.ContextMaxDocs = mustEnvInt("CONTEXT_MAX_DOCS", c.ContextMaxDocs)

	c.GeminiAPIKey = mustEnv("GEMINI_API_KEY", c.GeminiAPIKey)
	c.GeminiBaseURL = mustEnv("GEMINI_BASE_URL", c.GeminiBaseURL)
	c.GeminiModel = mustEnv("GEMINI_MODEL", c.GeminiModel)

	c.HFToken = mustEnv("HF_TOKEN", c.HFToken)
	c.HFBaseURL = mustEnv("HF_BASE_URL", c.HFBaseURL)
	c.HFModel = mustEnv("HF_MODEL", c.HFModel)

	c.GenerationTimeout = mustEnvDuration("GENERATION_TIMEOUT", c.GenerationTimeout)
	c.GenerationMinChars = mustEnvInt("GENERATION_MIN_CHARS", c.GenerationMinChars)

	c.CorpusSource = mustEnv("CORPUS_SOURCE", c.CorpusSource)
	c.CorpusPath = mustEnv("CORPUS_PATH", c.CorpusPath)
	c.PostgresDSN = mustEnv("POSTGRES_DSN", c.PostgresDSN)

	c.NATSURL = mustEnv("NATS_URL", c.NATSURL)

	c.WorkerMetricsAddr = mustEnv("WORKER_METRICS_ADDR", c.WorkerMetricsAddr)

	c.ShutdownTimeout = mustEnvDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
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

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}
