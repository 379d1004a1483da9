package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ListenAddr      string
	DBPath          string
	LogLevel        string
	LogFormat       string
	LogFile         string
	CORSAllowOrigin string

	DetectorBackend     string
	DetectorURL         string
	DetectorModelPath   string
	DetectorModelName   string
	DetectorClassesFile string
	DetectorThreshold   float64
	ConfirmThreshold    float64
	ClaudeAPIKey        string
	ClaudeModel         string
	OllamaHost          string
	OllamaModel         string

	LLMBackend     string
	LLMAPIKey      string
	LLMModel       string
	LLMBaseURL     string
	LLMTemperature float64
	LLMMaxTokens   int

	EmbeddingBackend string
	EmbeddingModel   string
	EmbeddingBaseURL string
	EmbeddingAPIKey  string

	VectorBackend string
	PostgresDSN   string
	RetrievalK    int

	RedisURL string
	CacheTTL time.Duration
}

func Load() *Config {
	cfg := &Config{
		ListenAddr:      getEnv("LISTEN_ADDR", ":8080"),
		DBPath:          getEnv("DB_PATH", "/data/pantrychef.db"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		LogFile:         getEnv("LOG_FILE", ""),
		CORSAllowOrigin: getEnv("CORS_ALLOW_ORIGIN", ""),

		DetectorBackend:     getEnv("DETECTOR_BACKEND", "inference"),
		DetectorURL:         getEnv("DETECTOR_URL", "http://localhost:5000/predict"),
		DetectorModelPath:   getEnv("DETECTOR_MODEL_PATH", "./models/yolov8-food.pt"),
		DetectorModelName:   getEnv("DETECTOR_MODEL_NAME", "yolov8-food"),
		DetectorClassesFile: getEnv("DETECTOR_CLASSES_FILE", ""),
		DetectorThreshold:   getEnvFloat("DETECTOR_THRESHOLD", 0.4),
		ConfirmThreshold:    getEnvFloat("CONFIRM_THRESHOLD", 0.5),
		ClaudeAPIKey:        getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:         getEnv("CLAUDE_MODEL", "claude-opus-4-6"),
		OllamaHost:          getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:         getEnv("OLLAMA_MODEL", "moondream"),

		LLMBackend:     getEnv("LLM_BACKEND", "gemini"),
		LLMBaseURL:     getEnv("LLM_BASE_URL", ""),
		LLMTemperature: getEnvFloat("LLM_TEMPERATURE", 0.3),
		LLMMaxTokens:   getEnvInt("LLM_MAX_TOKENS", 4096),

		EmbeddingBackend: getEnv("EMBEDDING_BACKEND", "ollama"),
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", "all-minilm"),
		EmbeddingBaseURL: getEnv("EMBEDDING_BASE_URL", "http://localhost:11434/v1"),
		EmbeddingAPIKey:  getEnv("EMBEDDING_API_KEY", ""),

		VectorBackend: getEnv("VECTOR_BACKEND", "sqlite"),
		PostgresDSN:   getEnv("POSTGRES_DSN", ""),
		RetrievalK:    getEnvInt("RETRIEVAL_K", 3),

		RedisURL: getEnv("REDIS_URL", ""),
		CacheTTL: getEnvDuration("CACHE_TTL", 24*time.Hour),
	}
	cfg.LLMModel = getEnv("LLM_MODEL", defaultLLMModel(cfg.LLMBackend))
	cfg.LLMAPIKey = getEnv("LLM_API_KEY", fallbackLLMKey(cfg.LLMBackend))
	return cfg
}

// Validate reports the first setting that cannot be used to build the service.
func (c *Config) Validate() error {
	switch c.DetectorBackend {
	case "inference", "claude", "ollama":
	default:
		return fmt.Errorf("unknown DETECTOR_BACKEND %q", c.DetectorBackend)
	}
	switch c.LLMBackend {
	case "gemini", "openai", "ollama", "claude":
	default:
		return fmt.Errorf("unknown LLM_BACKEND %q", c.LLMBackend)
	}
	if err := c.ValidateStore(); err != nil {
		return err
	}
	if c.DetectorBackend == "claude" && c.ClaudeAPIKey == "" {
		return fmt.Errorf("CLAUDE_API_KEY is required when DETECTOR_BACKEND=claude")
	}
	if c.LLMBackend != "ollama" && c.LLMAPIKey == "" {
		return fmt.Errorf("an API key is required when LLM_BACKEND=%s", c.LLMBackend)
	}
	if c.LLMTemperature < 0 || c.LLMTemperature > 2 {
		return fmt.Errorf("LLM_TEMPERATURE must be within [0, 2], got %v", c.LLMTemperature)
	}
	if c.DetectorThreshold < 0 || c.DetectorThreshold > 1 {
		return fmt.Errorf("DETECTOR_THRESHOLD must be within [0, 1], got %v", c.DetectorThreshold)
	}
	if c.ConfirmThreshold < 0 || c.ConfirmThreshold > 1 {
		return fmt.Errorf("CONFIRM_THRESHOLD must be within [0, 1], got %v", c.ConfirmThreshold)
	}
	if c.RetrievalK < 1 {
		return fmt.Errorf("RETRIEVAL_K must be positive, got %d", c.RetrievalK)
	}
	return nil
}

// ValidateStore checks only the settings needed to open and fill the
// reference collection.
func (c *Config) ValidateStore() error {
	switch c.EmbeddingBackend {
	case "ollama", "openai", "gemini":
	default:
		return fmt.Errorf("unknown EMBEDDING_BACKEND %q", c.EmbeddingBackend)
	}
	switch c.VectorBackend {
	case "sqlite":
	case "pgvector":
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required when VECTOR_BACKEND=pgvector")
		}
	default:
		return fmt.Errorf("unknown VECTOR_BACKEND %q", c.VectorBackend)
	}
	return nil
}

func defaultLLMModel(backend string) string {
	switch backend {
	case "openai":
		return "gpt-4o-mini"
	case "ollama":
		return "llama3.1"
	case "claude":
		return "claude-opus-4-6"
	default:
		return "gemini-2.5-flash"
	}
}

// fallbackLLMKey picks up the provider's conventional key variable so an
// existing .env works without LLM_API_KEY.
func fallbackLLMKey(backend string) string {
	switch backend {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "claude":
		return os.Getenv("CLAUDE_API_KEY")
	case "gemini":
		return os.Getenv("GOOGLE_API_KEY")
	default:
		return ""
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvInt(key string, defaultVal int) int {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
