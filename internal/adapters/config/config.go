package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"tachi/pkg/errors"
)

type Config struct {
	App           AppConfig
	API           APIConfig
	AI            AIConfig
	Analysis      AnalysisConfig
	JobStore      JobStoreConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	ErrorTracking ErrorTrackingConfig
	Workers       WorkerConfig
	Tools         ToolsConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"tachi"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type APIConfig struct {
	Host string `envconfig:"API_HOST" default:"0.0.0.0"`
	Port int    `envconfig:"API_PORT" default:"8001"`
}

// AIConfig carries provider credentials, the active provider selection,
// per-role model overrides, and per-provider rate limits.
// A rate limit of 0 means unconstrained.
type AIConfig struct {
	ActiveProvider string `envconfig:"LLM_PROVIDER" default:"ollama"`

	OllamaBaseURL string `envconfig:"OLLAMA_BASE_URL" default:"http://localhost:11434"`
	OpenRouterKey string `envconfig:"OPENROUTER_API_KEY"`
	GroqKey       string `envconfig:"GROQ_API_KEY"`
	ClaudeKey     string `envconfig:"ANTHROPIC_API_KEY"`
	OpenAIKey     string `envconfig:"OPENAI_API_KEY"`
	GeminiKey     string `envconfig:"GEMINI_API_KEY"`

	// Per-role model overrides. Accept either a bare model name or an
	// explicit "provider/model" binding.
	StrategistModel string `envconfig:"STRATEGIST_MODEL"`
	AnalystModel    string `envconfig:"ANALYST_MODEL"`
	FetcherModel    string `envconfig:"FETCHER_MODEL"`

	// Requests per minute, enforced over a rolling 60s window.
	OllamaReqPerMinute     int `envconfig:"RATE_LIMIT_OLLAMA" default:"0"`
	OpenRouterReqPerMinute int `envconfig:"RATE_LIMIT_OPENROUTER" default:"20"`
	GroqReqPerMinute       int `envconfig:"RATE_LIMIT_GROQ" default:"30"`
	ClaudeReqPerMinute     int `envconfig:"RATE_LIMIT_CLAUDE" default:"50"`
	OpenAIReqPerMinute     int `envconfig:"RATE_LIMIT_OPENAI" default:"500"`
	GeminiReqPerMinute     int `envconfig:"RATE_LIMIT_GEMINI" default:"60"`

	RequestTimeout time.Duration `envconfig:"LLM_REQUEST_TIMEOUT" default:"60s"`
}

// RateLimit returns the configured requests-per-minute limit for a provider.
// Zero means unlimited.
func (c AIConfig) RateLimit(provider string) int {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "ollama":
		return c.OllamaReqPerMinute
	case "openrouter":
		return c.OpenRouterReqPerMinute
	case "groq":
		return c.GroqReqPerMinute
	case "claude":
		return c.ClaudeReqPerMinute
	case "openai":
		return c.OpenAIReqPerMinute
	case "gemini":
		return c.GeminiReqPerMinute
	default:
		return 0
	}
}

// ModelOverride returns the configured model override for a role, if any.
func (c AIConfig) ModelOverride(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "strategist":
		return c.StrategistModel
	case "fetcher":
		return c.FetcherModel
	default:
		// All analyst-class roles share the analyst override.
		return c.AnalystModel
	}
}

// AnalysisConfig bounds asynchronous analysis jobs.
type AnalysisConfig struct {
	Timeout       time.Duration `envconfig:"ANALYSIS_TIMEOUT" default:"5m"`
	MaxRetries    int           `envconfig:"MAX_RETRIES" default:"3"`
	MaxConcurrent int           `envconfig:"MAX_CONCURRENT" default:"4"`

	// Job-level retry backoff (exponential with jitter).
	RetryBackoffBase time.Duration `envconfig:"RETRY_BACKOFF_BASE" default:"2s"`
	RetryBackoffMax  time.Duration `envconfig:"RETRY_BACKOFF_MAX" default:"30s"`
	RetryJitter      bool          `envconfig:"RETRY_JITTER" default:"true"`

	// Task-level sub-retries inside a single pipeline attempt.
	TaskRetries    int           `envconfig:"TASK_RETRIES" default:"2"`
	TaskRetryDelay time.Duration `envconfig:"TASK_RETRY_DELAY" default:"500ms"`

	// Concurrency cap for parallel-discipline tasks within one pipeline.
	ParallelTaskLimit int `envconfig:"PARALLEL_TASK_LIMIT" default:"5"`

	// Completed jobs are evicted from the in-memory store after this long.
	JobTTL time.Duration `envconfig:"JOB_TTL" default:"24h"`
}

// JobStoreConfig selects where job state lives. The in-memory store is a
// bounded-lifetime cache; set a DSN to keep jobs across restarts.
type JobStoreConfig struct {
	Driver string `envconfig:"JOB_STORE_DRIVER" default:"memory"`
	DSN    string `envconfig:"JOB_STORE_DSN"`
}

type RedisConfig struct {
	// Empty Addr disables Redis and falls back to in-process rate limiting.
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type KafkaConfig struct {
	// Empty broker list disables event publishing.
	Brokers []string `envconfig:"KAFKA_BROKERS"`
	Topic   string   `envconfig:"KAFKA_JOB_EVENTS_TOPIC" default:"tachi.job_events"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

type WorkerConfig struct {
	JanitorInterval time.Duration `envconfig:"WORKER_JANITOR_INTERVAL" default:"10m"`
}

// ToolsConfig points the data tools at their upstream endpoints.
type ToolsConfig struct {
	MarketBaseURL      string        `envconfig:"MARKET_DATA_BASE_URL" default:"https://query1.finance.yahoo.com"`
	NewsBaseURL        string        `envconfig:"NEWS_BASE_URL" default:"https://query1.finance.yahoo.com"`
	MarketReqPerMinute int           `envconfig:"MARKET_DATA_RATE_LIMIT" default:"120"`
	RequestTimeout     time.Duration `envconfig:"TOOL_REQUEST_TIMEOUT" default:"15s"`
	Retries            int           `envconfig:"TOOL_RETRIES" default:"2"`
	RetryDelay         time.Duration `envconfig:"TOOL_RETRY_DELAY" default:"300ms"`
}

// Load reads configuration from environment variables.
// It first tries to load a .env file (useful for local development).
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Analysis.MaxRetries < 0 {
		return errors.Wrap(errors.ErrConfiguration, "MAX_RETRIES must be >= 0")
	}
	if c.Analysis.MaxConcurrent < 1 {
		return errors.Wrap(errors.ErrConfiguration, "MAX_CONCURRENT must be >= 1")
	}
	if c.Analysis.Timeout <= 0 {
		return errors.Wrap(errors.ErrConfiguration, "ANALYSIS_TIMEOUT must be positive")
	}
	switch c.JobStore.Driver {
	case "memory":
	case "postgres":
		if c.JobStore.DSN == "" {
			return errors.Wrap(errors.ErrConfiguration, "JOB_STORE_DSN required for postgres job store")
		}
	default:
		return errors.Wrapf(errors.ErrConfiguration, "unknown job store driver %q", c.JobStore.Driver)
	}
	return nil
}
