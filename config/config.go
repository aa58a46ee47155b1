package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Pushover  PushoverConfig  `yaml:"pushover"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	BodyLimitMB    int      `yaml:"body_limit_mb"`
	RateLimit      int      `yaml:"rate_limit_per_minute"`
	Development    bool     `yaml:"development"`
}

type OpenAIConfig struct {
	APIKey             string `yaml:"api_key"`
	BaseURL            string `yaml:"base_url"`
	Language           string `yaml:"language"`
	TranscriptionModel string `yaml:"transcription_model"`
	ChatModel          string `yaml:"chat_model"`
	Timeout            string `yaml:"timeout"`
}

// ExtractorConfig selects the language model used for structured extraction.
type ExtractorConfig struct {
	Provider string `yaml:"provider"`
	UserName string `yaml:"user_name"`
}

type AnthropicConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// PushoverConfig enables alerts for upstream failures when both keys are set.
type PushoverConfig struct {
	Token   string `yaml:"token"`
	UserKey string `yaml:"user_key"`
}

func (p PushoverConfig) Enabled() bool {
	return p.Token != "" && p.UserKey != ""
}

type MetricsConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads an optional .env file and an optional YAML config, expanding
// ${VAR} references, then applies environment overrides and defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg.applyEnv()
	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.OpenAI.APIKey == "" {
		c.OpenAI.APIKey = key
	}
	if lang := strings.TrimSpace(os.Getenv("TRANSCRIPTION_LANGUAGE")); lang != "" {
		c.OpenAI.Language = lang
	}
	if env := firstNonEmpty(os.Getenv("APP_ENV"), os.Getenv("NODE_ENV")); env == "development" {
		c.Server.Development = true
	}
}

func (c *Config) setDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":3001"
	}
	if c.Server.BodyLimitMB == 0 {
		c.Server.BodyLimitMB = 50
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = 30
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.OpenAI.Language == "" {
		c.OpenAI.Language = "en"
	}
	if c.OpenAI.TranscriptionModel == "" {
		c.OpenAI.TranscriptionModel = "whisper-1"
	}
	if c.OpenAI.ChatModel == "" {
		c.OpenAI.ChatModel = "gpt-4.1-mini"
	}
	if c.OpenAI.Timeout == "" {
		c.OpenAI.Timeout = "30s"
	}
	if c.Extractor.Provider == "" {
		c.Extractor.Provider = "openai"
	}
	if c.Metrics.Enabled == nil {
		enabled := true
		c.Metrics.Enabled = &enabled
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) validate() error {
	switch c.Extractor.Provider {
	case "openai":
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("extractor provider anthropic requires anthropic.api_key")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("extractor provider gemini requires gemini.api_key")
		}
	default:
		return fmt.Errorf("unknown extractor provider %q", c.Extractor.Provider)
	}
	if _, err := time.ParseDuration(c.OpenAI.Timeout); err != nil {
		return fmt.Errorf("invalid openai.timeout %q: %w", c.OpenAI.Timeout, err)
	}
	return nil
}

// RequestTimeout is the parsed openai.timeout.
func (c *Config) RequestTimeout() time.Duration {
	d, _ := time.ParseDuration(c.OpenAI.Timeout)
	return d
}

// RateLimitPerMinute is the per-IP limit for voice routes. A negative
// rate_limit_per_minute disables limiting.
func (c *Config) RateLimitPerMinute() int {
	return max(c.Server.RateLimit, 0)
}

func (c *Config) BodyLimitBytes() int64 {
	return int64(c.Server.BodyLimitMB) << 20
}

func (c *Config) MetricsEnabled() bool {
	return c.Metrics.Enabled != nil && *c.Metrics.Enabled
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
