package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Answers   AnswersConfig   `yaml:"answers" mapstructure:"answers"`
	AWS       AWSConfig       `yaml:"aws" mapstructure:"aws"`
	Storage   StorageConfig   `yaml:"storage" mapstructure:"storage"`
	OCR       OCRConfig       `yaml:"ocr" mapstructure:"ocr"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini    GeminiConfig    `yaml:"gemini" mapstructure:"gemini"`
	Auth      AuthConfig      `yaml:"auth" mapstructure:"auth"`
	Notify    NotifyConfig    `yaml:"notify" mapstructure:"notify"`
	Forms     FormsConfig     `yaml:"forms" mapstructure:"forms"`
	SOP       SOPConfig       `yaml:"sop" mapstructure:"sop"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the session and document metadata backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnswersConfig configures the answer store. Backend is "memory" or "redis".
type AnswersConfig struct {
	Backend       string `yaml:"backend" mapstructure:"backend"`
	RedisAddr     string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB       int    `yaml:"redis_db" mapstructure:"redis_db"`
	TTLHours      int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// AWSConfig holds the shared AWS region.
type AWSConfig struct {
	Region string `yaml:"region" mapstructure:"region"`
}

// StorageConfig configures document object storage.
type StorageConfig struct {
	Bucket        string `yaml:"bucket" mapstructure:"bucket"`
	PresignSecs   int    `yaml:"presign_secs" mapstructure:"presign_secs"`
	MaxUploadMB   int    `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
	OCRTimeoutSec int    `yaml:"ocr_timeout_secs" mapstructure:"ocr_timeout_secs"`
}

// OCRConfig selects the text recognizer. Provider is "textract" or "local".
type OCRConfig struct {
	Provider    string `yaml:"provider" mapstructure:"provider"`
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// LLMConfig selects the statement-of-purpose generator backend.
type LLMConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"`
	RequestsPerMinute float64 `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	MaxTokens         int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature       float64 `yaml:"temperature" mapstructure:"temperature"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// GeminiConfig holds Google Gemini API settings.
type GeminiConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// AuthConfig configures the Cognito user pool and bearer-token checks.
// An empty JWTSecret disables the middleware.
type AuthConfig struct {
	UserPoolID string `yaml:"user_pool_id" mapstructure:"user_pool_id"`
	ClientID   string `yaml:"client_id" mapstructure:"client_id"`
	JWTSecret  string `yaml:"jwt_secret" mapstructure:"jwt_secret"`
}

// NotifyConfig configures OCR completion events. An empty topic disables
// publishing.
type NotifyConfig struct {
	TopicARN string `yaml:"topic_arn" mapstructure:"topic_arn"`
}

// FormsConfig configures form generation.
type FormsConfig struct {
	VisaRequiredCountries []string `yaml:"visa_required_countries" mapstructure:"visa_required_countries"`
}

// SOPConfig bounds generated statements of purpose.
type SOPConfig struct {
	MinWords int `yaml:"min_words" mapstructure:"min_words"`
	MaxWords int `yaml:"max_words" mapstructure:"max_words"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config file and environment.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path looks for an
// optional config.yaml in the working directory; a named file must exist.
func LoadFile(path string) (*Config, error) {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("VISAMATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "visamate.db")
	v.SetDefault("answers.backend", "memory")
	v.SetDefault("answers.redis_addr", "localhost:6379")
	v.SetDefault("answers.redis_db", 0)
	v.SetDefault("answers.ttl_hours", 720)
	v.SetDefault("aws.region", "ca-central-1")
	v.SetDefault("storage.presign_secs", 3600)
	v.SetDefault("storage.max_upload_mb", 10)
	v.SetDefault("storage.ocr_timeout_secs", 120)
	v.SetDefault("ocr.provider", "local")
	v.SetDefault("ocr.concurrency", 4)
	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("llm.requests_per_minute", 30)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.timeout_secs", 90)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("forms.visa_required_countries", []string{"IND", "CHN", "PAK", "BGD", "NPL", "LKA", "NGA"})
	v.SetDefault("sop.min_words", 800)
	v.SetDefault("sop.max_words", 1500)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Mode is one of
// "serve", "ocr", "sop" or "cli".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		errs = append(errs, c.validateStore()...)
		errs = append(errs, c.validateAnswers()...)
	case "ocr":
		if c.OCR.Provider == "textract" && c.AWS.Region == "" {
			errs = append(errs, "aws.region is required for textract")
		}
		if c.OCR.Concurrency < 1 || c.OCR.Concurrency > 32 {
			errs = append(errs, "ocr.concurrency must be between 1 and 32")
		}
	case "sop":
		errs = append(errs, c.validateLLM()...)
	case "cli":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.SOP.MinWords <= 0 || c.SOP.MaxWords < c.SOP.MinWords {
		errs = append(errs, "sop.min_words must be > 0 and <= sop.max_words")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateStore() []string {
	switch c.Store.Driver {
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			return []string{"store.database_url is required"}
		}
		return nil
	default:
		return []string{"store.driver must be sqlite or postgres"}
	}
}

func (c *Config) validateAnswers() []string {
	switch c.Answers.Backend {
	case "memory":
		return nil
	case "redis":
		if c.Answers.RedisAddr == "" {
			return []string{"answers.redis_addr is required"}
		}
		return nil
	default:
		return []string{"answers.backend must be memory or redis"}
	}
}

func (c *Config) validateLLM() []string {
	var errs []string
	switch c.LLM.Provider {
	case "anthropic":
		if c.Anthropic.Key == "" {
			errs = append(errs, "anthropic.key is required")
		}
	case "gemini":
		if c.Gemini.Key == "" {
			errs = append(errs, "gemini.key is required")
		}
	default:
		errs = append(errs, "llm.provider must be anthropic or gemini")
	}
	if c.LLM.RequestsPerMinute <= 0 {
		errs = append(errs, "llm.requests_per_minute must be > 0")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
