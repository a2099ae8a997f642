package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/learny-backend/internal/data/db"
	"github.com/yungbote/learny-backend/internal/modules/coursechat"
	"github.com/yungbote/learny-backend/internal/pkg/envutil"
	"github.com/yungbote/learny-backend/internal/pkg/logger"
	"github.com/yungbote/learny-backend/internal/realtime/bus"
)

const (
	ProviderOpenAI    = "openai"
	ProviderOpenAISDK = "openai_sdk"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

type Config struct {
	Port          string              `yaml:"port"`
	Database      DatabaseConfig      `yaml:"database"`
	Generator     GeneratorConfig     `yaml:"generator"`
	Redis         bus.RedisConfig     `yaml:"redis"`
	Otel          OtelConfig          `yaml:"otel"`
	Conversation  ConversationConfig  `yaml:"conversation"`
	LessonContent LessonContentConfig `yaml:"lesson_content"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type GeneratorConfig struct {
	Provider   string        `yaml:"provider"`
	Model      string        `yaml:"model"`
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// OtelConfig names the service in traces. Tracing itself is switched on by
// OTEL_ENABLED.
type OtelConfig struct {
	ServiceName string `yaml:"service_name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type ConversationConfig struct {
	LessonCountOptions []string `yaml:"lesson_count_options"`
	DefaultTarget      int      `yaml:"default_target"`
	MoreIdeasBatch     int      `yaml:"more_ideas_batch"`
	ContextTokenBudget int      `yaml:"context_token_budget"`
}

type LessonContentConfig struct {
	Concurrency int `yaml:"concurrency"`
}

func defaultConfig() Config {
	return Config{
		Port: "8080",
		Database: DatabaseConfig{
			Driver: db.DriverSQLite,
		},
		Generator: GeneratorConfig{
			Provider:   ProviderOpenAI,
			Timeout:    60 * time.Second,
			MaxRetries: 3,
		},
		Otel: OtelConfig{ServiceName: "learny"},
		Conversation: ConversationConfig{
			LessonCountOptions: append([]string(nil), coursechat.DefaultLessonCountOptions...),
			DefaultTarget:      4,
			MoreIdeasBatch:     3,
			ContextTokenBudget: 1500,
		},
		LessonContent: LessonContentConfig{Concurrency: 4},
	}
}

// LoadConfig reads LEARNY_CONFIG (default config.yaml) when present and then
// applies environment overrides. A missing file is not an error.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := defaultConfig()
	path := envutil.String("LEARNY_CONFIG", "config.yaml")
	if err := loadConfigFile(path, &cfg); err != nil {
		return Config{}, err
	}
	applyEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	if log != nil {
		log.Info("Config loaded",
			"path", path,
			"port", cfg.Port,
			"db_driver", cfg.Database.Driver,
			"generator_provider", cfg.Generator.Provider,
			"generator_model", cfg.Generator.Model,
			"redis_enabled", cfg.Redis.Addr != "",
		)
	}
	return cfg, nil
}

func loadConfigFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Port = envutil.String("PORT", cfg.Port)

	cfg.Database.Driver = envutil.String("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = envutil.String("DB_DSN", cfg.Database.DSN)

	g := &cfg.Generator
	g.Provider = strings.ToLower(envutil.String("GENERATOR_PROVIDER", g.Provider))
	g.Model = envutil.String("GENERATOR_MODEL", g.Model)
	g.BaseURL = envutil.String("GENERATOR_BASE_URL", g.BaseURL)
	g.APIKey = envutil.String("GENERATOR_API_KEY", g.APIKey)
	g.Timeout = envutil.Duration("GENERATOR_TIMEOUT", g.Timeout)
	g.MaxRetries = envutil.Int("GENERATOR_MAX_RETRIES", g.MaxRetries)
	if g.APIKey == "" {
		switch g.Provider {
		case ProviderAnthropic:
			g.APIKey = envutil.String("ANTHROPIC_API_KEY", "")
		case ProviderOpenAI, ProviderOpenAISDK:
			g.APIKey = envutil.String("OPENAI_API_KEY", "")
		}
	}

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Channel = envutil.String("REDIS_CHANNEL", cfg.Redis.Channel)

	cfg.Otel.ServiceName = envutil.String("OTEL_SERVICE_NAME", cfg.Otel.ServiceName)
	cfg.Otel.Environment = envutil.String("APP_ENV", cfg.Otel.Environment)
	cfg.Otel.Version = envutil.String("APP_VERSION", cfg.Otel.Version)

	c := &cfg.Conversation
	c.LessonCountOptions = envutil.List("LESSON_COUNT_OPTIONS", c.LessonCountOptions)
	c.DefaultTarget = envutil.Int("CONVERSATION_DEFAULT_TARGET", c.DefaultTarget)
	c.MoreIdeasBatch = envutil.Int("CONVERSATION_MORE_IDEAS_BATCH", c.MoreIdeasBatch)
	c.ContextTokenBudget = envutil.Int("CONTEXT_TOKEN_BUDGET", c.ContextTokenBudget)

	cfg.LessonContent.Concurrency = envutil.Int("LESSON_CONTENT_CONCURRENCY", cfg.LessonContent.Concurrency)
}

func (c Config) validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case db.DriverSQLite, db.DriverPostgres:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	switch c.Generator.Provider {
	case ProviderOpenAI, ProviderOpenAISDK, ProviderAnthropic, ProviderMock:
	default:
		return fmt.Errorf("unknown generator provider %q", c.Generator.Provider)
	}
	if len(c.Conversation.LessonCountOptions) == 0 {
		return fmt.Errorf("conversation.lesson_count_options must not be empty")
	}
	return nil
}
