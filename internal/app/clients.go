package app

import (
	"fmt"

	"github.com/yungbote/learny-backend/internal/modules/coursechat"
	"github.com/yungbote/learny-backend/internal/pkg/logger"
	"github.com/yungbote/learny-backend/internal/platform/claude"
	"github.com/yungbote/learny-backend/internal/platform/mockllm"
	"github.com/yungbote/learny-backend/internal/platform/openai"
	"github.com/yungbote/learny-backend/internal/platform/openaisdk"
	"github.com/yungbote/learny-backend/internal/realtime/bus"
)

type Clients struct {
	Generator coursechat.Generator
	SSEBus    bus.Bus
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	gen, err := newGenerator(log, cfg.Generator)
	if err != nil {
		return Clients{}, err
	}

	// Redis
	var sseBus bus.Bus
	if cfg.Redis.Addr != "" {
		b, err := bus.NewRedisBus(log, cfg.Redis)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis SSE bus: %w", err)
		}
		sseBus = b
	}

	return Clients{Generator: gen, SSEBus: sseBus}, nil
}

func newGenerator(log *logger.Logger, cfg GeneratorConfig) (coursechat.Generator, error) {
	switch cfg.Provider {
	case ProviderMock:
		return mockllm.New(log), nil
	case ProviderOpenAISDK:
		c, err := openaisdk.NewClient(log, openaisdk.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("init openai sdk client: %w", err)
		}
		return c, nil
	case ProviderAnthropic:
		c, err := claude.NewClient(log, claude.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("init anthropic client: %w", err)
		}
		return c, nil
	case ProviderOpenAI:
		oc := openai.ConfigFromEnv()
		if cfg.APIKey != "" {
			oc.APIKey = cfg.APIKey
		}
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		if cfg.Model != "" {
			oc.Model = cfg.Model
		}
		if cfg.Timeout > 0 {
			oc.Timeout = cfg.Timeout
		}
		oc.MaxRetries = cfg.MaxRetries
		c, err := openai.NewClient(log, oc)
		if err != nil {
			return nil, fmt.Errorf("init openai client: %w", err)
		}
		return c, nil
	}
	return nil, fmt.Errorf("unknown generator provider %q", cfg.Provider)
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.SSEBus != nil {
		_ = c.SSEBus.Close()
	}
}
