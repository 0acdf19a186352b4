package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/trustgate-ai/trustgate/api/handlers"
	"github.com/trustgate-ai/trustgate/cache"
	"github.com/trustgate-ai/trustgate/config"
	"github.com/trustgate-ai/trustgate/embedding"
	"github.com/trustgate-ai/trustgate/internal/metrics"
	"github.com/trustgate-ai/trustgate/internal/server"
	"github.com/trustgate-ai/trustgate/internal/telemetry"
	"github.com/trustgate-ai/trustgate/pipeline"
	"github.com/trustgate-ai/trustgate/providers"
	"github.com/trustgate-ai/trustgate/providers/anthropic"
	"github.com/trustgate-ai/trustgate/providers/openai"
	"github.com/trustgate-ai/trustgate/trace"
)

// app holds the assembled gateway and its lifecycle handles.
type app struct {
	manager   *server.Manager
	telemetry *telemetry.Providers
	logger    *zap.Logger
}

// newApp wires every component from config: stores, providers, pipeline,
// router and server.
func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	otelProviders, err := telemetry.Init(telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		SampleRate:   cfg.Telemetry.SampleRate,
	}, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})

	exact := cache.NewRedisStore(redisClient, logger)

	var semantic cache.SemanticStore
	var embedder embedding.Provider
	if cfg.Qdrant.Enabled {
		if cfg.Embedding.APIKey == "" {
			logger.Warn("semantic cache disabled: no embedding api key configured")
		} else {
			semantic = cache.NewQdrantStore(cache.QdrantConfig{
				BaseURL:        cfg.Qdrant.BaseURL,
				APIKey:         cfg.Qdrant.APIKey,
				Collection:     cfg.Qdrant.Collection,
				VectorSize:     cfg.Embedding.Dimensions,
				ScoreThreshold: cfg.Cache.SimilarityThreshold,
				Timeout:        cfg.Qdrant.Timeout,
			}, logger)
			embedder = embedding.NewOpenAIProvider(embedding.OpenAIConfig{
				BaseURL:    cfg.Embedding.BaseURL,
				APIKey:     cfg.Embedding.APIKey,
				Model:      cfg.Embedding.Model,
				Dimensions: cfg.Embedding.Dimensions,
				Timeout:    cfg.Embedding.Timeout,
			})
		}
	}

	gate := cache.NewGate(exact, semantic, embedder, cache.GateConfig{
		TTL:                 cfg.Cache.TTL,
		SimilarityThreshold: cfg.Cache.SimilarityThreshold,
	}, logger)

	chain := buildProviderChain(cfg.Providers, logger)
	if len(chain) == 0 {
		return nil, fmt.Errorf("no providers configured: set at least one api key")
	}
	orchestrator := pipeline.NewOrchestrator(chain, logger)

	var verifier *pipeline.Verifier
	if cfg.Verifier.Enabled {
		// The chain's primary provider doubles as the judge.
		verifier = pipeline.NewVerifier(chain[0].Provider, pipeline.VerifierConfig{
			Timeout: cfg.Verifier.Timeout,
		}, logger)
	}

	sink, err := trace.NewJSONLSink(cfg.Log.TracePath, logger)
	if err != nil {
		return nil, fmt.Errorf("create trace sink: %w", err)
	}

	collector := metrics.NewCollector("trustgate")

	coordinator := pipeline.NewCoordinator(
		gate,
		orchestrator,
		verifier,
		sink,
		nil,
		collector,
		pipeline.CoordinatorConfig{VerifierEnabled: cfg.Verifier.Enabled},
		logger,
	)

	checks := []handlers.HealthCheck{
		handlers.NewPingCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}),
	}

	router := buildRouter(routerConfig{
		gateway:        coordinator,
		checks:         checks,
		rateLimitRPS:   cfg.Server.RateLimitRPS,
		rateLimitBurst: cfg.Server.RateLimitBurst,
		logger:         logger,
	})

	manager := server.NewManager(router, server.Config{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, logger)

	return &app{
		manager:   manager,
		telemetry: otelProviders,
		logger:    logger,
	}, nil
}

// buildProviderChain assembles the fallback order: OpenAI primary, OpenAI
// fallback models, then Anthropic. Providers without an API key are skipped.
func buildProviderChain(cfg config.ProvidersConfig, logger *zap.Logger) []pipeline.ProviderSpec {
	var chain []pipeline.ProviderSpec

	if cfg.OpenAI.APIKey != "" {
		models := append([]string{cfg.OpenAI.Model}, cfg.OpenAI.FallbackModels...)
		for _, model := range models {
			p := openai.New(providers.OpenAIConfig{
				BaseURL: cfg.OpenAI.BaseURL,
				APIKey:  cfg.OpenAI.APIKey,
				Model:   model,
				Timeout: cfg.OpenAI.Timeout,
			}, logger)
			chain = append(chain, pipeline.ProviderSpec{
				Name:     p.Name(),
				Provider: p,
				Timeout:  cfg.OpenAI.Timeout,
			})
		}
	} else {
		logger.Warn("openai providers skipped: no api key configured")
	}

	if cfg.Anthropic.APIKey != "" {
		p := anthropic.New(providers.AnthropicConfig{
			BaseURL: cfg.Anthropic.BaseURL,
			APIKey:  cfg.Anthropic.APIKey,
			Model:   cfg.Anthropic.Model,
			Timeout: cfg.Anthropic.Timeout,
		}, logger)
		chain = append(chain, pipeline.ProviderSpec{
			Name:     p.Name(),
			Provider: p,
			Timeout:  cfg.Anthropic.Timeout,
		})
	} else {
		logger.Warn("anthropic provider skipped: no api key configured")
	}

	return chain
}

// Start begins serving HTTP traffic.
func (a *app) Start() error {
	return a.manager.Start()
}

// WaitForShutdown blocks until a signal, then drains the server and
// flushes telemetry.
func (a *app) WaitForShutdown() {
	a.manager.WaitForShutdown()

	if err := a.telemetry.Shutdown(context.Background()); err != nil {
		a.logger.Warn("telemetry shutdown failed", zap.Error(err))
	}
}
