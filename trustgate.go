// Package trustgate provides a top-level convenience entry point for
// embedding the gateway pipeline with minimal boilerplate.
//
// Usage:
//
//	import "github.com/trustgate-ai/trustgate"
//
//	gw, err := trustgate.New(
//	    trustgate.WithRedis("localhost:6379"),
//	    trustgate.WithProvider("gpt-4o-mini", myProvider),
//	)
//	result, err := gw.Run(ctx, &pipeline.Request{...})
//
// The full assembly with config files, Qdrant and the HTTP surface lives in
// cmd/trustgate; this package covers the embedded library case.
package trustgate

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/trustgate-ai/trustgate/cache"
	"github.com/trustgate-ai/trustgate/embedding"
	"github.com/trustgate-ai/trustgate/llm"
	"github.com/trustgate-ai/trustgate/pipeline"
	"github.com/trustgate-ai/trustgate/trace"
)

// Option configures the gateway created by [New].
type Option func(*settings)

type settings struct {
	redisAddr string
	chain     []pipeline.ProviderSpec
	judge     llm.Provider
	semantic  cache.SemanticStore
	embedder  embedding.Provider
	sink      trace.Sink
	ttl       time.Duration
	threshold float64
	logger    *zap.Logger
}

// WithRedis sets the exact-cache Redis address.
func WithRedis(addr string) Option {
	return func(s *settings) { s.redisAddr = addr }
}

// WithProvider appends a provider to the fallback chain. Chain order follows
// call order.
func WithProvider(name string, p llm.Provider) Option {
	return func(s *settings) {
		s.chain = append(s.chain, pipeline.ProviderSpec{Name: name, Provider: p})
	}
}

// WithVerifier enables the post-hoc consistency check with the given judge.
func WithVerifier(judge llm.Provider) Option {
	return func(s *settings) { s.judge = judge }
}

// WithSemantic enables the semantic cache tier.
func WithSemantic(store cache.SemanticStore, embedder embedding.Provider) Option {
	return func(s *settings) {
		s.semantic = store
		s.embedder = embedder
	}
}

// WithTraceSink sets the trace log destination.
func WithTraceSink(sink trace.Sink) Option {
	return func(s *settings) { s.sink = sink }
}

// WithCacheTTL overrides the exact-cache TTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *settings) { s.ttl = ttl }
}

// WithSimilarityThreshold overrides the semantic hit threshold.
func WithSimilarityThreshold(threshold float64) Option {
	return func(s *settings) { s.threshold = threshold }
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// New assembles a pipeline coordinator from the options. At minimum one
// provider must be supplied via [WithProvider].
func New(opts ...Option) (*pipeline.Coordinator, error) {
	s := &settings{
		redisAddr: "localhost:6379",
	}
	for _, opt := range opts {
		opt(s)
	}

	if len(s.chain) == 0 {
		return nil, fmt.Errorf("at least one provider is required")
	}

	logger := s.logger
	if logger == nil {
		var err error
		logger, err = zap.NewProduction()
		if err != nil {
			return nil, fmt.Errorf("build logger: %w", err)
		}
	}

	client := redis.NewClient(&redis.Options{Addr: s.redisAddr})
	gate := cache.NewGate(
		cache.NewRedisStore(client, logger),
		s.semantic,
		s.embedder,
		cache.GateConfig{TTL: s.ttl, SimilarityThreshold: s.threshold},
		logger,
	)

	var verifier *pipeline.Verifier
	if s.judge != nil {
		verifier = pipeline.NewVerifier(s.judge, pipeline.VerifierConfig{}, logger)
	}

	return pipeline.NewCoordinator(
		gate,
		pipeline.NewOrchestrator(s.chain, logger),
		verifier,
		s.sink,
		nil,
		nil,
		pipeline.CoordinatorConfig{VerifierEnabled: s.judge != nil},
		logger,
	), nil
}
