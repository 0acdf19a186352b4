package cache

import (
	"context"
	"errors"
	"time"

	"github.com/trustgate-ai/trustgate/embedding"
	"github.com/trustgate-ai/trustgate/llm"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Origin identifies where a cached answer came from.
type Origin string

const (
	OriginNone     Origin = "none"
	OriginExact    Origin = "exact"
	OriginSemantic Origin = "semantic"
)

// Hit is a successful cache lookup.
type Hit struct {
	Answer     string  `json:"answer"`
	Model      string  `json:"model"`
	Origin     Origin  `json:"origin"`
	Similarity float64 `json:"similarity,omitempty"`
}

// GateConfig tunes the hybrid gate.
type GateConfig struct {
	// TTL applied to exact-store entries.
	TTL time.Duration
	// SimilarityThreshold is the minimum cosine similarity for a semantic
	// hit (default 0.90).
	SimilarityThreshold float64
}

// DefaultGateConfig returns the gate defaults.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		TTL:                 time.Hour,
		SimilarityThreshold: 0.90,
	}
}

// Gate is the hybrid cache: exact fingerprint lookup first, semantic
// nearest-neighbor second. Every collaborator failure degrades to a miss.
type Gate struct {
	exact    ExactStore
	semantic SemanticStore
	embedder embedding.Provider
	cfg      GateConfig
	logger   *zap.Logger
}

// NewGate creates a hybrid cache gate. semantic and embedder may be nil,
// which disables the semantic tier (exact-only operation).
func NewGate(exact ExactStore, semantic SemanticStore, embedder embedding.Provider, cfg GateConfig, logger *zap.Logger) *Gate {
	if cfg.TTL == 0 {
		cfg.TTL = DefaultGateConfig().TTL
	}
	if cfg.SimilarityThreshold == 0 {
		cfg.SimilarityThreshold = DefaultGateConfig().SimilarityThreshold
	}
	return &Gate{
		exact:    exact,
		semantic: semantic,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger.With(zap.String("component", "cache_gate")),
	}
}

// Lookup checks the exact store by fingerprint and falls back to a semantic
// search. It never returns an error: unavailability of any collaborator is
// logged and treated as a miss, so the request proceeds as a fresh
// generation. Exact hits never cost an embedding call.
func (g *Gate) Lookup(ctx context.Context, messages []llm.Message) *Hit {
	fp := Fingerprint(messages)

	entry, err := g.exact.Get(ctx, fp)
	if err == nil {
		return &Hit{Answer: entry.Answer, Model: entry.Model, Origin: OriginExact}
	}
	if !errors.Is(err, ErrCacheMiss) {
		g.logger.Warn("exact store unavailable, treating as miss", zap.Error(err))
	}

	if g.semantic == nil || g.embedder == nil {
		return nil
	}

	vector, err := g.embedder.EmbedQuery(ctx, llm.LastUserContent(messages))
	if err != nil {
		g.logger.Warn("embedding unavailable, exact-only lookup", zap.Error(err))
		return nil
	}

	neighbor, err := g.semantic.Search(ctx, vector)
	if err != nil {
		g.logger.Warn("semantic store unavailable, treating as miss", zap.Error(err))
		return nil
	}
	if neighbor == nil || neighbor.Score < g.cfg.SimilarityThreshold {
		return nil
	}

	return &Hit{
		Answer:     neighbor.Answer,
		Model:      neighbor.Model,
		Origin:     OriginSemantic,
		Similarity: neighbor.Score,
	}
}

// Store writes the accepted answer into both tiers. Both writes are
// best-effort and run concurrently; failures are logged and swallowed.
// Concurrent writers for the same fingerprint are not serialized: last
// write wins.
func (g *Gate) Store(ctx context.Context, messages []llm.Message, answer, model string) {
	fp := Fingerprint(messages)
	now := time.Now()

	var eg errgroup.Group

	eg.Go(func() error {
		entry := &Entry{
			Fingerprint: fp,
			Answer:      answer,
			Model:       model,
			CreatedAt:   now,
			TTL:         g.cfg.TTL,
		}
		if err := g.exact.Set(ctx, fp, entry, g.cfg.TTL); err != nil {
			g.logger.Warn("exact store write failed", zap.Error(err))
		}
		return nil
	})

	if g.semantic != nil && g.embedder != nil {
		eg.Go(func() error {
			vector, err := g.embedder.EmbedQuery(ctx, llm.LastUserContent(messages))
			if err != nil {
				g.logger.Warn("embedding failed, skipping semantic write", zap.Error(err))
				return nil
			}
			if err := g.semantic.Upsert(ctx, fp, vector, answer, model); err != nil {
				g.logger.Warn("semantic store write failed", zap.Error(err))
			}
			return nil
		})
	}

	_ = eg.Wait()
}
