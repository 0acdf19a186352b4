package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/trustgate-ai/trustgate/llm"
	"go.uber.org/zap"
)

// Outcome classifies a single fallback attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeTimeout Outcome = "timeout"
	OutcomeError   Outcome = "error"
)

// AttemptRecord captures one provider attempt in chain order.
type AttemptRecord struct {
	Provider string
	Outcome  Outcome
	Elapsed  time.Duration
	Err      error
}

// ProviderSpec binds a provider to its position in the fallback chain.
// Name is the attribution label for attempts and the Model field of a
// successful Generation.
type ProviderSpec struct {
	Name     string
	Provider llm.Provider
	Timeout  time.Duration
}

// Generation is the result of a successful fallback run.
type Generation struct {
	Answer   string
	Model    string
	Attempts []AttemptRecord
}

// AllFailedError reports that every provider in the chain was attempted
// and none produced an answer.
type AllFailedError struct {
	Attempts []AttemptRecord
}

func (e *AllFailedError) Error() string {
	names := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		names = append(names, fmt.Sprintf("%s(%s)", a.Provider, a.Outcome))
	}
	return fmt.Sprintf("all providers failed: %s", strings.Join(names, ", "))
}

// Orchestrator walks a fixed provider chain in declaration order and
// returns the first successful generation.
type Orchestrator struct {
	chain  []ProviderSpec
	logger *zap.Logger
}

const defaultAttemptTimeout = 15 * time.Second

// NewOrchestrator creates a fallback orchestrator over the given chain.
// Specs with a zero Timeout get the 15s default.
func NewOrchestrator(chain []ProviderSpec, logger *zap.Logger) *Orchestrator {
	specs := make([]ProviderSpec, len(chain))
	copy(specs, chain)
	for i := range specs {
		if specs[i].Timeout <= 0 {
			specs[i].Timeout = defaultAttemptTimeout
		}
	}
	return &Orchestrator{
		chain:  specs,
		logger: logger.With(zap.String("component", "fallback")),
	}
}

// Chain returns the configured provider order.
func (o *Orchestrator) Chain() []ProviderSpec {
	out := make([]ProviderSpec, len(o.chain))
	copy(out, o.chain)
	return out
}

// Generate tries each provider in order under its own deadline. It returns
// on the first success; if the chain is exhausted it returns *AllFailedError
// carrying one record per attempted provider. The parent context aborts the
// walk early.
func (o *Orchestrator) Generate(ctx context.Context, messages []llm.Message, temperature float32) (*Generation, error) {
	attempts := make([]AttemptRecord, 0, len(o.chain))

	for _, spec := range o.chain {
		if err := ctx.Err(); err != nil {
			break
		}

		start := time.Now()
		attemptCtx, cancel := context.WithTimeout(ctx, spec.Timeout)
		resp, err := spec.Provider.Generate(attemptCtx, &llm.GenerateRequest{
			Messages:    messages,
			Temperature: temperature,
		})
		cancel()
		elapsed := time.Since(start)

		if err == nil {
			attempts = append(attempts, AttemptRecord{
				Provider: spec.Name,
				Outcome:  OutcomeSuccess,
				Elapsed:  elapsed,
			})
			o.logger.Debug("provider succeeded",
				zap.String("provider", spec.Name),
				zap.Duration("elapsed", elapsed),
			)
			return &Generation{
				Answer:   resp.Content,
				Model:    spec.Name,
				Attempts: attempts,
			}, nil
		}

		outcome := OutcomeError
		if llm.IsTimeout(err) {
			outcome = OutcomeTimeout
		}
		attempts = append(attempts, AttemptRecord{
			Provider: spec.Name,
			Outcome:  outcome,
			Elapsed:  elapsed,
			Err:      err,
		})
		o.logger.Warn("provider failed, trying next",
			zap.String("provider", spec.Name),
			zap.String("outcome", string(outcome)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
	}

	return nil, &AllFailedError{Attempts: attempts}
}
