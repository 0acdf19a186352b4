package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/trustgate-ai/trustgate/cache"
	"github.com/trustgate-ai/trustgate/internal/metrics"
	"github.com/trustgate-ai/trustgate/llm"
	"github.com/trustgate-ai/trustgate/trace"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Request is one chat request entering the pipeline.
type Request struct {
	UserID      string
	Messages    []llm.Message
	Model       string
	Temperature float32
	Metadata    map[string]any
}

// Result is the coordinator's answer for a Request. Cached is true exactly
// when the answer came from the gate, in which case Attempts is empty.
type Result struct {
	Answer            string
	Model             string
	Cached            bool
	Origin            cache.Origin
	Similarity        float64
	HallucinationFlag bool
	Attempts          []AttemptRecord
	TraceID           string
	Elapsed           time.Duration
}

// Redactor scrubs sensitive content from prompts before they reach the
// trace log. The pipeline itself always operates on the raw messages.
type Redactor interface {
	Redact(s string) string
}

type identityRedactor struct{}

func (identityRedactor) Redact(s string) string { return s }

// CoordinatorConfig tunes the coordinator.
type CoordinatorConfig struct {
	// VerifierEnabled toggles the post-hoc consistency check.
	VerifierEnabled bool
}

// Coordinator runs the full request lifecycle: gate lookup, fallback
// generation, consistency check, cache write-back and trace emission.
type Coordinator struct {
	gate         *cache.Gate
	orchestrator *Orchestrator
	verifier     *Verifier
	sink         trace.Sink
	redactor     Redactor
	collector    *metrics.Collector
	cfg          CoordinatorConfig
	tracer       oteltrace.Tracer
	logger       *zap.Logger
}

// NewCoordinator wires the pipeline. verifier, sink, redactor and collector
// may be nil; each nil collaborator disables its concern.
func NewCoordinator(
	gate *cache.Gate,
	orchestrator *Orchestrator,
	verifier *Verifier,
	sink trace.Sink,
	redactor Redactor,
	collector *metrics.Collector,
	cfg CoordinatorConfig,
	logger *zap.Logger,
) *Coordinator {
	if redactor == nil {
		redactor = identityRedactor{}
	}
	return &Coordinator{
		gate:         gate,
		orchestrator: orchestrator,
		verifier:     verifier,
		sink:         sink,
		redactor:     redactor,
		collector:    collector,
		cfg:          cfg,
		tracer:       otel.Tracer("trustgate/pipeline"),
		logger:       logger.With(zap.String("component", "coordinator")),
	}
}

// Run executes the pipeline for one request. The only error it returns is
// *AllFailedError; every other collaborator failure degrades silently.
func (c *Coordinator) Run(ctx context.Context, req *Request) (*Result, error) {
	traceID := uuid.NewString()
	start := time.Now()

	ctx, span := c.tracer.Start(ctx, "pipeline.run",
		oteltrace.WithAttributes(attribute.String("trace_id", traceID)),
	)
	defer span.End()

	if hit := c.gate.Lookup(ctx, req.Messages); hit != nil {
		c.collector.ObserveCacheLookup(string(hit.Origin))
		span.SetAttributes(attribute.String("cache.origin", string(hit.Origin)))

		result := &Result{
			Answer:     hit.Answer,
			Model:      hit.Model,
			Cached:     true,
			Origin:     hit.Origin,
			Similarity: hit.Similarity,
			TraceID:    traceID,
			Elapsed:    time.Since(start),
		}
		c.emit(ctx, req, result)
		c.collector.ObserveRequest("done", true, result.Elapsed)
		return result, nil
	}
	c.collector.ObserveCacheLookup(string(cache.OriginNone))

	gen, err := c.orchestrator.Generate(ctx, req.Messages, req.Temperature)
	if err != nil {
		var attempts []AttemptRecord
		if failed, ok := err.(*AllFailedError); ok {
			attempts = failed.Attempts
		}
		c.recordAttempts(attempts)
		c.collector.ObserveRequest("failed", false, time.Since(start))
		c.logger.Error("generation exhausted all providers",
			zap.String("trace_id", traceID),
			zap.Int("attempts", len(attempts)),
		)
		return nil, err
	}
	c.recordAttempts(gen.Attempts)

	flagged := false
	if c.cfg.VerifierEnabled && c.verifier != nil {
		verdict := c.verifier.Check(ctx, llm.LastUserContent(req.Messages), gen.Answer)
		if verdict == VerdictInconsistent {
			flagged = true
			c.collector.ObserveHallucination()
			c.logger.Warn("answer flagged by consistency check",
				zap.String("trace_id", traceID),
				zap.String("model", gen.Model),
			)
		}
	}

	c.gate.Store(ctx, req.Messages, gen.Answer, gen.Model)

	result := &Result{
		Answer:            gen.Answer,
		Model:             gen.Model,
		Cached:            false,
		Origin:            cache.OriginNone,
		HallucinationFlag: flagged,
		Attempts:          gen.Attempts,
		TraceID:           traceID,
		Elapsed:           time.Since(start),
	}
	c.emit(ctx, req, result)
	c.collector.ObserveRequest("done", false, result.Elapsed)
	return result, nil
}

// Feedback appends a user score for a previously returned trace ID.
func (c *Coordinator) Feedback(ctx context.Context, traceID string, score int, comment string) error {
	c.collector.ObserveFeedback(score)
	if c.sink == nil {
		return nil
	}
	return c.sink.AppendFeedback(ctx, &trace.Feedback{
		TraceID: traceID,
		Score:   score,
		Comment: comment,
	})
}

func (c *Coordinator) recordAttempts(attempts []AttemptRecord) {
	for _, a := range attempts {
		c.collector.ObserveProviderAttempt(a.Provider, string(a.Outcome))
	}
}

// emit appends exactly one trace event per completed request. Sink failure
// is logged and swallowed.
func (c *Coordinator) emit(ctx context.Context, req *Request, res *Result) {
	if c.sink == nil {
		return
	}

	attempts := make([]trace.Attempt, 0, len(res.Attempts))
	for _, a := range res.Attempts {
		attempts = append(attempts, trace.Attempt{
			Provider: a.Provider,
			Outcome:  string(a.Outcome),
			Elapsed:  a.Elapsed.String(),
		})
	}

	origin := ""
	if res.Origin != cache.OriginNone {
		origin = string(res.Origin)
	}

	ev := &trace.Event{
		TraceID:           res.TraceID,
		UserID:            req.UserID,
		Prompt:            c.redactor.Redact(llm.LastUserContent(req.Messages)),
		Answer:            res.Answer,
		Model:             res.Model,
		LatencyMS:         float64(res.Elapsed.Milliseconds()),
		Cached:            res.Cached,
		Origin:            origin,
		Similarity:        res.Similarity,
		HallucinationFlag: res.HallucinationFlag,
		Attempts:          attempts,
		Metadata:          req.Metadata,
	}
	if err := c.sink.Append(ctx, ev); err != nil {
		c.logger.Warn("trace append failed", zap.Error(err), zap.String("trace_id", res.TraceID))
	}
}
