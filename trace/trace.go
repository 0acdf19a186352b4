// Package trace provides the gateway's observability log: one Event per
// completed request, correlated with later user Feedback by trace ID.
package trace

import (
	"context"
	"time"
)

// Event is the externally visible record of one pipeline run. It is emitted
// exactly once per request; a second record keyed by the same TraceID is
// appended only when feedback arrives later.
type Event struct {
	TraceID           string         `json:"trace_id"`
	UserID            string         `json:"user_id,omitempty"`
	Prompt            string         `json:"prompt"`
	Answer            string         `json:"answer"`
	Model             string         `json:"model"`
	LatencyMS         float64        `json:"latency_ms"`
	Cached            bool           `json:"cached"`
	Origin            string         `json:"origin,omitempty"`
	Similarity        float64        `json:"similarity,omitempty"`
	HallucinationFlag bool           `json:"hallucination_flag"`
	Attempts          []Attempt      `json:"attempts,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	Timestamp         time.Time      `json:"ts"`
}

// Attempt mirrors one fallback attempt for the trace record.
type Attempt struct {
	Provider string `json:"provider"`
	Outcome  string `json:"outcome"`
	Elapsed  string `json:"elapsed"`
}

// Feedback is a user score correlated to a previously emitted Event.
type Feedback struct {
	TraceID   string    `json:"trace_id"`
	Score     int       `json:"feedback"`
	Comment   string    `json:"comment,omitempty"`
	Timestamp time.Time `json:"ts"`
}

// Sink receives trace records. Appends are fire-and-forget from the
// pipeline's perspective: a sink failure never affects the response.
type Sink interface {
	Append(ctx context.Context, ev *Event) error
	AppendFeedback(ctx context.Context, fb *Feedback) error
}
