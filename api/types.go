package api

// Message is one conversation turn in a chat request.
type Message struct {
	// Role: system, user or assistant
	Role string `json:"role"`
	// Message text
	Content string `json:"content"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	// Caller identity, echoed into the trace log
	UserID string `json:"user_id,omitempty"`
	// Requested model; empty means the configured chain decides
	Model string `json:"model,omitempty"`
	// Conversation messages
	Messages []Message `json:"messages"`
	// Sampling temperature (0-2)
	Temperature float32 `json:"temperature,omitempty"`
	// Custom metadata copied into the trace record
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ChatResponse is the body of a successful POST /chat.
type ChatResponse struct {
	Answer            string        `json:"answer"`
	Model             string        `json:"model"`
	LatencyMS         float64       `json:"latency_ms"`
	Cached            bool          `json:"cached"`
	Origin            string        `json:"origin,omitempty"`
	Similarity        float64       `json:"similarity,omitempty"`
	HallucinationFlag bool          `json:"hallucination_flag"`
	TraceID           string        `json:"trace_id"`
	Attempts          []AttemptInfo `json:"attempts,omitempty"`
}

// AttemptInfo is one fallback attempt in a ChatResponse.
type AttemptInfo struct {
	Provider string `json:"provider"`
	Outcome  string `json:"outcome"`
	Elapsed  string `json:"elapsed"`
}

// FeedbackRequest is the body of POST /feedback. Score follows the
// trace log convention: positive is helpful, negative is not.
type FeedbackRequest struct {
	TraceID string `json:"trace_id"`
	Score   int    `json:"feedback"`
	Comment string `json:"comment,omitempty"`
}

// FeedbackResponse acknowledges a recorded feedback submission.
type FeedbackResponse struct {
	Status  string `json:"status"`
	TraceID string `json:"trace_id"`
}
