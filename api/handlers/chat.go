package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/trustgate-ai/trustgate/api"
	"github.com/trustgate-ai/trustgate/llm"
	"github.com/trustgate-ai/trustgate/pipeline"
	"go.uber.org/zap"
)

// Gateway is the pipeline surface the handlers depend on.
type Gateway interface {
	Run(ctx context.Context, req *pipeline.Request) (*pipeline.Result, error)
	Feedback(ctx context.Context, traceID string, score int, comment string) error
}

// ChatHandler serves POST /chat.
type ChatHandler struct {
	gateway Gateway
	logger  *zap.Logger
}

// NewChatHandler creates the chat handler.
func NewChatHandler(gateway Gateway, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		gateway: gateway,
		logger:  logger,
	}
}

// HandleChat runs the full pipeline for one chat request. Cache hits and
// flagged answers come back 200; only provider exhaustion is a 502.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req api.ChatRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	if err := validateChatRequest(&req); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	result, err := h.gateway.Run(r.Context(), &pipeline.Request{
		UserID:      req.UserID,
		Messages:    convertMessages(req.Messages),
		Model:       req.Model,
		Temperature: req.Temperature,
		Metadata:    req.Metadata,
	})
	if err != nil {
		h.handlePipelineError(w, err)
		return
	}

	h.logger.Info("chat completed",
		zap.String("trace_id", result.TraceID),
		zap.String("model", result.Model),
		zap.Bool("cached", result.Cached),
		zap.Bool("hallucination_flag", result.HallucinationFlag),
		zap.Duration("elapsed", result.Elapsed),
	)

	WriteSuccess(w, toChatResponse(result))
}

func validateChatRequest(req *api.ChatRequest) *llm.Error {
	if len(req.Messages) == 0 {
		return llm.NewError(llm.ErrInvalidRequest, "messages cannot be empty")
	}
	for _, m := range req.Messages {
		switch llm.Role(m.Role) {
		case llm.RoleSystem, llm.RoleUser, llm.RoleAssistant:
		default:
			return llm.NewError(llm.ErrInvalidRequest, "invalid message role: "+m.Role)
		}
	}
	if llm.LastUserContent(convertMessages(req.Messages)) == "" {
		return llm.NewError(llm.ErrInvalidRequest, "at least one user message is required")
	}
	if req.Temperature < 0 || req.Temperature > 2 {
		return llm.NewError(llm.ErrInvalidRequest, "temperature must be between 0 and 2")
	}
	return nil
}

func convertMessages(in []api.Message) []llm.Message {
	out := make([]llm.Message, len(in))
	for i, m := range in {
		out[i] = llm.Message{Role: llm.Role(m.Role), Content: m.Content}
	}
	return out
}

func toChatResponse(res *pipeline.Result) *api.ChatResponse {
	attempts := make([]api.AttemptInfo, 0, len(res.Attempts))
	for _, a := range res.Attempts {
		attempts = append(attempts, api.AttemptInfo{
			Provider: a.Provider,
			Outcome:  string(a.Outcome),
			Elapsed:  a.Elapsed.String(),
		})
	}

	origin := ""
	if res.Cached {
		origin = string(res.Origin)
	}

	return &api.ChatResponse{
		Answer:            res.Answer,
		Model:             res.Model,
		LatencyMS:         float64(res.Elapsed.Milliseconds()),
		Cached:            res.Cached,
		Origin:            origin,
		Similarity:        res.Similarity,
		HallucinationFlag: res.HallucinationFlag,
		TraceID:           res.TraceID,
		Attempts:          attempts,
	}
}

// handlePipelineError maps pipeline failures onto the envelope. Provider
// exhaustion is a 502 carrying the per-provider attempt outcomes.
func (h *ChatHandler) handlePipelineError(w http.ResponseWriter, err error) {
	var failed *pipeline.AllFailedError
	if errors.As(err, &failed) {
		attempts := make([]api.AttemptInfo, 0, len(failed.Attempts))
		for _, a := range failed.Attempts {
			attempts = append(attempts, api.AttemptInfo{
				Provider: a.Provider,
				Outcome:  string(a.Outcome),
				Elapsed:  a.Elapsed.String(),
			})
		}

		h.logger.Error("all providers failed", zap.Int("attempts", len(attempts)))
		WriteJSON(w, http.StatusBadGateway, Response{
			Success: false,
			Error: &ErrorInfo{
				Code:      string(llm.ErrRoutingUnavailable),
				Message:   "all providers failed",
				Details:   attempts,
				Retryable: true,
			},
			Timestamp: time.Now(),
		})
		return
	}

	if typedErr, ok := err.(*llm.Error); ok {
		WriteError(w, typedErr, h.logger)
		return
	}

	WriteError(w, llm.NewError(llm.ErrUpstreamError, "pipeline error").WithCause(err), h.logger)
}
