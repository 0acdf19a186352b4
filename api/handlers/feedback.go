package handlers

import (
	"net/http"

	"github.com/trustgate-ai/trustgate/api"
	"github.com/trustgate-ai/trustgate/llm"
	"go.uber.org/zap"
)

// FeedbackHandler serves POST /feedback.
type FeedbackHandler struct {
	gateway Gateway
	logger  *zap.Logger
}

// NewFeedbackHandler creates the feedback handler.
func NewFeedbackHandler(gateway Gateway, logger *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		gateway: gateway,
		logger:  logger,
	}
}

// HandleFeedback records a user score against a trace ID. The trace ID is
// not checked against the log; correlation happens offline.
func (h *FeedbackHandler) HandleFeedback(w http.ResponseWriter, r *http.Request) {
	var req api.FeedbackRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	if req.TraceID == "" {
		WriteError(w, llm.NewError(llm.ErrInvalidRequest, "trace_id is required"), h.logger)
		return
	}

	if err := h.gateway.Feedback(r.Context(), req.TraceID, req.Score, req.Comment); err != nil {
		h.logger.Warn("feedback append failed",
			zap.String("trace_id", req.TraceID),
			zap.Error(err),
		)
		WriteErrorMessage(w, http.StatusInternalServerError, llm.ErrUpstreamError, "failed to record feedback", h.logger)
		return
	}

	h.logger.Info("feedback recorded",
		zap.String("trace_id", req.TraceID),
		zap.Int("score", req.Score),
	)

	WriteSuccess(w, api.FeedbackResponse{Status: "recorded", TraceID: req.TraceID})
}
