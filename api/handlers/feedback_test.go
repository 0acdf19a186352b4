package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trustgate-ai/trustgate/api"
	"go.uber.org/zap"
)

func TestFeedbackHandler_Recorded(t *testing.T) {
	gw := &fakeGateway{}
	h := NewFeedbackHandler(gw, zap.NewNop())

	rec := postJSON(t, h.HandleFeedback, api.FeedbackRequest{
		TraceID: "trace-1",
		Score:   -1,
		Comment: "made that up",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.True(t, resp.Success)

	require.Len(t, gw.feedbacks, 1)
	assert.Equal(t, "trace-1", gw.feedbacks[0].traceID)
	assert.Equal(t, -1, gw.feedbacks[0].score)
	assert.Equal(t, "made that up", gw.feedbacks[0].comment)
}

func TestFeedbackHandler_MissingTraceID(t *testing.T) {
	h := NewFeedbackHandler(&fakeGateway{}, zap.NewNop())

	rec := postJSON(t, h.HandleFeedback, api.FeedbackRequest{Score: 1})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, "LLM_INVALID_REQUEST", resp.Error.Code)
}

func TestFeedbackHandler_SinkFailure(t *testing.T) {
	gw := &fakeGateway{feedbackErr: errors.New("disk full")}
	h := NewFeedbackHandler(gw, zap.NewNop())

	rec := postJSON(t, h.HandleFeedback, api.FeedbackRequest{TraceID: "trace-1"})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
