package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/trustgate-ai/trustgate/llm"
	"go.uber.org/zap"
)

// Verdict is the verifier's judgement on a generated answer.
type Verdict string

const (
	VerdictConsistent   Verdict = "consistent"
	VerdictInconsistent Verdict = "inconsistent"
	// VerdictUnknown means the check could not be completed; the answer is
	// served unflagged (fail-open).
	VerdictUnknown Verdict = "unknown"
)

const verifierSystemPrompt = "You are checking an assistant's answer for factuality. " +
	"Given the question and answer, return YES if the answer is factual and consistent, " +
	"otherwise NO. Respond with only YES or NO."

// VerifierConfig tunes the consistency check.
type VerifierConfig struct {
	// Timeout bounds the judge call (default 12s).
	Timeout time.Duration
}

// Verifier asks a judge model whether an answer is consistent with its
// question. It is advisory only: a flagged answer is still served, and a
// failed check degrades to VerdictUnknown.
type Verifier struct {
	judge  llm.Provider
	cfg    VerifierConfig
	logger *zap.Logger
}

const defaultVerifierTimeout = 12 * time.Second

// NewVerifier creates a verifier backed by the given judge provider.
func NewVerifier(judge llm.Provider, cfg VerifierConfig, logger *zap.Logger) *Verifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultVerifierTimeout
	}
	return &Verifier{
		judge:  judge,
		cfg:    cfg,
		logger: logger.With(zap.String("component", "verifier")),
	}
}

// Check judges the answer against the question. It never returns an error:
// judge failures and unparseable replies yield VerdictUnknown.
func (v *Verifier) Check(ctx context.Context, question, answer string) Verdict {
	checkCtx, cancel := context.WithTimeout(ctx, v.cfg.Timeout)
	defer cancel()

	resp, err := v.judge.Generate(checkCtx, &llm.GenerateRequest{
		Messages: []llm.Message{
			llm.NewSystemMessage(verifierSystemPrompt),
			llm.NewUserMessage("Question: " + question + "\n\nAnswer: " + answer),
		},
		Temperature: 0,
	})
	if err != nil {
		v.logger.Warn("consistency check unavailable", zap.Error(err))
		return VerdictUnknown
	}

	return parseVerdict(resp.Content)
}

// parseVerdict maps a judge reply onto a Verdict. Only a reply starting
// with YES or NO counts; anything else is unknown.
func parseVerdict(reply string) Verdict {
	s := strings.ToUpper(strings.TrimSpace(reply))
	switch {
	case strings.HasPrefix(s, "YES"):
		return VerdictConsistent
	case strings.HasPrefix(s, "NO"):
		return VerdictInconsistent
	default:
		return VerdictUnknown
	}
}
