package trace

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// JSONLSink appends records as newline-delimited JSON to a local file.
type JSONLSink struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
}

// NewJSONLSink creates a sink writing to path, creating parent directories
// as needed.
func NewJSONLSink(path string, logger *zap.Logger) (*JSONLSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return &JSONLSink{
		path:   path,
		logger: logger.With(zap.String("component", "jsonl_sink")),
	}, nil
}

// Append writes one Event record.
func (s *JSONLSink) Append(_ context.Context, ev *Event) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	return s.writeRecord(ev)
}

// AppendFeedback writes one Feedback record keyed by the same trace ID as
// the Event it scores.
func (s *JSONLSink) AppendFeedback(_ context.Context, fb *Feedback) error {
	if fb.Timestamp.IsZero() {
		fb.Timestamp = time.Now()
	}
	return s.writeRecord(fb)
}

func (s *JSONLSink) writeRecord(record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal trace record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fp, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open trace log: %w", err)
	}
	defer fp.Close()

	if _, err := fp.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write trace record: %w", err)
	}
	return nil
}
