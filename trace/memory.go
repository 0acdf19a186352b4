package trace

import (
	"context"
	"sync"
)

// MemorySink retains records in memory for tests.
type MemorySink struct {
	mu        sync.Mutex
	events    []*Event
	feedbacks []*Feedback
	err       error
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Fail makes every subsequent append return err.
func (s *MemorySink) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Append implements Sink.
func (s *MemorySink) Append(_ context.Context, ev *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, ev)
	return nil
}

// AppendFeedback implements Sink.
func (s *MemorySink) AppendFeedback(_ context.Context, fb *Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.feedbacks = append(s.feedbacks, fb)
	return nil
}

// Events returns a copy of the recorded events.
func (s *MemorySink) Events() []*Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Event, len(s.events))
	copy(out, s.events)
	return out
}

// Feedbacks returns a copy of the recorded feedback entries.
func (s *MemorySink) Feedbacks() []*Feedback {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Feedback, len(s.feedbacks))
	copy(out, s.feedbacks)
	return out
}
