package cache

import (
	"context"
	"math"
	"sync"
)

// InMemorySemanticStore is a SemanticStore for tests and small single-node
// deployments. Similarity is plain cosine over the stored vectors.
type InMemorySemanticStore struct {
	mu     sync.RWMutex
	points map[string]memoryPoint
}

type memoryPoint struct {
	vector []float64
	answer string
	model  string
}

// NewInMemorySemanticStore creates an empty in-memory store.
func NewInMemorySemanticStore() *InMemorySemanticStore {
	return &InMemorySemanticStore{points: make(map[string]memoryPoint)}
}

// Search returns the nearest stored neighbor, or nil when the store is empty.
// Thresholding is left to the caller.
func (s *InMemorySemanticStore) Search(_ context.Context, vector []float64) (*Neighbor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *Neighbor
	for _, p := range s.points {
		score := cosineSimilarity(vector, p.vector)
		if best == nil || score > best.Score {
			best = &Neighbor{Answer: p.answer, Model: p.model, Score: score}
		}
	}
	return best, nil
}

// Upsert stores or replaces the point for a key.
func (s *InMemorySemanticStore) Upsert(_ context.Context, key string, vector []float64, answer, model string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points[key] = memoryPoint{vector: vector, answer: answer, model: model}
	return nil
}

// Len returns the number of stored points.
func (s *InMemorySemanticStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
