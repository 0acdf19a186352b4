package cache

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestQdrantStore_SearchAndUpsert(t *testing.T) {
	t.Parallel()

	var createCalls, upsertCalls, searchCalls atomic.Int64

	mux := http.NewServeMux()

	mux.HandleFunc("/collections/semantic_cache", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		createCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","result":{}}`))
	})

	mux.HandleFunc("/collections/semantic_cache/points", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		upsertCalls.Add(1)

		var req struct {
			Points []struct {
				ID      string         `json:"id"`
				Vector  []float64      `json:"vector"`
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Points, 1)
		require.NotEmpty(t, req.Points[0].ID)
		require.Equal(t, "Python is a language.", req.Points[0].Payload["answer"])

		_, _ = w.Write([]byte(`{"status":"ok","result":{"operation_id":1}}`))
	})

	mux.HandleFunc("/collections/semantic_cache/points/search", func(w http.ResponseWriter, r *http.Request) {
		searchCalls.Add(1)

		var req struct {
			Vector         []float64 `json:"vector"`
			Limit          int       `json:"limit"`
			ScoreThreshold float64   `json:"score_threshold"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, 1, req.Limit)
		require.InDelta(t, 0.9, req.ScoreThreshold, 1e-9)

		_, _ = w.Write([]byte(`{"status":"ok","result":[{"id":"p1","score":0.95,"payload":{"answer":"Python is a language.","model":"gpt-4o-mini","fingerprint":"fp1"}}]}`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := NewQdrantStore(QdrantConfig{
		BaseURL:        srv.URL,
		VectorSize:     3,
		ScoreThreshold: 0.9,
	}, zap.NewNop())

	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "fp1", []float64{0.1, 0.2, 0.3}, "Python is a language.", "gpt-4o-mini"))

	n, err := store.Search(ctx, []float64{0.1, 0.2, 0.3})
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "Python is a language.", n.Answer)
	assert.Equal(t, "gpt-4o-mini", n.Model)
	assert.InDelta(t, 0.95, n.Score, 1e-9)

	// The collection is created lazily, once.
	assert.Equal(t, int64(1), createCalls.Load())
	assert.Equal(t, int64(1), upsertCalls.Load())
	assert.Equal(t, int64(1), searchCalls.Load())
}

func TestQdrantStore_SearchEmpty(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/collections/semantic_cache", func(w http.ResponseWriter, r *http.Request) {
		// Collection already exists.
		w.WriteHeader(http.StatusConflict)
	})
	mux.HandleFunc("/collections/semantic_cache/points/search", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok","result":[]}`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := NewQdrantStore(QdrantConfig{BaseURL: srv.URL, VectorSize: 3}, zap.NewNop())

	n, err := store.Search(context.Background(), []float64{1, 0, 0})
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestQdrantStore_StablePointID(t *testing.T) {
	assert.Equal(t, pointID("fp1"), pointID("fp1"))
	assert.NotEqual(t, pointID("fp1"), pointID("fp2"))
}

func TestInMemorySemanticStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemorySemanticStore()

	require.NoError(t, store.Upsert(ctx, "a", []float64{1, 0, 0}, "answer a", "m1"))
	require.NoError(t, store.Upsert(ctx, "b", []float64{0, 1, 0}, "answer b", "m2"))

	n, err := store.Search(ctx, []float64{0.9, 0.1, 0})
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "answer a", n.Answer)

	// Upsert with the same key replaces instead of duplicating.
	require.NoError(t, store.Upsert(ctx, "a", []float64{1, 0, 0}, "answer a2", "m1"))
	assert.Equal(t, 2, store.Len())
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float64{1, 2, 3}, []float64{1, 2, 3}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.Zero(t, cosineSimilarity([]float64{1, 0}, []float64{0, 1, 2}))
	assert.Zero(t, cosineSimilarity(nil, nil))
}
