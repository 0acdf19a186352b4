package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Neighbor is the nearest semantic match returned by a SemanticStore.
type Neighbor struct {
	Answer string  `json:"answer"`
	Model  string  `json:"model"`
	Score  float64 `json:"score"`
}

// SemanticStore is the similarity-search collaborator contract. Search
// returns the single nearest neighbor or nil when the index is empty or
// nothing clears the store's threshold.
type SemanticStore interface {
	Search(ctx context.Context, vector []float64) (*Neighbor, error)
	Upsert(ctx context.Context, key string, vector []float64, answer, model string) error
}

// QdrantConfig configures the Qdrant-backed SemanticStore.
//
// Notes:
//   - Qdrant point IDs are UUIDs; trustgate derives a stable UUID from the
//     entry fingerprint so re-caching the same conversation overwrites the
//     old point instead of accumulating duplicates.
//   - ScoreThreshold is pushed down to Qdrant so below-threshold neighbors
//     never leave the store.
type QdrantConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	APIKey         string        `yaml:"api_key" json:"-"`
	Collection     string        `yaml:"collection" json:"collection"`
	VectorSize     int           `yaml:"vector_size" json:"vector_size"`
	ScoreThreshold float64       `yaml:"score_threshold" json:"score_threshold"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout,omitempty"`
}

// QdrantStore implements SemanticStore using Qdrant's REST API.
type QdrantStore struct {
	cfg QdrantConfig

	baseURL string
	client  *http.Client
	logger  *zap.Logger

	ensureOnce sync.Once
	ensureErr  error
}

// NewQdrantStore creates a Qdrant-backed SemanticStore.
func NewQdrantStore(cfg QdrantConfig, logger *zap.Logger) *QdrantStore {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:6333"
	}
	if cfg.Collection == "" {
		cfg.Collection = "semantic_cache"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &QdrantStore{
		cfg:     cfg,
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger.With(zap.String("component", "qdrant_store")),
	}
}

var pointNamespace = uuid.MustParse("7c9e3a51-2b68-4d0f-9a4e-1f6b8c2d5e37")

// pointID derives a stable UUID from the fingerprint (Qdrant requires
// UUID or integer point IDs).
func pointID(key string) string {
	return uuid.NewSHA1(pointNamespace, []byte(key)).String()
}

func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	s.ensureOnce.Do(func() {
		body := map[string]any{
			"vectors": map[string]any{
				"size":     s.cfg.VectorSize,
				"distance": "Cosine",
			},
		}

		endpoint := fmt.Sprintf("%s/collections/%s", s.baseURL, url.PathEscape(s.cfg.Collection))
		reqBody, _ := json.Marshal(body)
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(reqBody))
		if err != nil {
			s.ensureErr = err
			return
		}
		req.Header.Set("Content-Type", "application/json")
		if s.cfg.APIKey != "" {
			req.Header.Set("api-key", s.cfg.APIKey)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			s.ensureErr = err
			return
		}
		defer resp.Body.Close()

		// Qdrant returns 409 if the collection already exists.
		if resp.StatusCode == http.StatusConflict {
			s.ensureErr = nil
			return
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			raw, _ := io.ReadAll(resp.Body)
			s.ensureErr = fmt.Errorf("qdrant create collection failed: status=%d body=%s", resp.StatusCode, string(raw))
			return
		}
		s.ensureErr = nil
	})
	return s.ensureErr
}

func (s *QdrantStore) doJSON(ctx context.Context, method, path string, in, out any) error {
	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal qdrant request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create qdrant request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("api-key", s.cfg.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("qdrant %s %s failed: status=%d body=%s", method, path, resp.StatusCode, string(raw))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode qdrant response: %w", err)
		}
	}
	return nil
}

// Search returns the nearest cached answer above the configured score
// threshold, or nil when nothing qualifies.
func (s *QdrantStore) Search(ctx context.Context, vector []float64) (*Neighbor, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("query vector is required")
	}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}

	req := struct {
		Vector         []float64 `json:"vector"`
		Limit          int       `json:"limit"`
		WithPayload    bool      `json:"with_payload"`
		ScoreThreshold float64   `json:"score_threshold,omitempty"`
	}{
		Vector:         vector,
		Limit:          1,
		WithPayload:    true,
		ScoreThreshold: s.cfg.ScoreThreshold,
	}

	var resp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
		Status string `json:"status"`
	}

	path := fmt.Sprintf("/collections/%s/points/search", url.PathEscape(s.cfg.Collection))
	if err := s.doJSON(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Result) == 0 {
		return nil, nil
	}

	top := resp.Result[0]
	n := &Neighbor{Score: top.Score}
	if v, ok := top.Payload["answer"].(string); ok {
		n.Answer = v
	}
	if v, ok := top.Payload["model"].(string); ok {
		n.Model = v
	}
	if n.Answer == "" || n.Model == "" {
		// Payload written by an incompatible schema; not usable as a hit.
		return nil, nil
	}
	return n, nil
}

// Upsert writes the answer under a fingerprint-derived point ID.
func (s *QdrantStore) Upsert(ctx context.Context, key string, vector []float64, answer, model string) error {
	if err := s.ensureCollection(ctx); err != nil {
		return err
	}

	req := map[string]any{
		"points": []map[string]any{{
			"id":     pointID(key),
			"vector": vector,
			"payload": map[string]any{
				"fingerprint": key,
				"answer":      answer,
				"model":       model,
			},
		}},
	}

	var resp any
	path := fmt.Sprintf("/collections/%s/points?wait=true", url.PathEscape(s.cfg.Collection))
	if err := s.doJSON(ctx, http.MethodPut, path, req, &resp); err != nil {
		return err
	}

	s.logger.Debug("qdrant upsert completed", zap.String("fingerprint", key))
	return nil
}
