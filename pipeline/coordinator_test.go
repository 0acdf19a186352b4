package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trustgate-ai/trustgate/cache"
	"github.com/trustgate-ai/trustgate/llm"
	"github.com/trustgate-ai/trustgate/trace"
	"go.uber.org/zap"
)

type fixedEmbedder struct {
	vectors map[string][]float64
}

func (f *fixedEmbedder) EmbedQuery(_ context.Context, query string) ([]float64, error) {
	if v, ok := f.vectors[query]; ok {
		return v, nil
	}
	return []float64{0, 0, 1}, nil
}

func (f *fixedEmbedder) Name() string    { return "fixed" }
func (f *fixedEmbedder) Dimensions() int { return 3 }

type coordFixture struct {
	coordinator *Coordinator
	sink        *trace.MemorySink
	semantic    *cache.InMemorySemanticStore
}

func newCoordFixture(t *testing.T, chain []ProviderSpec, judge llm.Provider, embedder *fixedEmbedder, verifierOn bool) *coordFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := zap.NewNop()
	semantic := cache.NewInMemorySemanticStore()
	gate := cache.NewGate(cache.NewRedisStore(client, logger), semantic, embedder, cache.GateConfig{}, logger)

	var verifier *Verifier
	if judge != nil {
		verifier = NewVerifier(judge, VerifierConfig{}, logger)
	}

	sink := trace.NewMemorySink()
	coordinator := NewCoordinator(
		gate,
		NewOrchestrator(chain, logger),
		verifier,
		sink,
		nil,
		nil,
		CoordinatorConfig{VerifierEnabled: verifierOn},
		logger,
	)

	return &coordFixture{coordinator: coordinator, sink: sink, semantic: semantic}
}

func chatReq(prompt string) *Request {
	return &Request{
		UserID:   "u1",
		Messages: []llm.Message{llm.NewUserMessage(prompt)},
	}
}

func TestCoordinator_FreshThenExactCached(t *testing.T) {
	provider := &fakeProvider{name: "gpt-4o-mini", content: "Go is a language."}
	judge := &fakeProvider{name: "judge", content: "YES"}
	embedder := &fixedEmbedder{vectors: map[string][]float64{"What is Go?": {1, 0, 0}}}
	fx := newCoordFixture(t, chainOf(provider), judge, embedder, true)

	ctx := context.Background()

	first, err := fx.coordinator.Run(ctx, chatReq("What is Go?"))
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, "Go is a language.", first.Answer)
	assert.Equal(t, "gpt-4o-mini", first.Model)
	require.Len(t, first.Attempts, 1)
	assert.NotEmpty(t, first.TraceID)

	second, err := fx.coordinator.Run(ctx, chatReq("What is Go?"))
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, cache.OriginExact, second.Origin)
	assert.Equal(t, "Go is a language.", second.Answer)
	assert.Equal(t, "gpt-4o-mini", second.Model)
	assert.Empty(t, second.Attempts, "cached answers carry no attempts")
	assert.NotEqual(t, first.TraceID, second.TraceID, "each request gets a fresh trace ID")

	// Second run touched neither the provider nor the judge.
	assert.Equal(t, int32(1), provider.calls.Load())
	assert.Equal(t, int32(1), judge.calls.Load())

	events := fx.sink.Events()
	require.Len(t, events, 2)
	assert.False(t, events[0].Cached)
	assert.True(t, events[1].Cached)
	assert.Equal(t, "exact", events[1].Origin)
}

func TestCoordinator_SemanticHitOnRephrasedPrompt(t *testing.T) {
	provider := &fakeProvider{name: "gpt-4o-mini", content: "Paris."}
	embedder := &fixedEmbedder{vectors: map[string][]float64{
		"What is the capital of France?": {1, 0, 0},
		"France's capital city is what?": {0.99, 0.1, 0},
	}}
	fx := newCoordFixture(t, chainOf(provider), nil, embedder, false)

	ctx := context.Background()

	_, err := fx.coordinator.Run(ctx, chatReq("What is the capital of France?"))
	require.NoError(t, err)
	require.Equal(t, 1, fx.semantic.Len())

	res, err := fx.coordinator.Run(ctx, chatReq("France's capital city is what?"))
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Equal(t, cache.OriginSemantic, res.Origin)
	assert.Equal(t, "Paris.", res.Answer)
	assert.Greater(t, res.Similarity, 0.90)
	assert.Equal(t, int32(1), provider.calls.Load())
}

func TestCoordinator_AllProvidersFailed(t *testing.T) {
	provider := &fakeProvider{name: "gpt-4o-mini", err: errors.New("down")}
	fx := newCoordFixture(t, chainOf(provider), nil, &fixedEmbedder{}, false)

	res, err := fx.coordinator.Run(context.Background(), chatReq("hello"))
	require.Nil(t, res)

	var failed *AllFailedError
	require.ErrorAs(t, err, &failed)
	require.Len(t, failed.Attempts, 1)

	// Nothing is cached and no event is logged for a failed request.
	assert.Empty(t, fx.sink.Events())
	assert.Equal(t, 0, fx.semantic.Len())

	_, err = fx.coordinator.Run(context.Background(), chatReq("hello"))
	require.Error(t, err)
	assert.Equal(t, int32(2), provider.calls.Load(), "failed answers must not be served from cache")
}

func TestCoordinator_HallucinationFlaggedButServed(t *testing.T) {
	provider := &fakeProvider{name: "gpt-4o-mini", content: "The moon is made of cheese."}
	judge := &fakeProvider{name: "judge", content: "NO"}
	fx := newCoordFixture(t, chainOf(provider), judge, &fixedEmbedder{}, true)

	res, err := fx.coordinator.Run(context.Background(), chatReq("What is the moon made of?"))
	require.NoError(t, err)

	assert.True(t, res.HallucinationFlag)
	assert.Equal(t, "The moon is made of cheese.", res.Answer, "flagged answers are served unchanged")

	events := fx.sink.Events()
	require.Len(t, events, 1)
	assert.True(t, events[0].HallucinationFlag)
}

func TestCoordinator_VerifierFailureFailsOpen(t *testing.T) {
	provider := &fakeProvider{name: "gpt-4o-mini", content: "An answer."}
	judge := &fakeProvider{name: "judge", err: errors.New("judge offline")}
	fx := newCoordFixture(t, chainOf(provider), judge, &fixedEmbedder{}, true)

	res, err := fx.coordinator.Run(context.Background(), chatReq("q"))
	require.NoError(t, err)
	assert.False(t, res.HallucinationFlag)
	assert.Equal(t, "An answer.", res.Answer)
}

func TestCoordinator_SinkFailureDoesNotAffectResponse(t *testing.T) {
	provider := &fakeProvider{name: "gpt-4o-mini", content: "ok"}
	fx := newCoordFixture(t, chainOf(provider), nil, &fixedEmbedder{}, false)
	fx.sink.Fail(errors.New("disk full"))

	res, err := fx.coordinator.Run(context.Background(), chatReq("q"))
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Answer)
}

func TestCoordinator_CachedIffNoAttempts(t *testing.T) {
	provider := &fakeProvider{name: "gpt-4o-mini", content: "ok"}
	fx := newCoordFixture(t, chainOf(provider), nil, &fixedEmbedder{}, false)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		res, err := fx.coordinator.Run(ctx, chatReq("same prompt"))
		require.NoError(t, err)
		assert.Equal(t, res.Cached, len(res.Attempts) == 0)
	}
}

func TestCoordinator_Feedback(t *testing.T) {
	provider := &fakeProvider{name: "gpt-4o-mini", content: "ok"}
	fx := newCoordFixture(t, chainOf(provider), nil, &fixedEmbedder{}, false)

	res, err := fx.coordinator.Run(context.Background(), chatReq("q"))
	require.NoError(t, err)

	require.NoError(t, fx.coordinator.Feedback(context.Background(), res.TraceID, -1, "wrong"))

	fbs := fx.sink.Feedbacks()
	require.Len(t, fbs, 1)
	assert.Equal(t, res.TraceID, fbs[0].TraceID)
	assert.Equal(t, -1, fbs[0].Score)
	assert.Equal(t, "wrong", fbs[0].Comment)
}

func TestCoordinator_RedactorAppliesToTraceOnly(t *testing.T) {
	provider := &fakeProvider{name: "gpt-4o-mini", content: "ok"}
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := zap.NewNop()
	gate := cache.NewGate(cache.NewRedisStore(client, logger), nil, nil, cache.GateConfig{}, logger)
	sink := trace.NewMemorySink()
	coordinator := NewCoordinator(
		gate,
		NewOrchestrator(chainOf(provider), logger),
		nil, sink, maskRedactor{}, nil,
		CoordinatorConfig{}, logger,
	)

	ctx := context.Background()
	_, err := coordinator.Run(ctx, chatReq("my email is a@b.com"))
	require.NoError(t, err)

	events := sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "[redacted]", events[0].Prompt)

	// The cache key is built from the raw messages, so the identical raw
	// prompt still hits.
	res, err := coordinator.Run(ctx, chatReq("my email is a@b.com"))
	require.NoError(t, err)
	assert.True(t, res.Cached)
}

type maskRedactor struct{}

func (maskRedactor) Redact(string) string { return "[redacted]" }

func TestCoordinator_LatencyRecorded(t *testing.T) {
	provider := &fakeProvider{name: "gpt-4o-mini", content: "ok", delay: 10 * time.Millisecond}
	fx := newCoordFixture(t, chainOf(provider), nil, &fixedEmbedder{}, false)

	res, err := fx.coordinator.Run(context.Background(), chatReq("q"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Elapsed, 10*time.Millisecond)
}
