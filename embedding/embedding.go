// Package embedding provides the embedding collaborator consumed by the
// cache gate. The gateway only needs single-query embeddings; batch and
// document variants are out of scope.
package embedding

import "context"

// Provider turns request text into a fixed-length vector. Failure is a
// recoverable error: the cache gate degrades to exact-only lookup.
type Provider interface {
	// EmbedQuery embeds a single query string.
	EmbedQuery(ctx context.Context, query string) ([]float64, error)

	// Name returns the provider's unique identifier.
	Name() string

	// Dimensions returns the vector length this provider produces.
	Dimensions() int
}
