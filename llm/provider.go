package llm

import "context"

// Provider is the generate-text capability implemented by each vendor
// adapter. Implementations must honor ctx cancellation so that a caller's
// per-call timeout also cancels the in-flight upstream request.
type Provider interface {
	// Generate performs a synchronous text generation call.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// Name returns the provider's unique identifier.
	Name() string
}
