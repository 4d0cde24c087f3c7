package mistral

import (
	"context"
)

// Servicer defines the interface for Mistral service operations
type Servicer interface {
	// Complete sends a completion request to the Mistral API
	Complete(ctx context.Context, messages []ChatMessage, opts CompletionOptions) (*ChatResponse, error)

	// GetContent is a helper function that returns just the content from the first choice
	GetContent(ctx context.Context, messages []ChatMessage, opts CompletionOptions) (string, error)
}

// Ensure MistralService implements Servicer
var _ Servicer = (*MistralService)(nil)
