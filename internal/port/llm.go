package port

import (
	"context"

	"immigrationiq/internal/domain"
)

// LLM is the text-completion service. Whatever shape the underlying
// provider returns, implementations normalize it to a plain string so
// the core never branches on provider output types.
type LLM interface {
	// Complete generates a response to prompt given the system
	// instructions and prior conversation history (oldest first).
	Complete(ctx context.Context, system string, history []domain.Message, prompt string) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}
