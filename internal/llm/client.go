// Package llm provides the text-completion client used for workflow
// classification and strategy guidance.
//
// The client talks to the Anthropic messages API directly over HTTP. Callers
// depend on the Client interface so tests can substitute a stub.
package llm

import (
	"context"
	"errors"
)

// Client generates a text completion for a prompt.
//
// Implementations must be safe for use by multiple concurrent
// orchestration runs.
type Client interface {
	// Complete sends the prompt and returns the generated text.
	Complete(ctx context.Context, prompt string) (string, error)
}

// retryableError marks errors worth retrying (rate limits, 5xx, network).
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// isRetryableError reports whether err is transient.
func isRetryableError(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}
