package workflow

import (
	"context"
)

// Request carries the inputs every workflow execution receives.
type Request struct {
	Query   string            `json:"query"`
	UserID  string            `json:"user_id"`
	Context map[string]string `json:"context,omitempty"`
}

// ResultStatus indicates how a workflow execution ended.
type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusError   ResultStatus = "error"
)

// Result is the outcome of one workflow execution.
type Result struct {
	Kind    Kind           `json:"workflow"`
	Status  ResultStatus   `json:"status"`
	Payload map[string]any `json:"payload,omitempty"`
	Errors  []string       `json:"errors,omitempty"`
}

// ErrorResult wraps an execution failure into an error-shaped Result so the
// supervisor can record it without raising.
func ErrorResult(kind Kind, err error) Result {
	return Result{
		Kind:   kind,
		Status: StatusError,
		Errors: []string{err.Error()},
	}
}

// Executor runs one capability workflow. Implementations are opaque to the
// supervisor: they either return a result or an error, and must be safe for
// concurrent use across runs.
type Executor interface {
	// Kind returns the workflow this executor implements.
	Kind() Kind

	// Execute runs the workflow for one request.
	Execute(ctx context.Context, req Request) (Result, error)
}
