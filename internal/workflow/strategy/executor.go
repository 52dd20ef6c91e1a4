// Package strategy implements the strategy-guidance workflow: the LLM
// produces step-by-step guidance for goals that span multiple decisions.
package strategy

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/fyrsmithlabs/triaged/internal/llm"
	"github.com/fyrsmithlabs/triaged/internal/logging"
	"github.com/fyrsmithlabs/triaged/internal/workflow"
	"go.uber.org/zap"
)

const guidancePromptTemplate = `You are a benefits navigation assistant. The user needs practical guidance, not document lookups.

Produce short, numbered, actionable steps for the goal below. Be specific and avoid generic advice.
%s
Goal: %s`

// Executor implements the strategy-guidance workflow.
type Executor struct {
	client llm.Client
	logger *logging.Logger
}

// NewExecutor creates the strategy executor.
func NewExecutor(client llm.Client, logger *logging.Logger) (*Executor, error) {
	if client == nil {
		return nil, fmt.Errorf("llm client is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Executor{client: client, logger: logger}, nil
}

// Kind returns the workflow this executor implements.
func (e *Executor) Kind() workflow.Kind {
	return workflow.KindStrategy
}

// Execute asks the LLM for guidance toward the user's goal.
func (e *Executor) Execute(ctx context.Context, req workflow.Request) (workflow.Result, error) {
	prompt := fmt.Sprintf(guidancePromptTemplate, renderContext(req.Context), req.Query)

	guidance, err := e.client.Complete(ctx, prompt)
	if err != nil {
		return workflow.Result{}, fmt.Errorf("guidance generation failed: %w", err)
	}

	e.logger.Debug(ctx, "strategy workflow complete",
		zap.Int("guidance_len", len(guidance)))

	return workflow.Result{
		Kind:   e.Kind(),
		Status: workflow.StatusSuccess,
		Payload: map[string]any{
			"guidance": guidance,
		},
	}, nil
}

// renderContext flattens the request context map into a prompt section.
// Keys are sorted so prompts are reproducible.
func renderContext(kv map[string]string) string {
	if len(kv) == 0 {
		return ""
	}
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("\nKnown context:\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %s\n", k, kv[k])
	}
	return b.String()
}

var _ workflow.Executor = (*Executor)(nil)
