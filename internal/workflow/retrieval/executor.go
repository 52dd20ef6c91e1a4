package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/triaged/internal/llm"
	"github.com/fyrsmithlabs/triaged/internal/logging"
	"github.com/fyrsmithlabs/triaged/internal/workflow"
	"go.uber.org/zap"
)

// answerPromptTemplate turns retrieved chunks into a grounded answer.
const answerPromptTemplate = `Answer the user's question using only the excerpts from their documents below.
If the excerpts do not contain the answer, say so plainly.

Excerpts:
%s

Question: %s`

// Executor implements the information-retrieval workflow.
type Executor struct {
	index  *Index
	client llm.Client
	topK   int
	logger *logging.Logger
}

// NewExecutor creates the retrieval executor.
func NewExecutor(index *Index, client llm.Client, topK int, logger *logging.Logger) (*Executor, error) {
	if index == nil {
		return nil, fmt.Errorf("index is required")
	}
	if client == nil {
		return nil, fmt.Errorf("llm client is required")
	}
	if topK <= 0 {
		topK = 5
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Executor{
		index:  index,
		client: client,
		topK:   topK,
		logger: logger,
	}, nil
}

// Kind returns the workflow this executor implements.
func (e *Executor) Kind() workflow.Kind {
	return workflow.KindInformationRetrieval
}

// Execute searches the user's indexed documents and summarizes the hits
// into an answer.
func (e *Executor) Execute(ctx context.Context, req workflow.Request) (workflow.Result, error) {
	hits, err := e.index.Search(ctx, req.UserID, req.Query, e.topK)
	if err != nil {
		return workflow.Result{}, fmt.Errorf("document search failed: %w", err)
	}

	if len(hits) == 0 {
		return workflow.Result{
			Kind:   e.Kind(),
			Status: workflow.StatusSuccess,
			Payload: map[string]any{
				"answer":  "No indexed document content matched the question.",
				"sources": []string{},
			},
		}, nil
	}

	var excerpts strings.Builder
	sources := make([]string, 0, len(hits))
	for i, hit := range hits {
		fmt.Fprintf(&excerpts, "[%d] %s\n", i+1, hit.Content)
		sources = append(sources, hit.DocID)
	}

	prompt := fmt.Sprintf(answerPromptTemplate, excerpts.String(), req.Query)
	answer, err := e.client.Complete(ctx, prompt)
	if err != nil {
		return workflow.Result{}, fmt.Errorf("answer generation failed: %w", err)
	}

	e.logger.Debug(ctx, "retrieval workflow complete",
		zap.Int("hits", len(hits)),
		zap.Int("answer_len", len(answer)))

	return workflow.Result{
		Kind:   e.Kind(),
		Status: workflow.StatusSuccess,
		Payload: map[string]any{
			"answer":  answer,
			"sources": sources,
		},
	}, nil
}

var _ workflow.Executor = (*Executor)(nil)
