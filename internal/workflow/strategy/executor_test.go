package strategy

import (
	"context"
	"errors"
	"testing"

	"github.com/fyrsmithlabs/triaged/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLLM struct {
	reply      string
	err        error
	lastPrompt string
}

func (s *stubLLM) Complete(ctx context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func TestNewExecutorRequiresClient(t *testing.T) {
	_, err := NewExecutor(nil, nil)
	assert.Error(t, err)
}

func TestExecuteReturnsGuidance(t *testing.T) {
	client := &stubLLM{reply: "1. Check the provider directory.\n2. Call the listed office."}
	exec, err := NewExecutor(client, nil)
	require.NoError(t, err)

	res, err := exec.Execute(context.Background(), workflow.Request{
		Query:  "How do I find a doctor in my network?",
		UserID: "u",
	})
	require.NoError(t, err)

	assert.Equal(t, workflow.KindStrategy, res.Kind)
	assert.Equal(t, workflow.StatusSuccess, res.Status)
	assert.Equal(t, client.reply, res.Payload["guidance"])
	assert.Contains(t, client.lastPrompt, "How do I find a doctor in my network?")
}

func TestExecuteIncludesContextSorted(t *testing.T) {
	client := &stubLLM{reply: "steps"}
	exec, err := NewExecutor(client, nil)
	require.NoError(t, err)

	_, err = exec.Execute(context.Background(), workflow.Request{
		Query:  "plan a claim",
		UserID: "u",
		Context: map[string]string{
			"plan":  "PPO",
			"state": "CO",
		},
	})
	require.NoError(t, err)

	assert.Contains(t, client.lastPrompt, "- plan: PPO")
	assert.Contains(t, client.lastPrompt, "- state: CO")
}

func TestExecutePropagatesLLMError(t *testing.T) {
	exec, err := NewExecutor(&stubLLM{err: errors.New("timeout")}, nil)
	require.NoError(t, err)

	_, err = exec.Execute(context.Background(), workflow.Request{Query: "q", UserID: "u"})
	assert.Error(t, err)
}
