package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fyrsmithlabs/triaged/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedding produces deterministic vectors so similarity search works
// without a real embedding service: texts sharing words land near each
// other in the toy space.
func stubEmbedding(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, 8)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		var sum int
		for _, r := range word {
			sum += int(r)
		}
		vec[sum%len(vec)] += 1
	}
	// Normalize so cosine similarity behaves.
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		vec[0] = 1
		norm = 1
	}
	for i := range vec {
		vec[i] /= sqrt32(norm)
	}
	return vec, nil
}

func sqrt32(v float32) float32 {
	// Newton's method is plenty for test vectors.
	x := v
	for i := 0; i < 20; i++ {
		x = (x + v/x) / 2
	}
	return x
}

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

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := NewIndex(IndexConfig{Embedding: stubEmbedding}, nil)
	require.NoError(t, err)
	return ix
}

func TestNewIndexRequiresEmbedding(t *testing.T) {
	_, err := NewIndex(IndexConfig{}, nil)
	assert.Error(t, err)
}

func TestIndexSearchEmptyReturnsNoHits(t *testing.T) {
	ix := newTestIndex(t)
	hits, err := ix.Search(context.Background(), "u", "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndexIsolatesUsers(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.AddContent(ctx, "alice", "d1", "copay is twenty dollars", nil))

	hits, err := ix.Search(ctx, "bob", "copay", 5)
	require.NoError(t, err)
	assert.Empty(t, hits, "bob must not see alice's documents")

	hits, err = ix.Search(ctx, "alice", "copay", 5)
	require.NoError(t, err)
	assert.NotEmpty(t, hits)
}

func TestIndexClampsTopK(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()
	require.NoError(t, ix.AddContent(ctx, "u", "d1", "deductible is five hundred", nil))

	// Asking for more results than documents must not error.
	hits, err := ix.Search(ctx, "u", "deductible", 50)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestExecutorAnswersFromHits(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()
	require.NoError(t, ix.AddContent(ctx, "u", "benefits-1", "the copay for doctor visits is twenty dollars", nil))

	client := &stubLLM{reply: "Your copay is $20."}
	exec, err := NewExecutor(ix, client, 5, nil)
	require.NoError(t, err)

	res, err := exec.Execute(ctx, workflow.Request{Query: "what is my copay?", UserID: "u"})
	require.NoError(t, err)

	assert.Equal(t, workflow.KindInformationRetrieval, res.Kind)
	assert.Equal(t, workflow.StatusSuccess, res.Status)
	assert.Equal(t, "Your copay is $20.", res.Payload["answer"])
	assert.Equal(t, []string{"benefits-1"}, res.Payload["sources"])
	assert.Contains(t, client.lastPrompt, "twenty dollars", "prompt must carry the excerpt")
	assert.Contains(t, client.lastPrompt, "what is my copay?")
}

func TestExecutorNoHitsSkipsLLM(t *testing.T) {
	ix := newTestIndex(t)
	client := &stubLLM{reply: "should not be called"}
	exec, err := NewExecutor(ix, client, 5, nil)
	require.NoError(t, err)

	res, err := exec.Execute(context.Background(), workflow.Request{Query: "q", UserID: "empty-user"})
	require.NoError(t, err)

	assert.Equal(t, workflow.StatusSuccess, res.Status)
	assert.Empty(t, client.lastPrompt, "LLM must not be called without hits")
	assert.NotEmpty(t, res.Payload["answer"])
}

func TestExecutorPropagatesLLMError(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()
	require.NoError(t, ix.AddContent(ctx, "u", "d1", "some content here", nil))

	exec, err := NewExecutor(ix, &stubLLM{err: errors.New("model overloaded")}, 5, nil)
	require.NoError(t, err)

	_, err = exec.Execute(ctx, workflow.Request{Query: "content", UserID: "u"})
	assert.Error(t, err, "executor errors surface to the supervisor, which contains them")
}
