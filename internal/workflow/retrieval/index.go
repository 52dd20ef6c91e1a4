// Package retrieval implements the information-retrieval workflow: semantic
// search over the user's indexed document content, summarized into an
// answer by the LLM.
package retrieval

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/fyrsmithlabs/triaged/internal/logging"
	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"
)

// IndexConfig holds configuration for the embedded vector index.
type IndexConfig struct {
	// Path is the directory for persistent storage. Empty keeps the index
	// in memory only.
	Path string

	// Embedding computes the vector for a text chunk. Required.
	Embedding chromem.EmbeddingFunc
}

// Index stores document content per user and answers similarity queries.
// Each user gets an isolated collection so one user's documents can never
// surface in another user's results.
type Index struct {
	db     *chromem.DB
	embed  chromem.EmbeddingFunc
	logger *logging.Logger

	// collections tracks created collections by name.
	collections sync.Map
}

// NewIndex creates an index. With a non-empty path the index persists to
// disk and survives restarts.
func NewIndex(cfg IndexConfig, logger *logging.Logger) (*Index, error) {
	if cfg.Embedding == nil {
		return nil, fmt.Errorf("embedding function is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	var db *chromem.DB
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		if err := os.MkdirAll(cfg.Path, 0755); err != nil {
			return nil, fmt.Errorf("creating index directory %s: %w", cfg.Path, err)
		}
		var err error
		db, err = chromem.NewPersistentDB(cfg.Path, false)
		if err != nil {
			return nil, fmt.Errorf("creating persistent index: %w", err)
		}
	}

	return &Index{
		db:     db,
		embed:  cfg.Embedding,
		logger: logger,
	}, nil
}

// collectionName isolates users by name; chromem collection names are
// restricted, so user IDs must already be identifier-safe (enforced at the
// API boundary).
func collectionName(userID string) string {
	return "user_" + userID
}

func (ix *Index) getOrCreateCollection(userID string) (*chromem.Collection, error) {
	name := collectionName(userID)
	if c, ok := ix.collections.Load(name); ok {
		return c.(*chromem.Collection), nil
	}

	collection, err := ix.db.GetOrCreateCollection(name, nil, ix.embed)
	if err != nil {
		return nil, fmt.Errorf("creating collection %s: %w", name, err)
	}
	ix.collections.Store(name, collection)
	return collection, nil
}

// AddContent indexes one document's text for a user. Re-adding the same
// document ID replaces the stored content.
func (ix *Index) AddContent(ctx context.Context, userID, docID, content string, metadata map[string]string) error {
	if content == "" {
		return fmt.Errorf("content cannot be empty")
	}
	collection, err := ix.getOrCreateCollection(userID)
	if err != nil {
		return err
	}

	doc := chromem.Document{
		ID:       docID,
		Content:  content,
		Metadata: metadata,
	}
	if err := collection.AddDocuments(ctx, []chromem.Document{doc}, 1); err != nil {
		return fmt.Errorf("indexing document %s: %w", docID, err)
	}

	ix.logger.Debug(ctx, "document content indexed",
		zap.String("doc_id", docID),
		zap.Int("content_len", len(content)))
	return nil
}

// Hit is one similarity-search result.
type Hit struct {
	DocID      string
	Content    string
	Similarity float32
	Metadata   map[string]string
}

// Search returns up to k document chunks most similar to the query for the
// given user. An empty index returns no hits, not an error.
func (ix *Index) Search(ctx context.Context, userID, query string, k int) ([]Hit, error) {
	collection, err := ix.getOrCreateCollection(userID)
	if err != nil {
		return nil, err
	}

	count := collection.Count()
	if count == 0 {
		return nil, nil
	}
	// chromem rejects nResults above the collection size.
	if k > count {
		k = count
	}

	results, err := collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, Hit{
			DocID:      r.ID,
			Content:    r.Content,
			Similarity: r.Similarity,
			Metadata:   r.Metadata,
		})
	}
	return hits, nil
}
