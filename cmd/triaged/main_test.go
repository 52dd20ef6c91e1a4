package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fyrsmithlabs/triaged/internal/config"
	"github.com/fyrsmithlabs/triaged/internal/documents"
)

func TestRunIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	tmp := t.TempDir()
	t.Setenv("TRIAGED_SERVER_PORT", "9284")
	t.Setenv("TRIAGED_LLM_API_KEY", "test-key")
	t.Setenv("TRIAGED_DOCUMENTS_PATH", filepath.Join(tmp, "documents.db"))
	t.Setenv("TRIAGED_RETRIEVAL_PATH", filepath.Join(tmp, "vectorstore"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, "")
	}()

	// Wait for the server to start.
	time.Sleep(200 * time.Millisecond)

	resp, err := http.Get("http://localhost:9284/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /health status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("run() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shutdown in time")
	}
}

func TestNewDocumentStoreSelectsBackend(t *testing.T) {
	mem, err := newDocumentStore(config.DocumentsConfig{Path: documents.InMemoryPath})
	if err != nil {
		t.Fatalf("newDocumentStore(:memory:) error = %v", err)
	}
	defer mem.Close()
	if _, ok := mem.(*documents.MemoryStore); !ok {
		t.Errorf("newDocumentStore(:memory:) = %T, want *documents.MemoryStore", mem)
	}

	dbPath := filepath.Join(t.TempDir(), "documents.db")
	sql, err := newDocumentStore(config.DocumentsConfig{Path: dbPath})
	if err != nil {
		t.Fatalf("newDocumentStore(%q) error = %v", dbPath, err)
	}
	defer sql.Close()
	if _, ok := sql.(*documents.SQLiteStore); !ok {
		t.Errorf("newDocumentStore(file) = %T, want *documents.SQLiteStore", sql)
	}
}

func TestPrintVersionDoesNotPanic(t *testing.T) {
	old := os.Stdout
	devnull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("opening devnull: %v", err)
	}
	os.Stdout = devnull
	defer func() {
		os.Stdout = old
		devnull.Close()
	}()

	printVersion()
}
