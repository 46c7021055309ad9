// Common test helpers
package index

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/docsift/docsift/db/metadb"
	"github.com/docsift/docsift/db/searchdb"
	"github.com/docsift/docsift/logger"
	"github.com/stretchr/testify/require"
)

func newTestLogger() logger.Logger {
	opts := &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}
	handler := slog.NewJSONHandler(os.Stderr, opts)
	return slog.New(handler)
}

// fakeIndexer records submitted and deleted documents in memory.
type fakeIndexer struct {
	mu        sync.Mutex
	documents map[string]searchdb.Document
	deleted   []string
	failNext  bool
}

func newFakeIndexer() *fakeIndexer {
	return &fakeIndexer{documents: make(map[string]searchdb.Document)}
}

func (f *fakeIndexer) BuildIndex(documents []searchdb.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return errors.New("index engine unavailable")
	}
	for _, doc := range documents {
		f.documents[doc.ID] = doc
	}
	return nil
}

func (f *fakeIndexer) DeleteDocuments(documentIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, documentIDs...)
	return nil
}

func (f *fakeIndexer) indexedPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	paths := make([]string, 0, len(f.documents))
	for path := range f.documents {
		paths = append(paths, path)
	}
	return paths
}

// failingExtractor always reports a typed extraction failure.
type failingExtractor struct{}

func (failingExtractor) Extract(_ context.Context, path string) (string, error) {
	return "", &ExtractionError{Path: path, Reason: "corrupt file"}
}

func newTestRegistry() *Registry {
	registry := &Registry{extractors: make(map[string]Extractor)}
	registry.Register(".txt", textExtractor{})
	registry.Register(".md", textExtractor{})
	// Stand-in for the external parser so tests need no subprocess
	registry.Register(".pdf", textExtractor{})
	return registry
}

func newTestService(t *testing.T, assert *require.Assertions, indexer Indexer, opts Options) *Service {
	t.Helper()

	if opts.ProgressBuffer == 0 {
		opts.ProgressBuffer = 64
	}
	if opts.ProgressTimeout == 0 {
		opts.ProgressTimeout = time.Second
	}

	metaDB, err := metadb.NewWithPath(newTestLogger(), filepath.Join(t.TempDir(), "meta.db"))
	assert.NoError(err, "could not create metadata database")
	t.Cleanup(func() { metaDB.Close() })

	return New(newTestLogger(), indexer, metaDB, newTestRegistry(), opts)
}

func writeTestFile(t *testing.T, assert *require.Assertions, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	err := os.MkdirAll(filepath.Dir(path), 0755)
	assert.NoError(err, "could not create test sub-directory")
	err = os.WriteFile(path, []byte(content), 0644)
	assert.NoError(err, "could not write test file")

	return path
}

// collectEvents drains a sink until it closes.
func collectEvents(sink *Sink) []Event {
	var events []Event
	for event := range sink.Events() {
		events = append(events, event)
	}
	return events
}
