// Common test helpers
package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/docsift/docsift/db/metadb"
	"github.com/docsift/docsift/db/searchdb"
	"github.com/docsift/docsift/logger"
	"github.com/docsift/docsift/services/index"
	"github.com/docsift/docsift/services/search"
	"github.com/docsift/docsift/validation"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

var defaultTestRequestHeaders = map[string]string{"Content-Type": "application/json"}

var testFiles = map[string]string{
	"file1.txt":            "This is test content for file1",
	"file2.md":             "# A Markdown Heading\n\nwith body text about indexing",
	"subdir/file3.txt":     "nested file content mentioning pasta recipes",
	"subdir/file4.txt":     "more nested content about quarterly invoices",
	"binary/file5.xyz":     "unsupported format, should be skipped",
	"subdir/nested/f6.txt": "deeply nested searchable text",
}

type testCase struct {
	name           string
	requestHeaders map[string]string
	requestBody    map[string]any
	expectedStatus int
}

func newTestLogger() logger.Logger {

	opts := &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}
	handler := slog.NewJSONHandler(os.Stderr, opts)
	return slog.New(handler)
}

type testServer struct {
	router   *gin.Engine
	rootDir  string
	searchDB *searchdb.BleveDB
	metaDB   *metadb.BoltDB
}

func setupTestServer(t *testing.T, assert *require.Assertions) *testServer {
	t.Helper()

	rootDir := t.TempDir()
	for relPath, content := range testFiles {
		fullPath := filepath.Join(rootDir, relPath)
		err := os.MkdirAll(filepath.Dir(fullPath), 0755)
		assert.NoError(err, "could not create test sub-directory")
		err = os.WriteFile(fullPath, []byte(content), 0644)
		assert.NoError(err, "could not write test file")
	}

	testLogger := newTestLogger()

	searchDB, err := searchdb.NewWithPath(testLogger, filepath.Join(t.TempDir(), "test.bleve"))
	assert.NoError(err, "could not create search database")

	metaDB, err := metadb.NewWithPath(testLogger, filepath.Join(t.TempDir(), "meta.db"))
	assert.NoError(err, "could not create metadata database")

	validator, err := validation.New(testLogger)
	assert.NoError(err, "could not create validator")

	registry := index.NewRegistry(index.RegistryConfig{
		Command:   "python3",
		ScriptDir: "./extractors",
		Timeout:   5 * time.Second,
	})

	indexService := index.New(testLogger, searchDB, metaDB, registry, index.Options{
		ProgressBuffer:  64,
		ProgressTimeout: time.Second,
	})
	searchService := search.New(testLogger, searchDB)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	SetupCrawl(router, testLogger, indexService, validator)
	SetupIndex(router, testLogger, indexService, validator)
	SetupIndexes(router, testLogger, indexService)
	SetupSearch(router, testLogger, searchService, validator)

	t.Cleanup(func() {
		assert.NoError(searchDB.Close(), "could not close search database")
		assert.NoError(metaDB.Close(), "could not close metadata database")
	})

	return &testServer{router: router, rootDir: rootDir, searchDB: searchDB, metaDB: metaDB}
}

func makeTestHTTPRequest(router *gin.Engine, assert *require.Assertions, method string, endpoint string, headers map[string]string, requestBodyMap map[string]any) *httptest.ResponseRecorder {

	var err error
	w := httptest.NewRecorder()

	var jsonBody []byte
	var req *http.Request
	if requestBodyMap != nil {
		jsonBody, err = json.Marshal(requestBodyMap)
		assert.NoError(err)
	}

	if len(jsonBody) > 0 {
		req, err = http.NewRequest(method, endpoint, bytes.NewBuffer(jsonBody))
	} else {
		req, err = http.NewRequest(method, endpoint, nil)
	}
	assert.NoError(err)

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	router.ServeHTTP(w, req)

	return w
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// streamedEvents parses the data: framed JSON records of an SSE response.
func streamedEvents(assert *require.Assertions, body string) []index.Event {
	var events []index.Event
	for _, line := range bytes.Split([]byte(body), []byte("\n")) {
		if !bytes.HasPrefix(line, []byte("data: ")) {
			continue
		}
		var event index.Event
		assert.NoError(json.Unmarshal(bytes.TrimPrefix(line, []byte("data: ")), &event))
		events = append(events, event)
	}
	return events
}
