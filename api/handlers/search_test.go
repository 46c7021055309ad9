package handlers

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/docsift/docsift/db/searchdb"
	"github.com/stretchr/testify/require"
)

var searchHandlerErrorTestCases = []testCase{
	{
		name:           "NoRequestBody",
		requestHeaders: defaultTestRequestHeaders,
		requestBody:    nil,
		expectedStatus: http.StatusBadRequest,
	},
	{
		name:           "EmptyQuery",
		requestHeaders: defaultTestRequestHeaders,
		requestBody:    map[string]any{"query": ""},
		expectedStatus: http.StatusBadRequest,
	},
	{
		name:           "WhitespaceQuery",
		requestHeaders: defaultTestRequestHeaders,
		requestBody:    map[string]any{"query": "   "},
		expectedStatus: http.StatusBadRequest,
	},
}

func TestHandleSearchInvalidRequests(t *testing.T) {
	assert := require.New(t)
	server := setupTestServer(t, assert)

	for _, testCase := range searchHandlerErrorTestCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			w := makeTestHTTPRequest(server.router, assert, http.MethodPost, "/api/search", testCase.requestHeaders, testCase.requestBody)
			assert.Equal(testCase.expectedStatus, w.Code, "response was %s", w.Body.String())
		})
	}
}

func TestHandleSearchReturnsEnrichedResults(t *testing.T) {
	assert := require.New(t)
	server := setupTestServer(t, assert)

	existing := filepath.Join(server.rootDir, "file1.txt")
	err := server.searchDB.BuildIndex([]searchdb.Document{
		searchdb.NewDocument(existing, "file1.txt", "This is test content for file1", 30, time.Now()),
		searchdb.NewDocument("/vanished/ghost.txt", "ghost.txt", "test content that has since been deleted", 40, time.Now()),
	})
	assert.NoError(err)

	w := makeTestHTTPRequest(server.router, assert, http.MethodPost, "/api/search", defaultTestRequestHeaders,
		map[string]any{"query": "test content", "limit": 10})
	assert.Equal(http.StatusOK, w.Code, "response was %s", w.Body.String())

	var response SearchResponse
	assert.NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(response.Success)
	assert.Equal("test content", response.Query)
	assert.Len(response.Results, 2)

	for _, result := range response.Results {
		switch result.FilePath {
		case existing:
			assert.NotNil(result.FileSize, "existing files are enriched")
			assert.NotNil(result.ModifiedDate)
			assert.NotNil(result.WordCount)
		case "/vanished/ghost.txt":
			assert.Nil(result.FileSize, "vanished files pass through unenriched")
			assert.NotEmpty(result.Text, "snippet survives the file's deletion")
		default:
			t.Fatalf("unexpected result path %s", result.FilePath)
		}
	}
}

func TestHandleSearchEmptyIndex(t *testing.T) {
	assert := require.New(t)
	server := setupTestServer(t, assert)

	w := makeTestHTTPRequest(server.router, assert, http.MethodPost, "/api/search", defaultTestRequestHeaders,
		map[string]any{"query": "anything at all"})
	assert.Equal(http.StatusOK, w.Code)

	var response SearchResponse
	assert.NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(response.Success)
	assert.NotNil(response.Results)
	assert.Empty(response.Results)
}
