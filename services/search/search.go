package search

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/docsift/docsift/db/searchdb"
	"github.com/docsift/docsift/logger"
)

const defaultLimit = 10

// overFetchFactor asks the engine for more hits than requested so that the
// per-file deduplication still fills the limit.
const overFetchFactor = 3

// Searcher is the slice of the index engine the search service needs.
type Searcher interface {
	Search(queryString string, limit int) ([]searchdb.Result, error)
}

// Result is an engine hit enriched with live filesystem metadata. The
// enrichment fields stay absent when the file no longer exists on disk.
type Result struct {
	searchdb.Result
	FileSize     *int64     `json:"file_size,omitempty"`
	ModifiedDate *time.Time `json:"modified_date,omitempty"`
	WordCount    *int       `json:"word_count,omitempty"`
}

type Service struct {
	logger logger.Logger
	db     Searcher
}

func New(logger logger.Logger, db Searcher) *Service {
	return &Service{
		logger: logger,
		db:     db,
	}
}

// Search queries the index engine, keeps the best hit per file, and
// enriches each surviving hit with the file's current size, modification
// time and the word count of the returned snippet. A hit whose file has
// vanished from disk is passed through unenriched, never dropped.
func (s *Service) Search(query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	hits, err := s.db.Search(query, limit*overFetchFactor)
	if err != nil {
		s.logger.Error("search failed", "query", query, "err", err.Error())
		return nil, fmt.Errorf("search unavailable: %w", err)
	}

	deduplicated := dedupeByFile(hits, limit)

	results := make([]Result, len(deduplicated))
	for i, hit := range deduplicated {
		results[i] = s.enrich(hit)
	}

	return results, nil
}

// dedupeByFile keeps only the best (lowest distance) hit per file path,
// ordered by distance, capped at limit.
func dedupeByFile(hits []searchdb.Result, limit int) []searchdb.Result {
	best := make(map[string]searchdb.Result)
	for _, hit := range hits {
		current, seen := best[hit.FilePath]
		if !seen || hit.Distance < current.Distance {
			best[hit.FilePath] = hit
		}
	}

	deduplicated := make([]searchdb.Result, 0, len(best))
	for _, hit := range best {
		deduplicated = append(deduplicated, hit)
	}
	sort.Slice(deduplicated, func(i, j int) bool {
		return deduplicated[i].Distance < deduplicated[j].Distance
	})

	if len(deduplicated) > limit {
		deduplicated = deduplicated[:limit]
	}

	return deduplicated
}

func (s *Service) enrich(hit searchdb.Result) Result {
	result := Result{Result: hit}

	stat, err := os.Stat(hit.FilePath)
	if err != nil {
		// The file may have been removed since indexing; the hit itself is
		// still valid.
		s.logger.Info("could not stat file for search result enrichment", "path", hit.FilePath, "err", err.Error())
		return result
	}

	size := stat.Size()
	modified := stat.ModTime()
	words := len(strings.Fields(hit.Text))

	result.FileSize = &size
	result.ModifiedDate = &modified
	result.WordCount = &words

	return result
}
