package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/docsift/docsift/db/metadb"
	"github.com/docsift/docsift/logger"
)

var ErrIndexNotFound = errors.New("index not found")

// MetadataStore is the key-value persistence the fingerprint store runs on.
type MetadataStore interface {
	Set(bucket string, key string, value string) error
	Get(bucket string, key string) (string, error)
	Delete(bucket string, key string) error
	GetAll(bucket string) (map[string]string, error)
}

// FingerprintStore persists one record per indexed root. Records are read
// once at run start and replaced wholesale at run end; there are no partial
// per-file writes, so an interrupted run leaves the prior record intact.
type FingerprintStore struct {
	db     MetadataStore
	logger logger.Logger
}

func NewFingerprintStore(logger logger.Logger, db MetadataStore) *FingerprintStore {
	return &FingerprintStore{db: db, logger: logger}
}

// LoadRoot returns the stored record for a root path, or nil when the root
// has never been indexed.
func (f *FingerprintStore) LoadRoot(rootPath string) (*metadb.RootRecord, error) {
	value, err := f.db.Get(metadb.RootsBucket, rootPath)
	if err != nil {
		var notFoundErr *metadb.NotFoundError
		if errors.As(err, &notFoundErr) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load record for root %s: %w", rootPath, err)
	}

	var record metadb.RootRecord
	if err := json.Unmarshal([]byte(value), &record); err != nil {
		f.logger.Error("failed to unmarshal root record", "root", rootPath, "err", err.Error())
		return nil, fmt.Errorf("failed to unmarshal record for root %s: %w", rootPath, err)
	}
	if record.Files == nil {
		record.Files = make(map[string]metadb.Fingerprint)
	}

	return &record, nil
}

// ReplaceRoot overwrites the stored record for the record's root path.
func (f *FingerprintStore) ReplaceRoot(record *metadb.RootRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		f.logger.Error("failed to marshal root record", "root", record.RootPath, "err", err.Error())
		return fmt.Errorf("failed to marshal record for root %s: %w", record.RootPath, err)
	}

	if err := f.db.Set(metadb.RootsBucket, record.RootPath, string(data)); err != nil {
		f.logger.Error("failed to persist root record", "root", record.RootPath, "err", err.Error())
		return err
	}

	return nil
}

// ListRoots returns summaries for every root ever indexed, ordered by path.
func (f *FingerprintStore) ListRoots() ([]metadb.RootSummary, error) {
	entries, err := f.db.GetAll(metadb.RootsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexed roots: %w", err)
	}

	summaries := make([]metadb.RootSummary, 0, len(entries))
	for rootPath, value := range entries {
		var record metadb.RootRecord
		if err := json.Unmarshal([]byte(value), &record); err != nil {
			f.logger.Error("skipping unreadable root record", "root", rootPath, "err", err.Error())
			continue
		}
		summaries = append(summaries, metadb.RootSummary{
			ID:            record.ID,
			RootPath:      record.RootPath,
			LastIndexedAt: record.LastIndexedAt,
			FileCount:     record.FileCount,
			IndexedCount:  record.IndexedCount,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].RootPath < summaries[j].RootPath
	})

	return summaries, nil
}

// DeleteRoot removes the record whose ID matches. Returns ErrIndexNotFound
// when no record carries that ID.
func (f *FingerprintStore) DeleteRoot(id string) error {
	entries, err := f.db.GetAll(metadb.RootsBucket)
	if err != nil {
		return fmt.Errorf("failed to list indexed roots: %w", err)
	}

	for rootPath, value := range entries {
		var record metadb.RootRecord
		if err := json.Unmarshal([]byte(value), &record); err != nil {
			continue
		}
		if record.ID == id {
			return f.db.Delete(metadb.RootsBucket, rootPath)
		}
	}

	return ErrIndexNotFound
}
