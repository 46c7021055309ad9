package metadb

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound   = errors.New("key not found")
	ErrInvalidKey = errors.New("invalid key")
)

type InvalidKeyError struct {
	Key    string
	Reason string
}
type NotFoundError struct {
	Key string
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("invalid key %s: %s", e.Key, e.Reason)
}

func (e *InvalidKeyError) Is(target error) bool {
	return target == ErrInvalidKey
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("key not found: %s", e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Fingerprint is the persisted record of one file's content digest at the
// time it was last indexed.
type Fingerprint struct {
	Digest     string    `json:"digest"`
	RecordedAt time.Time `json:"recorded_at"`
	Size       int64     `json:"size"`
}

// RootRecord is the full persisted state for one indexed root folder. It is
// read at the start of an incremental run and replaced wholesale at the end
// of a successful run; a run that fails partway leaves it untouched.
type RootRecord struct {
	ID            string                 `json:"id"`
	RootPath      string                 `json:"root_path"`
	LastIndexedAt time.Time              `json:"last_indexed_at"`
	FileCount     int                    `json:"file_count"`
	IndexedCount  int                    `json:"indexed_count"`
	Files         map[string]Fingerprint `json:"files"`
}

// RootSummary is the listing shape served for one indexed root.
type RootSummary struct {
	ID            string    `json:"id"`
	RootPath      string    `json:"root_path"`
	LastIndexedAt time.Time `json:"last_indexed_at"`
	FileCount     int       `json:"file_count"`
	IndexedCount  int       `json:"indexed_count"`
}
