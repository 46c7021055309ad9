package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/docsift/docsift/db/metadb"
	"github.com/docsift/docsift/db/searchdb"
	"github.com/docsift/docsift/logger"
	"github.com/google/uuid"
)

var ErrRunInProgress = errors.New("indexing already in progress")

type RunState int

const (
	StateIdle RunState = iota
	StateCrawling
	StateDiffing
	StateExtracting
	StateFinalizing
	StateComplete
	StateFailed
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCrawling:
		return "crawling"
	case StateDiffing:
		return "diffing"
	case StateExtracting:
		return "extracting"
	case StateFinalizing:
		return "finalizing"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

type RunMode string

const (
	RunModeFull        RunMode = "full"
	RunModeIncremental RunMode = "incremental"
)

// Indexer is the slice of the index engine the coordinator needs.
type Indexer interface {
	BuildIndex(documents []searchdb.Document) error
	DeleteDocuments(documentIDs []string) error
}

type Options struct {
	VerifyUnchanged bool
	ProgressBuffer  int
	ProgressTimeout time.Duration
}

type Service struct {
	logger          logger.Logger
	indexer         Indexer
	store           *FingerprintStore
	registry        *Registry
	verifyUnchanged bool
	progressBuffer  int
	progressTimeout time.Duration
	running         atomic.Bool
}

func New(logger logger.Logger, indexer Indexer, db MetadataStore, registry *Registry, opts Options) *Service {
	if opts.ProgressBuffer <= 0 {
		opts.ProgressBuffer = 64
	}
	if opts.ProgressTimeout <= 0 {
		opts.ProgressTimeout = 5 * time.Second
	}

	return &Service{
		logger:          logger,
		indexer:         indexer,
		store:           NewFingerprintStore(logger, db),
		registry:        registry,
		verifyUnchanged: opts.VerifyUnchanged,
		progressBuffer:  opts.ProgressBuffer,
		progressTimeout: opts.ProgressTimeout,
	}
}

// run is the per-invocation state of one indexing run. Nothing here
// survives the terminal event; cross-run state lives only in the
// fingerprint store.
type run struct {
	id           string
	root         string
	mode         RunMode
	state        RunState
	startTime    time.Time
	fingerprints map[string]metadb.Fingerprint
}

// Start validates the root and launches a run, returning the progress sink
// the run will emit on. Only one run may be active at a time.
func (s *Service) Start(ctx context.Context, rootPath string, incremental bool) (*Sink, error) {
	if err := ValidateRoot(rootPath); err != nil {
		return nil, err
	}

	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("request to index while indexing is already in progress", "root", rootPath)
		return nil, ErrRunInProgress
	}

	sink := NewSink(s.progressBuffer, s.progressTimeout)
	go func() {
		defer s.running.Store(false)
		s.execute(ctx, rootPath, incremental, sink)
	}()

	return sink, nil
}

func (s *Service) execute(ctx context.Context, rootPath string, incremental bool, sink *Sink) {
	defer sink.close()

	r := &run{
		id:           uuid.New().String(),
		mode:         RunModeFull,
		state:        StateCrawling,
		startTime:    time.Now().UTC(),
		fingerprints: make(map[string]metadb.Fingerprint),
	}

	fail := func(err error) {
		r.state = StateFailed
		s.logger.Error("index run failed", "run_id", r.id, "root", rootPath, "err", err.Error())
		if !sink.emit(newErrorEvent(err)) {
			s.logger.Error("progress consumer did not accept terminal error event", "run_id", r.id)
		}
	}

	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		fail(&InvalidRootError{Path: rootPath, Reason: err.Error()})
		return
	}
	r.root = absRoot

	files, err := s.Crawl(absRoot)
	if err != nil {
		fail(err)
		return
	}
	s.logger.Info("crawl complete", "run_id", r.id, "root", r.root, "files", len(files))

	prior, err := s.store.LoadRoot(r.root)
	if err != nil {
		// An unreadable record costs a full re-index, never a lost run
		s.logger.Warn("could not load prior fingerprints, running full index", "run_id", r.id, "err", err.Error())
		prior = nil
	}

	work := files
	skipped := 0
	var digests map[string]string
	if incremental && prior != nil {
		r.state = StateDiffing
		r.mode = RunModeIncremental

		changes := s.detectChanges(prior, files)
		work = changes.NeedsIndex
		skipped = len(changes.Unchanged)
		digests = changes.digests

		// Unchanged files retain their prior fingerprints
		for _, path := range changes.Unchanged {
			r.fingerprints[path] = prior.Files[path]
		}

		if len(changes.Deleted) > 0 {
			s.logger.Info("removing deleted files from index", "run_id", r.id, "deleted_files", len(changes.Deleted))
			if err := s.indexer.DeleteDocuments(changes.Deleted); err != nil {
				s.logger.Error("failed to delete documents from search index", "run_id", r.id, "err", err.Error())
			}
		}

		sink.emit(newInfoEvent(fmt.Sprintf("Found %d new/modified files, %d unchanged", len(work), skipped)))
	}

	workList := make([]FileDescriptor, 0, len(work))
	for _, file := range work {
		if s.registry.Supported(file.Extension) {
			workList = append(workList, file)
		}
	}

	r.state = StateExtracting
	total := len(workList)
	sink.emit(newProgressEvent(0, total, "", "Starting indexing...", 0))

	indexed := 0
	failedFiles := 0
	extractStart := time.Now()

	for i, file := range workList {
		if ctx.Err() != nil {
			fail(fmt.Errorf("index run aborted: %w", ctx.Err()))
			return
		}

		sink.emit(newProgressEvent(i+1, total, file.Name,
			fmt.Sprintf("Processing %s...", file.Name),
			estimateSecondsRemaining(extractStart, i, total)))

		if s.indexFile(ctx, file, digests, r) {
			indexed++
		} else {
			failedFiles++
		}
	}

	r.state = StateFinalizing
	record := &metadb.RootRecord{
		ID:            uuid.New().String(),
		RootPath:      r.root,
		LastIndexedAt: r.startTime,
		FileCount:     len(files),
		IndexedCount:  len(r.fingerprints),
		Files:         r.fingerprints,
	}
	if prior != nil {
		record.ID = prior.ID
	}
	if err := s.store.ReplaceRoot(record); err != nil {
		fail(fmt.Errorf("failed to persist index metadata: %w", err))
		return
	}

	r.state = StateComplete
	message := fmt.Sprintf("Successfully indexed %d documents", indexed)
	if skipped > 0 {
		message += fmt.Sprintf(", skipped %d unchanged", skipped)
	}
	s.logger.Info("index run complete", "run_id", r.id, "root", r.root,
		"total", total, "indexed", indexed, "failed", failedFiles, "skipped", skipped)

	if !sink.emit(newCompleteEvent(total, indexed, skipped, message)) {
		s.logger.Error("progress consumer did not accept terminal complete event", "run_id", r.id)
	}
}

// indexFile extracts one file, submits it to the index engine and records
// its fingerprint. Failures are isolated: they are logged and counted but
// never stop the run. A file that fails leaves no fingerprint behind, so
// the next run naturally reselects it.
func (s *Service) indexFile(ctx context.Context, file FileDescriptor, digests map[string]string, r *run) bool {
	extractor, ok := s.registry.Lookup(file.Extension)
	if !ok {
		return false
	}

	text, err := extractor.Extract(ctx, file.Path)
	if err != nil {
		s.logger.Error("error processing file", "run_id", r.id, "path", file.Path, "err", err.Error())
		return false
	}

	doc := searchdb.NewDocument(file.Path, file.Name, text, file.Size, file.ModTime)
	if err := s.indexer.BuildIndex([]searchdb.Document{doc}); err != nil {
		s.logger.Error("failed to submit document to index", "run_id", r.id, "path", file.Path, "err", err.Error())
		return false
	}

	digest, ok := digests[file.Path]
	if !ok {
		digest, err = fingerprintFile(file.Path)
		if err != nil {
			s.logger.Warn("indexed file could not be fingerprinted, it will be re-indexed next run",
				"run_id", r.id, "path", file.Path, "err", err.Error())
			return true
		}
	}

	r.fingerprints[file.Path] = metadb.Fingerprint{
		Digest:     digest,
		RecordedAt: r.startTime,
		Size:       file.Size,
	}

	return true
}

func estimateSecondsRemaining(start time.Time, processed, total int) int {
	if processed <= 0 {
		return 0
	}

	elapsed := time.Since(start)
	perFile := elapsed / time.Duration(processed)
	remaining := perFile * time.Duration(total-processed)

	return int(math.Ceil(remaining.Seconds()))
}

// ListIndexes returns summary metadata for every root ever indexed.
func (s *Service) ListIndexes() ([]metadb.RootSummary, error) {
	return s.store.ListRoots()
}

// DeleteIndex removes one root's persisted metadata by record ID.
func (s *Service) DeleteIndex(id string) error {
	return s.store.DeleteRoot(id)
}
