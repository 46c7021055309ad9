package index

import (
	"os"
	"testing"
	"time"

	"github.com/docsift/docsift/db/metadb"
	"github.com/stretchr/testify/require"
)

func storedFingerprint(t *testing.T, assert *require.Assertions, path string, recordedAt time.Time) metadb.Fingerprint {
	t.Helper()

	digest, err := fingerprintFile(path)
	assert.NoError(err)
	info, err := os.Stat(path)
	assert.NoError(err)

	return metadb.Fingerprint{Digest: digest, RecordedAt: recordedAt, Size: info.Size()}
}

func TestDetectChangesPartitions(t *testing.T) {
	assert := require.New(t)
	service := newTestService(t, assert, newFakeIndexer(), Options{})

	root := t.TempDir()
	unchangedPath := writeTestFile(t, assert, root, "unchanged.txt", "same old content")
	newPath := writeTestFile(t, assert, root, "new.txt", "never seen before")
	modifiedPath := writeTestFile(t, assert, root, "modified.txt", "original content")

	recordedAt := time.Now().UTC()
	record := &metadb.RootRecord{
		RootPath: root,
		Files: map[string]metadb.Fingerprint{
			unchangedPath: storedFingerprint(t, assert, unchangedPath, recordedAt),
			modifiedPath:  storedFingerprint(t, assert, modifiedPath, recordedAt),
			"/gone/deleted.txt": {
				Digest: "dead", RecordedAt: recordedAt, Size: 4,
			},
		},
	}

	// Grow the modified file so the size check alone reselects it
	writeTestFile(t, assert, root, "modified.txt", "original content plus more")

	fresh, err := service.Crawl(root)
	assert.NoError(err)

	changes := service.detectChanges(record, fresh)

	needsIndex := make([]string, len(changes.NeedsIndex))
	for i, file := range changes.NeedsIndex {
		needsIndex[i] = file.Path
	}
	assert.ElementsMatch([]string{newPath, modifiedPath}, needsIndex)
	assert.Equal([]string{unchangedPath}, changes.Unchanged)
	assert.Equal([]string{"/gone/deleted.txt"}, changes.Deleted)

	// The three sets partition the union of fresh and stored paths
	union := make(map[string]int)
	for _, file := range changes.NeedsIndex {
		union[file.Path]++
	}
	for _, path := range changes.Unchanged {
		union[path]++
	}
	for _, path := range changes.Deleted {
		union[path]++
	}
	assert.Len(union, 4)
	for path, count := range union {
		assert.Equal(1, count, "path %s appears in more than one set", path)
	}
}

func TestDetectChangesContentChangeWithFrozenMtime(t *testing.T) {
	assert := require.New(t)
	service := newTestService(t, assert, newFakeIndexer(), Options{VerifyUnchanged: true})

	root := t.TempDir()
	path := writeTestFile(t, assert, root, "sneaky.txt", "content aaaa")

	recordedAt := time.Now().UTC().Add(time.Hour)
	record := &metadb.RootRecord{
		RootPath: root,
		Files: map[string]metadb.Fingerprint{
			path: storedFingerprint(t, assert, path, recordedAt),
		},
	}

	// Rewrite with identical size, then pin mtime into the past so the
	// size+mtime fast path would wrongly call it unchanged
	writeTestFile(t, assert, root, "sneaky.txt", "content bbbb")
	pastTime := time.Now().Add(-time.Hour)
	assert.NoError(os.Chtimes(path, pastTime, pastTime))

	fresh, err := service.Crawl(root)
	assert.NoError(err)

	changes := service.detectChanges(record, fresh)
	assert.Len(changes.NeedsIndex, 1)
	assert.Equal(path, changes.NeedsIndex[0].Path)
	assert.Empty(changes.Unchanged, "a content change must never be classified unchanged")
}

func TestDetectChangesTouchedButIdentical(t *testing.T) {
	assert := require.New(t)
	service := newTestService(t, assert, newFakeIndexer(), Options{})

	root := t.TempDir()
	path := writeTestFile(t, assert, root, "touched.txt", "stable content")

	recordedAt := time.Now().UTC().Add(-time.Hour)
	record := &metadb.RootRecord{
		RootPath: root,
		Files: map[string]metadb.Fingerprint{
			path: storedFingerprint(t, assert, path, recordedAt),
		},
	}

	// mtime is newer than the recording but content is identical, so the
	// fingerprint comparison must classify it unchanged
	futureTime := time.Now().Add(time.Hour)
	assert.NoError(os.Chtimes(path, futureTime, futureTime))

	fresh, err := service.Crawl(root)
	assert.NoError(err)

	changes := service.detectChanges(record, fresh)
	assert.Empty(changes.NeedsIndex)
	assert.Equal([]string{path}, changes.Unchanged)
}

func TestDetectChangesFingerprintErrorBiasesToModified(t *testing.T) {
	assert := require.New(t)
	service := newTestService(t, assert, newFakeIndexer(), Options{})

	missing := "/nowhere/vanished.txt"
	recordedAt := time.Now().UTC().Add(-time.Hour)
	record := &metadb.RootRecord{
		Files: map[string]metadb.Fingerprint{
			missing: {Digest: "abc", RecordedAt: recordedAt, Size: 10},
		},
	}

	fresh := []FileDescriptor{{
		Path:      missing,
		Name:      "vanished.txt",
		Extension: ".txt",
		Size:      10,
		ModTime:   time.Now(),
	}}

	changes := service.detectChanges(record, fresh)
	assert.Len(changes.NeedsIndex, 1, "fingerprinting errors must classify as modified, not unchanged")
	assert.Empty(changes.Unchanged)
}
