package index

import (
	"github.com/docsift/docsift/db/metadb"
)

// ChangeSet partitions the union of a fresh crawl and the stored record:
// every path lands in exactly one of NeedsIndex, Unchanged or Deleted.
type ChangeSet struct {
	NeedsIndex []FileDescriptor
	Unchanged  []string
	Deleted    []string

	// digests holds fingerprints already computed during detection so the
	// coordinator does not have to hash the same file twice.
	digests map[string]string
}

// detectChanges diffs fresh descriptors against the stored record for a
// root. A file is new when no stored entry exists, modified when its
// fingerprint differs from the stored one and deleted when a stored entry
// has no fresh descriptor. Files whose size matches the stored entry and
// whose mtime does not postdate the recording are provisionally unchanged;
// verifyUnchanged forces a full fingerprint comparison for those too. Any
// fingerprinting error classifies the file as modified: re-indexing a file
// needlessly is wasted work, silently dropping a change corrupts the index.
func (s *Service) detectChanges(record *metadb.RootRecord, fresh []FileDescriptor) ChangeSet {
	changes := ChangeSet{digests: make(map[string]string)}

	seen := make(map[string]struct{}, len(fresh))
	for _, file := range fresh {
		seen[file.Path] = struct{}{}

		stored, ok := record.Files[file.Path]
		if !ok {
			changes.NeedsIndex = append(changes.NeedsIndex, file)
			continue
		}

		if file.Size != stored.Size {
			changes.NeedsIndex = append(changes.NeedsIndex, file)
			continue
		}

		// Same size and not touched since recording: fast path, unless the
		// configured trust level insists on re-verifying content.
		if !file.ModTime.After(stored.RecordedAt) && !s.verifyUnchanged {
			changes.Unchanged = append(changes.Unchanged, file.Path)
			continue
		}

		digest, err := fingerprintFile(file.Path)
		if err != nil {
			s.logger.Warn("could not fingerprint file, classifying as modified", "path", file.Path, "err", err.Error())
			changes.NeedsIndex = append(changes.NeedsIndex, file)
			continue
		}
		changes.digests[file.Path] = digest

		if digest != stored.Digest {
			changes.NeedsIndex = append(changes.NeedsIndex, file)
			continue
		}

		changes.Unchanged = append(changes.Unchanged, file.Path)
	}

	for path := range record.Files {
		if _, ok := seen[path]; !ok {
			changes.Deleted = append(changes.Deleted, path)
		}
	}

	return changes
}
