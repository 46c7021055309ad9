package index

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var ErrInvalidRoot = errors.New("invalid root")

type InvalidRootError struct {
	Path   string
	Reason string
}

func (e *InvalidRootError) Error() string {
	return fmt.Sprintf("invalid root %s: %s", e.Path, e.Reason)
}

func (e *InvalidRootError) Is(target error) bool {
	return target == ErrInvalidRoot
}

// FileDescriptor is one regular file discovered under a root. Descriptors
// are immutable once created; Path is absolute and unique within a run.
type FileDescriptor struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Extension string    `json:"extension"`
	Size      int64     `json:"size"`
	ModTime   time.Time `json:"modified"`
}

// ValidateRoot checks that rootPath exists and is a readable directory.
func ValidateRoot(rootPath string) error {
	info, err := os.Stat(rootPath)
	if err != nil {
		return &InvalidRootError{Path: rootPath, Reason: "path does not exist"}
	}
	if !info.IsDir() {
		return &InvalidRootError{Path: rootPath, Reason: "path is not a directory"}
	}
	return nil
}

// Crawl walks the tree under rootPath and returns a descriptor for every
// regular file reachable by recursive descent. Traversal is lexicographic
// per directory, does not follow symlinked directories, and skips dot
// directories and dot files apart from the root itself.
func (s *Service) Crawl(rootPath string) ([]FileDescriptor, error) {
	if err := ValidateRoot(rootPath); err != nil {
		return nil, err
	}

	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, &InvalidRootError{Path: rootPath, Reason: err.Error()}
	}

	var files []FileDescriptor
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Error("could not walk through file or directory", "path", path, "err", err.Error())
			if errors.Is(err, os.ErrPermission) {
				return nil
			}
			return err
		}

		if d.IsDir() && strings.HasPrefix(d.Name(), ".") && path != absRoot {
			return filepath.SkipDir
		}

		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		// Symlinks and other non-regular entries are not followed
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			s.logger.Error("could not stat file", "path", path, "err", err.Error())
			return nil
		}

		files = append(files, FileDescriptor{
			Path:      path,
			Name:      d.Name(),
			Extension: strings.ToLower(filepath.Ext(path)),
			Size:      info.Size(),
			ModTime:   info.ModTime(),
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}
