package index

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

var ErrExtractionFailed = errors.New("extraction failed")

// extractorFailureMarker prefixes the output of an extractor that ran but
// could not parse its input (for example "Error reading PDF: ..."). Such
// output must never be indexed as document text.
const extractorFailureMarker = "Error"

type ExtractionError struct {
	Path   string
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %s: %s", e.Path, e.Reason)
}

func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtractionFailed
}

// Extractor converts one file's raw bytes into plain text.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Registry maps normalized file extensions to extractors. An extension
// with no registered extractor is not an error: such files are excluded
// from indexing rather than failed.
type Registry struct {
	extractors map[string]Extractor
}

type RegistryConfig struct {
	Command   string
	ScriptDir string
	Timeout   time.Duration
}

func NewRegistry(cfg RegistryConfig) *Registry {
	registry := &Registry{extractors: make(map[string]Extractor)}

	registry.Register(".txt", textExtractor{})
	registry.Register(".md", textExtractor{})

	for ext, script := range map[string]string{
		".pdf":  "parse_pdf.py",
		".docx": "parse_docx.py",
		".csv":  "parse_csv.py",
		".json": "parse_json.py",
	} {
		registry.Register(ext, &scriptExtractor{
			command: cfg.Command,
			script:  filepath.Join(cfg.ScriptDir, script),
			timeout: cfg.Timeout,
		})
	}

	return registry
}

func (r *Registry) Register(extension string, extractor Extractor) {
	r.extractors[strings.ToLower(extension)] = extractor
}

func (r *Registry) Lookup(extension string) (Extractor, bool) {
	extractor, ok := r.extractors[strings.ToLower(extension)]
	return extractor, ok
}

func (r *Registry) Supported(extension string) bool {
	_, ok := r.Lookup(extension)
	return ok
}

// textExtractor reads plain-text formats directly, capped so one huge file
// cannot exhaust memory.
type textExtractor struct{}

const maxTextFileSize = 10 * 1024 * 1024

func (textExtractor) Extract(_ context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", &ExtractionError{Path: path, Reason: err.Error()}
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return "", &ExtractionError{Path: path, Reason: err.Error()}
	}

	if stat.Size() > maxTextFileSize {
		buffer := make([]byte, maxTextFileSize)
		n, err := file.Read(buffer)
		if err != nil && err != io.EOF {
			return "", &ExtractionError{Path: path, Reason: err.Error()}
		}
		return string(buffer[:n]), nil
	}

	content, err := io.ReadAll(file)
	if err != nil {
		return "", &ExtractionError{Path: path, Reason: err.Error()}
	}

	return string(content), nil
}

// scriptExtractor delegates to an external per-format command (file path as
// the argument, extracted text on stdout), bounded by a timeout so a hung
// parser cannot stall a run.
type scriptExtractor struct {
	command string
	script  string
	timeout time.Duration
}

func (e *scriptExtractor) Extract(ctx context.Context, path string) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, e.command, e.script, path)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		reason := strings.TrimSpace(stderr.String())
		if reason == "" {
			reason = err.Error()
		}
		return "", &ExtractionError{Path: path, Reason: reason}
	}

	output := strings.TrimSpace(stdout.String())
	if strings.HasPrefix(output, extractorFailureMarker) {
		return "", &ExtractionError{Path: path, Reason: output}
	}

	return output, nil
}
