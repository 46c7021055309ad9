package searchdb

import "time"

// snippetLength bounds the stored preview of a document's extracted text.
const snippetLength = 500

// Document is one file's extracted text as submitted to the index engine.
// The document ID is the file's absolute path, so re-indexing a modified
// file replaces its previous entry and deletions can be keyed by path.
type Document struct {
	ID      string    `json:"id"`
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	Content string    `json:"content"`
	Snippet string    `json:"snippet"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Result is one search hit. Distance is a relevance distance: lower means
// more relevant, zero means an exact match.
type Result struct {
	FilePath string  `json:"file_path"`
	Name     string  `json:"name"`
	Text     string  `json:"text"`
	Distance float64 `json:"_distance"`
}

func NewDocument(path, name, content string, size int64, modTime time.Time) Document {
	snippet := content
	if len(snippet) > snippetLength {
		snippet = snippet[:snippetLength]
	}

	return Document{
		ID:      path,
		Path:    path,
		Name:    name,
		Content: content,
		Snippet: snippet,
		Size:    size,
		ModTime: modTime,
	}
}
