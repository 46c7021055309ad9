package searchdb

type DB interface {
	BuildIndex(documents []Document) error
	DeleteDocuments(documentIDs []string) error
	Search(queryString string, limit int) ([]Result, error)
	DocCount() (uint64, error)
	Close() error
}
