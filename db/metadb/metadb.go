package metadb

// Bucket names for the metadata store. RootsBucket holds one record per
// indexed root folder, keyed by the root's absolute path.
const (
	RootsBucket = "roots"
)

type DB interface {
	Set(bucket string, key string, value string) error
	Get(bucket string, key string) (string, error)
	Delete(bucket string, key string) error
	GetAll(bucket string) (map[string]string, error)
	Close() error
}
