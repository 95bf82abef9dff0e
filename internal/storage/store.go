package storage

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Get for keys that were never set or were removed
var ErrNotFound = errors.New("key not found")

// Store is a string key-value store
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	// Remove deletes a key; removing an absent key is not an error
	Remove(key string) error
	Close() error
}

// Backend names a Store implementation
type Backend string

const (
	BackendMemory    Backend = "memory"
	BackendLevelDB   Backend = "leveldb"
	BackendCouchbase Backend = "couchbase"
)

// Options selects and configures the Store built by Open
type Options struct {
	Backend Backend
	// Path is the LevelDB directory
	Path string

	CouchbaseURL      string
	CouchbaseUsername string
	CouchbasePassword string
	CouchbaseBucket   string
	ConnectTimeout    time.Duration
}

// Open builds the Store selected by opts.Backend
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendLevelDB, "":
		s, err := OpenLevelStore(opts.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendCouchbase:
		s, err := OpenCouchbaseStore(CouchbaseOptions{
			URL:            opts.CouchbaseURL,
			Username:       opts.CouchbaseUsername,
			Password:       opts.CouchbasePassword,
			Bucket:         opts.CouchbaseBucket,
			ConnectTimeout: opts.ConnectTimeout,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
}
