package storage

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/syndtr/goleveldb/leveldb"
)

// LevelStore persists values in a local LevelDB directory
type LevelStore struct {
	db *leveldb.DB
}

// OpenLevelStore opens or creates the LevelDB database at path
func OpenLevelStore(path string) (*LevelStore, error) {
	if path == "" {
		return nil, fmt.Errorf("leveldb store needs a path")
	}
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb at %s: %w", path, err)
	}
	log.Debug().Str("path", path).Msg("Opened leveldb store")
	return &LevelStore{db: db}, nil
}

func (s *LevelStore) Get(key string) (string, error) {
	v, err := s.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(v), nil
}

func (s *LevelStore) Set(key, value string) error {
	if err := s.db.Put([]byte(key), []byte(value), nil); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *LevelStore) Remove(key string) error {
	if err := s.db.Delete([]byte(key), nil); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *LevelStore) Close() error {
	return s.db.Close()
}
