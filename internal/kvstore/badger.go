package kvstore

import (
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v3"
)

// BadgerStore implements Store on top of a local BadgerDB directory. It is
// the reload-surviving half of the two-tier cache: a fresh process start can
// serve data cached by a previous run as long as the TTL layer above still
// considers it valid.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (creating if needed) a Badger database at dir.
func NewBadgerStore(dir string) (*BadgerStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	opts := badger.DefaultOptions(dir)
	opts = opts.WithLogger(nil)
	// Values here are small JSON blobs; keep them in the LSM tree.
	opts = opts.WithValueThreshold(4096)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// GetItem implements Store. Returns ErrNotFound when the key is absent.
func (s *BadgerStore) GetItem(key string) (string, error) {
	var value string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("badger get %q: %w", key, err)
	}
	return value, nil
}

// SetItem implements Store.
func (s *BadgerStore) SetItem(key, value string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("badger set %q: %w", key, err)
	}
	return nil
}

// RemoveItem implements Store. Removing a missing key is not an error.
func (s *BadgerStore) RemoveItem(key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("badger delete %q: %w", key, err)
	}
	return nil
}

// Keys implements Store using a prefix scan. Values are not loaded.
func (s *BadgerStore) Keys(prefix string) ([]string, error) {
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger scan %q: %w", prefix, err)
	}
	return keys, nil
}

// RunGC runs one pass of Badger's value-log garbage collection. Safe to call
// periodically; a no-rewrite result is not an error.
func (s *BadgerStore) RunGC() {
	_ = s.db.RunValueLogGC(0.5)
}

// Close closes the underlying database. Call during shutdown.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
