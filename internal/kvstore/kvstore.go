package kvstore

import "errors"

// ErrNotFound is returned by GetItem when no value exists for the key.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is the durable key-value boundary used for small JSON blobs
// (cache entries, geocode results, usage counters). It is TTL-agnostic;
// expiry semantics live in the layers above. Any call may fail and callers
// are expected to treat failures as soft (degrade, never crash).
type Store interface {
	GetItem(key string) (string, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
	// Keys returns every stored key beginning with prefix.
	Keys(prefix string) ([]string, error)
}
