// Package store provides a pluggable key-value store used for cached site
// status snapshots and monitor alert de-duplication state.
package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key does not exist or has expired.
var ErrNotFound = errors.New("store: key not found")

// Store is the interface for the key-value backends.
type Store interface {
	// Set stores a key-value pair with an optional TTL. A zero TTL means no expiry.
	Set(key string, value []byte, ttl time.Duration) error

	// Get retrieves a value by key, returning ErrNotFound when absent.
	Get(key string) ([]byte, error)

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(key string) error

	// Exists checks whether a key is present and unexpired.
	Exists(key string) (bool, error)

	// SetNX stores the value only when the key is absent, returning whether
	// the write happened. Used for alert de-duplication windows.
	SetNX(key string, value []byte, ttl time.Duration) (bool, error)

	// Close releases backend resources.
	Close() error
}
