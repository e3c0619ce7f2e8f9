// Package kvstore is the opaque key-value persistence the credential core calls into.
package kvstore

import "context"

type Store interface {
	// Get returns the value for key; found is false when the key does not exist
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Set creates or replaces the value for key
	Set(ctx context.Context, key, value string) error
	// Delete removes key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
	// Keys lists all keys starting with prefix, in ascending order
	Keys(ctx context.Context, prefix string) ([]string, error)
}
