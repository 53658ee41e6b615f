// Package blob abstracts the object store holding photo bytes.
package blob

import "context"

// Store is a key-addressed object store returning a public URL per key.
type Store interface {
	// Upload writes data under key with the given content type and
	// returns the public URL of the stored object.
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
	// Delete removes the object stored under key.
	Delete(ctx context.Context, key string) error
	// PublicURL returns the public URL for an existing key.
	PublicURL(key string) string
}
