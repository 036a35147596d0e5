// Package storage persists audio artifacts and returns retrievable
// locators (public URLs or local paths).
package storage

import "context"

// Store durably saves one artifact under the suggested name.
type Store interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (locator string, err error)
}
