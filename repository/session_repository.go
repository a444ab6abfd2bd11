package repository

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read when no session has the given name.
var ErrNotFound = errors.New("session not found")

// SessionStore persists encoded session documents by name. Names reaching a
// store are already normalized: no extension, no path separators.
type SessionStore interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
	// List returns the stored names sorted ascending.
	List(ctx context.Context) ([]string, error)
	// Delete reports whether a session was removed.
	Delete(ctx context.Context, name string) (bool, error)
}
