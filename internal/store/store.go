package store

import (
	"errors"
)

// Sentinel errors for common error conditions
var (
	// ErrIO is wrapped by every filesystem failure surfaced from a Store.
	ErrIO = errors.New("storage i/o failure")
)

// Store persists PEM encoded key and certificate material for named identities.
//
// An identity is either CAIdentity or a normalized hostname. An identity is
// only present when both its key and certificate files exist.
type Store interface {
	// Layout returns the path resolver used by the store.
	Layout() Layout

	// Exists reports whether both the key and certificate files of the identity exist.
	Exists(name string) bool

	// Write creates parent directories as needed and replaces the file at path,
	// returning the content written.
	Write(path string, content []byte) ([]byte, error)

	// Read returns the content of the file at path.
	Read(path string) ([]byte, error)

	// RemoveAll deletes the file or directory tree at path. It returns false
	// without error when nothing was there to remove.
	RemoveAll(path string) (bool, error)

	// ListHosts returns the sorted names of host identities that are present.
	ListHosts() ([]string, error)
}
