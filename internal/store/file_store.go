package store

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

var _ Store = (*FileStore)(nil)

// FileStore is a Store backed by an afero filesystem rooted at a directory.
type FileStore struct {
	fs     afero.Fs
	layout Layout
}

// NewFileStore creates a store on the operating system filesystem.
func NewFileStore(root string) *FileStore {
	return NewStoreWithFs(afero.NewOsFs(), root)
}

// NewMemoryStore creates a store held entirely in memory, for development and testing.
func NewMemoryStore(root string) *FileStore {
	return NewStoreWithFs(afero.NewMemMapFs(), root)
}

// NewStoreWithFs creates a store on the supplied filesystem.
func NewStoreWithFs(afs afero.Fs, root string) *FileStore {
	return &FileStore{
		fs:     afs,
		layout: Layout{Root: filepath.Clean(root)},
	}
}

// Layout returns the path resolver used by the store.
func (s *FileStore) Layout() Layout {
	return s.layout
}

// Exists reports whether both the key and certificate files of the identity exist.
// A lone key or certificate counts as absent.
func (s *FileStore) Exists(name string) bool {
	return s.isFile(s.layout.Path(name, KindKey)) && s.isFile(s.layout.Path(name, KindCert))
}

// Write replaces the file at path through a temporary file and rename, so a
// reader never observes a half written file.
func (s *FileStore) Write(path string, content []byte) ([]byte, error) {
	dir := filepath.Dir(path)

	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w: %w", dir, ErrIO, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file in %s: %w: %w", dir, ErrIO, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return nil, fmt.Errorf("failed to write %s: %w: %w", path, ErrIO, err)
	}

	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return nil, fmt.Errorf("failed to close %s: %w: %w", tmpName, ErrIO, err)
	}

	if err := s.fs.Rename(tmpName, path); err != nil {
		_ = s.fs.Remove(tmpName)
		return nil, fmt.Errorf("failed to replace %s: %w: %w", path, ErrIO, err)
	}

	return content, nil
}

// Read returns the content of the file at path.
func (s *FileStore) Read(path string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w: %w", path, ErrIO, err)
	}

	return data, nil
}

// RemoveAll deletes the file or directory tree at path.
func (s *FileStore) RemoveAll(path string) (bool, error) {
	if _, err := s.fs.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w: %w", path, ErrIO, err)
	}

	if err := s.fs.RemoveAll(path); err != nil {
		return false, fmt.Errorf("failed to remove %s: %w: %w", path, ErrIO, err)
	}

	return true, nil
}

// ListHosts returns the sorted names of host identities that are present.
// A missing storage root yields an empty list.
func (s *FileStore) ListHosts() ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.layout.HostsDir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w: %w", s.layout.HostsDir(), ErrIO, err)
	}

	hosts := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || !s.Exists(entry.Name()) {
			continue
		}
		hosts = append(hosts, entry.Name())
	}

	return hosts, nil
}

func (s *FileStore) isFile(path string) bool {
	info, err := s.fs.Stat(path)
	return err == nil && !info.IsDir()
}
