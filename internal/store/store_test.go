package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout(t *testing.T) {
	layout := Layout{Root: "/var/certbase"}

	t.Run("ca paths", func(t *testing.T) {
		require.Equal(t, "/var/certbase/ca", layout.Dir(CAIdentity))
		require.Equal(t, "/var/certbase/ca/ca.key", layout.Path(CAIdentity, KindKey))
		require.Equal(t, "/var/certbase/ca/ca.crt", layout.Path(CAIdentity, KindCert))
	})

	t.Run("host paths", func(t *testing.T) {
		require.Equal(t, "/var/certbase/certs/example.com", layout.Dir("example.com"))
		require.Equal(t, "/var/certbase/certs/example.com/example.com.key", layout.Path("example.com", KindKey))
		require.Equal(t, "/var/certbase/certs/example.com/example.com.crt", layout.Path("example.com", KindCert))
	})

	t.Run("host named ca does not collide with the CA", func(t *testing.T) {
		require.NotEqual(t, layout.Path(CAIdentity, KindKey), layout.Path("ca", KindKey))
		require.NotEqual(t, layout.Dir(CAIdentity), layout.Dir("ca"))
	})

	t.Run("resolution is stable", func(t *testing.T) {
		other := Layout{Root: "/var/certbase"}
		require.Equal(t, layout.Path("a.test", KindCert), other.Path("a.test", KindCert))
	})
}

func TestFileStore_Exists(t *testing.T) {
	t.Run("absent when nothing written", func(t *testing.T) {
		s := NewMemoryStore("/certbase")
		require.False(t, s.Exists("example.com"))
	})

	t.Run("partial presence counts as absent", func(t *testing.T) {
		s := NewMemoryStore("/certbase")

		_, err := s.Write(s.Layout().Path("example.com", KindKey), []byte("key"))
		require.NoError(t, err)
		require.False(t, s.Exists("example.com"))

		_, err = s.Write(s.Layout().Path(CAIdentity, KindCert), []byte("cert"))
		require.NoError(t, err)
		require.False(t, s.Exists(CAIdentity))
	})

	t.Run("present when key and cert exist", func(t *testing.T) {
		s := NewMemoryStore("/certbase")

		_, err := s.Write(s.Layout().Path("example.com", KindKey), []byte("key"))
		require.NoError(t, err)
		_, err = s.Write(s.Layout().Path("example.com", KindCert), []byte("cert"))
		require.NoError(t, err)

		require.True(t, s.Exists("example.com"))
	})
}

func TestFileStore_WriteRead(t *testing.T) {
	t.Run("creates parent directories and overwrites", func(t *testing.T) {
		s := NewFileStore(t.TempDir())
		path := s.Layout().Path("example.com", KindCert)

		written, err := s.Write(path, []byte("first"))
		require.NoError(t, err)
		assert.Equal(t, []byte("first"), written)

		_, err = s.Write(path, []byte("second"))
		require.NoError(t, err)

		data, err := s.Read(path)
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), data)
	})

	t.Run("files are private and no temp files remain", func(t *testing.T) {
		root := t.TempDir()
		s := NewFileStore(root)
		path := s.Layout().Path("example.com", KindKey)

		_, err := s.Write(path, []byte("key"))
		require.NoError(t, err)

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "example.com.key", entries[0].Name())
	})

	t.Run("read of missing file returns io error", func(t *testing.T) {
		s := NewMemoryStore("/certbase")

		_, err := s.Read(s.Layout().Path("missing.test", KindCert))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrIO))
		assert.True(t, errors.Is(err, fs.ErrNotExist))
	})

	t.Run("write on read only filesystem returns io error", func(t *testing.T) {
		s := NewStoreWithFs(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/certbase")

		_, err := s.Write(s.Layout().Path("example.com", KindKey), []byte("key"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrIO))
	})
}

func TestFileStore_RemoveAll(t *testing.T) {
	t.Run("removes an identity directory", func(t *testing.T) {
		s := NewMemoryStore("/certbase")
		writePair(t, s, "example.com")

		removed, err := s.RemoveAll(s.Layout().Dir("example.com"))
		require.NoError(t, err)
		require.True(t, removed)
		require.False(t, s.Exists("example.com"))
	})

	t.Run("removing a missing path is not an error", func(t *testing.T) {
		s := NewMemoryStore("/certbase")

		removed, err := s.RemoveAll(s.Layout().Dir("missing.test"))
		require.NoError(t, err)
		require.False(t, removed)
	})

	t.Run("removing the root wipes everything", func(t *testing.T) {
		s := NewMemoryStore("/certbase")
		writePair(t, s, CAIdentity)
		writePair(t, s, "example.com")

		removed, err := s.RemoveAll(s.Layout().Root)
		require.NoError(t, err)
		require.True(t, removed)
		require.False(t, s.Exists(CAIdentity))
		require.False(t, s.Exists("example.com"))
	})
}

func TestFileStore_ListHosts(t *testing.T) {
	t.Run("missing root yields empty list", func(t *testing.T) {
		s := NewFileStore(filepath.Join(t.TempDir(), "missing"))

		hosts, err := s.ListHosts()
		require.NoError(t, err)
		require.Empty(t, hosts)
	})

	t.Run("lists present hosts sorted and skips the CA and partial identities", func(t *testing.T) {
		s := NewMemoryStore("/certbase")
		writePair(t, s, CAIdentity)
		writePair(t, s, "b.test")
		writePair(t, s, "a.test")

		_, err := s.Write(s.Layout().Path("partial.test", KindKey), []byte("key"))
		require.NoError(t, err)

		hosts, err := s.ListHosts()
		require.NoError(t, err)
		require.Equal(t, []string{"a.test", "b.test"}, hosts)
	})
}

func writePair(t *testing.T, s *FileStore, name string) {
	t.Helper()

	_, err := s.Write(s.Layout().Path(name, KindKey), []byte(name+" key"))
	require.NoError(t, err)
	_, err = s.Write(s.Layout().Path(name, KindCert), []byte(name+" cert"))
	require.NoError(t, err)
}
