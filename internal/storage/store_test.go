package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, compress bool) *FileStore {
	t.Helper()
	s, err := NewFileStore(FileStoreConfig{Root: t.TempDir(), Namespace: "WEBJS", CacheSize: 4, Compress: compress})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestFileStoreReadWrite(t *testing.T) {
	for _, compress := range []bool{false, true} {
		s := newTestStore(t, compress)
		ctx := context.Background()

		require.NoError(t, s.Write(ctx, "sessions/default/auth/creds.json", []byte(`{"k":"v"}`)))

		data, err := s.Read(ctx, "sessions/default/auth/creds.json")
		require.NoError(t, err)
		assert.Equal(t, `{"k":"v"}`, string(data))

		// bypass cache
		s.cache.Purge()
		data, err = s.Read(ctx, "/sessions/default/auth/creds.json/")
		require.NoError(t, err)
		assert.Equal(t, `{"k":"v"}`, string(data))

		raw, err := os.ReadFile(filepath.Join(s.Dir(), "sessions", "default", "auth", "creds.json"))
		require.NoError(t, err)
		if compress {
			assert.NotEqual(t, data, raw)
		} else {
			assert.Equal(t, data, raw)
		}
	}
}

func TestFileStoreNamespace(t *testing.T) {
	root := t.TempDir()
	s, err := NewFileStore(FileStoreConfig{Root: root, Namespace: "NOWEB"})
	require.NoError(t, err)

	assert.Equal(t, "NOWEB", s.Namespace())
	assert.Equal(t, filepath.Join(root, "noweb"), s.Dir())

	_, err = NewFileStore(FileStoreConfig{Root: root})
	assert.Error(t, err)
}

func TestFileStoreMissingKey(t *testing.T) {
	s := newTestStore(t, false)
	ctx := context.Background()

	_, err := s.Read(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	exists, err := s.Exists(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, s.Delete(ctx, "nope"))
	assert.NoError(t, s.DeletePrefix(ctx, "sessions/nope"))
}

func TestFileStoreRejectsEscapingKeys(t *testing.T) {
	s := newTestStore(t, false)
	ctx := context.Background()

	for _, key := range []string{"", "/", "../etc/passwd", "a/../../b", "a//b", "./a"} {
		assert.ErrorIs(t, s.Write(ctx, key, []byte("x")), ErrInvalidKey, key)
	}
}

func TestFileStoreListAndDeletePrefix(t *testing.T) {
	s := newTestStore(t, false)
	ctx := context.Background()

	for _, key := range []string{"media/default/b", "media/default/a", "media/other/c", "sessions/default/config.yaml"} {
		require.NoError(t, s.Write(ctx, key, []byte(key)))
	}

	keys, err := s.List(ctx, "media/default")
	require.NoError(t, err)
	assert.Equal(t, []string{"media/default/a", "media/default/b"}, keys)

	keys, err = s.List(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, s.DeletePrefix(ctx, "media/default"))

	_, err = s.Read(ctx, "media/default/a")
	assert.ErrorIs(t, err, ErrNotFound, "cached entries must be dropped with the prefix")

	data, err := s.Read(ctx, "media/other/c")
	require.NoError(t, err)
	assert.Equal(t, "media/other/c", string(data))
}

func TestFileStoreReadsPlainFilesWhenCompressing(t *testing.T) {
	root := t.TempDir()
	plain, err := NewFileStore(FileStoreConfig{Root: root, Namespace: "webjs"})
	require.NoError(t, err)
	require.NoError(t, plain.Write(context.Background(), "k", []byte("plain")))

	compressed, err := NewFileStore(FileStoreConfig{Root: root, Namespace: "webjs", Compress: true})
	require.NoError(t, err)
	defer compressed.Close()

	data, err := compressed.Read(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "plain", string(data))
}
