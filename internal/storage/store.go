package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/zstd"
)

var (
	// ErrNotFound is returned when a key does not exist
	ErrNotFound = errors.New("key not found")
	// ErrInvalidKey is returned for empty keys or keys escaping the namespace
	ErrInvalidKey = errors.New("invalid storage key")
)

// Store is a keyed persistent namespace of opaque blobs
type Store interface {
	Namespace() string
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// FileStoreConfig configures a FileStore
type FileStoreConfig struct {
	Root      string
	Namespace string
	CacheSize int
	Compress  bool
}

// FileStore stores blobs as files under <root>/<namespace>
type FileStore struct {
	dir       string
	namespace string
	cache     *lru.Cache[string, []byte]
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
}

// zstdMagic prefixes every zstd frame; lets a compressing store read plain files
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// NewFileStore creates the namespace directory and the read cache
func NewFileStore(cfg FileStoreConfig) (*FileStore, error) {
	if cfg.Namespace == "" {
		return nil, fmt.Errorf("storage namespace required")
	}
	if cfg.Root == "" {
		cfg.Root = ".sessions"
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 128
	}

	dir := filepath.Join(cfg.Root, strings.ToLower(cfg.Namespace))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	cache, err := lru.New[string, []byte](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create store cache: %w", err)
	}

	s := &FileStore{dir: dir, namespace: cfg.Namespace, cache: cache}
	// The decoder is always present so compressed blobs stay readable after compression is turned off
	if s.decoder, err = zstd.NewReader(nil); err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	if cfg.Compress {
		if s.encoder, err = zstd.NewWriter(nil); err != nil {
			return nil, fmt.Errorf("create zstd encoder: %w", err)
		}
	}
	return s, nil
}

// Namespace returns the engine namespace
func (s *FileStore) Namespace() string {
	return s.namespace
}

// Dir returns the namespace directory on disk
func (s *FileStore) Dir() string {
	return s.dir
}

// Read returns the blob stored at key
func (s *FileStore) Read(ctx context.Context, key string) ([]byte, error) {
	key, path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	if cached, ok := s.cache.Get(key); ok {
		return bytes.Clone(cached), nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	data := raw
	if bytes.HasPrefix(raw, zstdMagic) {
		if data, err = s.decoder.DecodeAll(raw, nil); err != nil {
			return nil, fmt.Errorf("decompress %s: %w", key, err)
		}
	}

	s.cache.Add(key, bytes.Clone(data))
	return data, nil
}

// Write stores data at key, replacing any previous blob atomically
func (s *FileStore) Write(ctx context.Context, key string, data []byte) error {
	key, path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("ensure dir for %s: %w", key, err)
	}

	payload := data
	if s.encoder != nil {
		payload = s.encoder.EncodeAll(data, nil)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", key, err)
	}
	if _, err := io.Copy(tmp, bytes.NewReader(payload)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename %s: %w", key, err)
	}

	s.cache.Add(key, bytes.Clone(data))
	return nil
}

// Exists reports whether key holds a blob
func (s *FileStore) Exists(ctx context.Context, key string) (bool, error) {
	key, path, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	if s.cache.Contains(key) {
		return true, nil
	}
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

// List returns the keys under prefix in lexical order
func (s *FileStore) List(ctx context.Context, prefix string) ([]string, error) {
	_, root, err := s.resolve(prefix)
	if err != nil {
		return nil, err
	}

	var keys []string
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete removes key; deleting a missing key is not an error
func (s *FileStore) Delete(ctx context.Context, key string) error {
	key, path, err := s.resolve(key)
	if err != nil {
		return err
	}
	s.cache.Remove(key)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// DeletePrefix removes every key under prefix
func (s *FileStore) DeletePrefix(ctx context.Context, prefix string) error {
	cleaned, path, err := s.resolve(prefix)
	if err != nil {
		return err
	}
	for _, key := range s.cache.Keys() {
		if key == cleaned || strings.HasPrefix(key, cleaned+"/") {
			s.cache.Remove(key)
		}
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("delete prefix %s: %w", prefix, err)
	}
	return nil
}

// Close releases the zstd codecs
func (s *FileStore) Close() error {
	if s.encoder != nil {
		if err := s.encoder.Close(); err != nil {
			return err
		}
	}
	s.decoder.Close()
	return nil
}

// resolve normalizes a slash key and maps it to a file path inside the namespace
func (s *FileStore) resolve(key string) (string, string, error) {
	cleaned := strings.Trim(key, "/")
	if cleaned == "" {
		return "", "", ErrInvalidKey
	}
	for _, part := range strings.Split(cleaned, "/") {
		if part == "" || part == "." || part == ".." {
			return "", "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return cleaned, filepath.Join(s.dir, filepath.FromSlash(cleaned)), nil
}
