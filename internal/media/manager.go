// Package media stores per-session media blobs restricted to a MIME allow-list.
package media

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/GriffinCanCode/chatgate/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/chatgate/internal/shared/id"
	"github.com/GriffinCanCode/chatgate/internal/shared/types"
	"github.com/GriffinCanCode/chatgate/internal/storage"
	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrMimeNotAllowed is returned for content outside the allow-list
	ErrMimeNotAllowed = errors.New("mimetype not allowed")
	// ErrTooLarge is returned for content above the size cap
	ErrTooLarge = errors.New("media too large")
	// ErrForeignKey is returned when reading a key owned by another session
	ErrForeignKey = errors.New("media key belongs to another session")
)

// Config configures a Manager
type Config struct {
	Session   string
	Mimetypes []string
	MaxBytes  int
	Store     storage.Store
	Metrics   *monitoring.Metrics
}

// Manager reads and writes the media of one session
type Manager struct {
	session  string
	allowed  []string
	maxBytes int
	store    storage.Store
	metrics  *monitoring.Metrics
}

// NewManager creates a manager owned by one session
func NewManager(cfg Config) *Manager {
	allowed := make([]string, 0, len(cfg.Mimetypes))
	for _, m := range cfg.Mimetypes {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			allowed = append(allowed, m)
		}
	}
	return &Manager{
		session:  cfg.Session,
		allowed:  allowed,
		maxBytes: cfg.MaxBytes,
		store:    cfg.Store,
		metrics:  cfg.Metrics,
	}
}

// Allowed reports whether a MIME type passes the allow-list. An empty list allows everything.
func (m *Manager) Allowed(mime string) bool {
	if len(m.allowed) == 0 {
		return true
	}
	mime = strings.ToLower(mime)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	for _, a := range m.allowed {
		if a == mime || a == "*/*" {
			return true
		}
		if prefix, ok := strings.CutSuffix(a, "/*"); ok && strings.HasPrefix(mime, prefix+"/") {
			return true
		}
	}
	return false
}

// Save detects the type of data, checks it and stores it under media/<session>/
func (m *Manager) Save(ctx context.Context, data []byte, filename string) (*types.Media, error) {
	if m.maxBytes > 0 && len(data) > m.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, len(data), m.maxBytes)
	}

	detected := mimetype.Detect(data)
	if !m.Allowed(detected.String()) {
		return nil, fmt.Errorf("%w: %s", ErrMimeNotAllowed, detected.String())
	}

	key := path.Join(m.prefix(), id.NewMediaID().String()+detected.Extension())
	if err := m.store.Write(ctx, key, data); err != nil {
		return nil, fmt.Errorf("store media: %w", err)
	}
	m.metrics.IncMediaStored(detected.String())

	return &types.Media{
		Key:      key,
		Mimetype: detected.String(),
		Filename: filename,
		Size:     len(data),
	}, nil
}

// Key returns the store key of a stored file of this session
func (m *Manager) Key(file string) string {
	return path.Join(m.prefix(), file)
}

// Read returns a blob previously saved by this session
func (m *Manager) Read(ctx context.Context, key string) ([]byte, error) {
	if !strings.HasPrefix(key, m.prefix()+"/") {
		return nil, fmt.Errorf("%w: %s", ErrForeignKey, key)
	}
	return m.store.Read(ctx, key)
}

// List returns the keys of every stored blob of this session
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx, m.prefix())
}

// Purge removes all media of this session
func (m *Manager) Purge(ctx context.Context) error {
	return m.store.DeletePrefix(ctx, m.prefix())
}

func (m *Manager) prefix() string {
	return path.Join("media", m.session)
}
