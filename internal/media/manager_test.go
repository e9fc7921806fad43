package media

import (
	"context"
	"strings"
	"testing"

	"github.com/GriffinCanCode/chatgate/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1x1 transparent PNG
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func newTestManager(t *testing.T, session string, mimetypes []string, maxBytes int) (*Manager, storage.Store) {
	t.Helper()
	store, err := storage.NewFileStore(storage.FileStoreConfig{Root: t.TempDir(), Namespace: "webjs"})
	require.NoError(t, err)
	return NewManager(Config{Session: session, Mimetypes: mimetypes, MaxBytes: maxBytes, Store: store}), store
}

func TestAllowed(t *testing.T) {
	tests := []struct {
		name      string
		allowList []string
		mime      string
		want      bool
	}{
		{"empty list allows all", nil, "application/zip", true},
		{"exact match", []string{"image/png"}, "image/png", true},
		{"exact mismatch", []string{"image/png"}, "image/jpeg", false},
		{"wildcard subtype", []string{"image/*"}, "image/jpeg", true},
		{"wildcard other family", []string{"image/*"}, "audio/ogg", false},
		{"parameters ignored", []string{"text/plain"}, "text/plain; charset=utf-8", true},
		{"case insensitive", []string{" Image/PNG "}, "image/png", true},
		{"any", []string{"*/*"}, "video/mp4", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestManager(t, "default", tt.allowList, 0)
			assert.Equal(t, tt.want, m.Allowed(tt.mime))
		})
	}
}

func TestSaveAndRead(t *testing.T) {
	m, _ := newTestManager(t, "default", []string{"image/*"}, 0)
	ctx := context.Background()

	media, err := m.Save(ctx, pngBytes, "pixel.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", media.Mimetype)
	assert.Equal(t, "pixel.png", media.Filename)
	assert.Equal(t, len(pngBytes), media.Size)
	assert.True(t, strings.HasPrefix(media.Key, "media/default/"))
	assert.True(t, strings.HasSuffix(media.Key, ".png"))

	data, err := m.Read(ctx, media.Key)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
	assert.Equal(t, media.Key, m.Key(strings.TrimPrefix(media.Key, "media/default/")))

	keys, err := m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{media.Key}, keys)
}

func TestSaveRejectsDisallowedType(t *testing.T) {
	m, _ := newTestManager(t, "default", []string{"image/*"}, 0)

	_, err := m.Save(context.Background(), []byte("just some text"), "note.txt")
	assert.ErrorIs(t, err, ErrMimeNotAllowed)
}

func TestSaveRejectsOversize(t *testing.T) {
	m, _ := newTestManager(t, "default", nil, 10)

	_, err := m.Save(context.Background(), pngBytes, "pixel.png")
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestSessionsAreIsolated(t *testing.T) {
	store, err := storage.NewFileStore(storage.FileStoreConfig{Root: t.TempDir(), Namespace: "webjs"})
	require.NoError(t, err)
	a := NewManager(Config{Session: "a", Store: store})
	b := NewManager(Config{Session: "b", Store: store})
	ctx := context.Background()

	media, err := a.Save(ctx, pngBytes, "")
	require.NoError(t, err)

	_, err = b.Read(ctx, media.Key)
	assert.ErrorIs(t, err, ErrForeignKey)

	require.NoError(t, b.Purge(ctx))
	_, err = a.Read(ctx, media.Key)
	require.NoError(t, err)

	require.NoError(t, a.Purge(ctx))
	_, err = a.Read(ctx, media.Key)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
