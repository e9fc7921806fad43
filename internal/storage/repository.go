package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/GriffinCanCode/chatgate/internal/shared/types"
	"github.com/goccy/go-yaml"
)

const sessionsPrefix = "sessions"

// sessionKey builds a key under sessions/<name>/
func sessionKey(name string, parts ...string) string {
	return path.Join(append([]string{sessionsPrefix, name}, parts...)...)
}

// AuthRepository persists per-session credentials
type AuthRepository struct {
	store Store
}

// NewAuthRepository creates an auth repository on store
func NewAuthRepository(store Store) *AuthRepository {
	return &AuthRepository{store: store}
}

// Init prepares credential storage for name. Calling it again keeps existing credentials.
func (r *AuthRepository) Init(ctx context.Context, name string) error {
	marker := sessionKey(name, "auth", ".init")
	exists, err := r.store.Exists(ctx, marker)
	if err != nil {
		return fmt.Errorf("check auth storage for %s: %w", name, err)
	}
	if exists {
		return nil
	}
	stamp := []byte(time.Now().UTC().Format(time.RFC3339))
	if err := r.store.Write(ctx, marker, stamp); err != nil {
		return fmt.Errorf("init auth storage for %s: %w", name, err)
	}
	return nil
}

// Clean irreversibly removes the credentials of name; missing storage is not an error
func (r *AuthRepository) Clean(ctx context.Context, name string) error {
	if err := r.store.DeletePrefix(ctx, sessionKey(name, "auth")); err != nil {
		return fmt.Errorf("clean auth storage for %s: %w", name, err)
	}
	return nil
}

// Key returns the store key for a credential file of name
func (r *AuthRepository) Key(name, file string) string {
	return sessionKey(name, "auth", file)
}

// Put stores one credential file of name
func (r *AuthRepository) Put(ctx context.Context, name, file string, data []byte) error {
	if file == "" || strings.HasPrefix(file, ".") || strings.Contains(file, "/") {
		return fmt.Errorf("%w: credential file %q", ErrInvalidKey, file)
	}
	if err := r.store.Write(ctx, r.Key(name, file), data); err != nil {
		return fmt.Errorf("store credentials for %s: %w", name, err)
	}
	return nil
}

// Load returns all credential files of name keyed by file name
func (r *AuthRepository) Load(ctx context.Context, name string) (map[string][]byte, error) {
	prefix := sessionKey(name, "auth")
	keys, err := r.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list credentials for %s: %w", name, err)
	}
	files := make(map[string][]byte, len(keys))
	for _, key := range keys {
		file := path.Base(key)
		if strings.HasPrefix(file, ".") {
			continue
		}
		data, err := r.store.Read(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("read credentials for %s: %w", name, err)
		}
		files[file] = data
	}
	return files, nil
}

// ConfigRepository persists per-session configuration as YAML
type ConfigRepository struct {
	store Store
}

// NewConfigRepository creates a config repository on store
func NewConfigRepository(store Store) *ConfigRepository {
	return &ConfigRepository{store: store}
}

// Init records that name has been started. Calling it again keeps the first record.
func (r *ConfigRepository) Init(ctx context.Context, name string) error {
	marker := sessionKey(name, ".init")
	exists, err := r.store.Exists(ctx, marker)
	if err != nil {
		return fmt.Errorf("check config storage for %s: %w", name, err)
	}
	if exists {
		return nil
	}
	stamp := []byte(time.Now().UTC().Format(time.RFC3339))
	if err := r.store.Write(ctx, marker, stamp); err != nil {
		return fmt.Errorf("init config storage for %s: %w", name, err)
	}
	return nil
}

// Save stores cfg for name
func (r *ConfigRepository) Save(ctx context.Context, name string, cfg types.SessionConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config for %s: %w", name, err)
	}
	if err := r.store.Write(ctx, sessionKey(name, "config.yaml"), data); err != nil {
		return fmt.Errorf("save config for %s: %w", name, err)
	}
	return nil
}

// Get returns the stored config of name, or nil when none was saved
func (r *ConfigRepository) Get(ctx context.Context, name string) (*types.SessionConfig, error) {
	data, err := r.store.Read(ctx, sessionKey(name, "config.yaml"))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config for %s: %w", name, err)
	}
	var cfg types.SessionConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config for %s: %w", name, err)
	}
	return &cfg, nil
}

// Clean removes the stored config of name and its init record
func (r *ConfigRepository) Clean(ctx context.Context, name string) error {
	for _, key := range []string{sessionKey(name, "config.yaml"), sessionKey(name, ".init")} {
		if err := r.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("clean config for %s: %w", name, err)
		}
	}
	return nil
}
