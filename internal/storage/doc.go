// Package storage persists per-session state for an engine.
//
// A Store is a keyed namespace of opaque blobs scoped to one engine
// (<root>/<engine>/...). Repositories build on it:
//
//   - AuthRepository: credentials under sessions/<name>/auth/
//   - ConfigRepository: session configuration at sessions/<name>/config.yaml
//
// FileStore keeps blobs on disk, writes atomically, caches reads in an LRU and
// can zstd-compress everything it writes.
//
// Example Usage:
//
//	store, err := storage.NewFileStore(storage.FileStoreConfig{Root: ".sessions", Namespace: "webjs"})
//	auth := storage.NewAuthRepository(store)
//	err = auth.Init(ctx, "default")
package storage
