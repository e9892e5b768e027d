package cashubind

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/cashubind/cashubind/engine"
	"github.com/cashubind/cashubind/engine/sqlitestore"
	"github.com/cashubind/cashubind/internal/syncexec"
)

// LocalStore is the shared persistent-store handle. One store may back any
// number of wallet handles; the durable layout under it belongs to the
// engine, not to this layer.
type LocalStore struct {
	inner engine.Store
}

// NewLocalStore opens a SQLite-backed store at a fresh file in the system
// temp directory.
func NewLocalStore() (*LocalStore, error) {
	path := filepath.Join(os.TempDir(), fmt.Sprintf("cashubind_%s.db", uuid.NewString()))
	return NewLocalStoreAtPath(path)
}

// NewLocalStoreAtPath opens (or creates) a SQLite-backed store at path. The
// single open call runs on a private execution context discarded right after.
func NewLocalStoreAtPath(path string) (*LocalStore, error) {
	loop := syncexec.New()
	defer loop.Close()

	var st engine.Store
	err := loop.Do(func(ctx context.Context) error {
		s, err := sqlitestore.Open(ctx, path)
		if err != nil {
			return wrapEngine(err)
		}
		st = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &LocalStore{inner: st}, nil
}

// NewLocalStoreWith wraps an externally supplied store implementation.
func NewLocalStoreWith(store engine.Store) *LocalStore {
	return &LocalStore{inner: store}
}

// Close releases the underlying store. Wallets still bound to the store must
// be closed first; the handle itself is otherwise kept alive by whoever
// references it.
func (s *LocalStore) Close() error {
	return wrapEngine(s.inner.Close())
}
