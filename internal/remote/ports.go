// Package remote defines the port to the per-user remote document store.
// The remote holds one row per identity carrying the entire serialized
// ledger store; documents are always read and written whole.
package remote

import (
	"context"
	"errors"

	"bilancio/internal/core"
)

// ErrNotFound is returned by FetchForUser when no document exists yet for
// the given identity (first login).
var ErrNotFound = errors.New("no remote document for user")

// StoreClient reads and writes a user's full store. UpsertForUser must be
// safe to call concurrently for the same user; the backing store resolves
// races last-write-wins on its own timestamp, not arrival order.
type StoreClient interface {
	FetchForUser(ctx context.Context, userID string) (core.Store, error)
	UpsertForUser(ctx context.Context, userID string, store core.Store) error
}
