// Package store persists checklist items.
//
// Every backend serializes writers; Mutate is the read-modify-write entry
// point used whenever a change depends on the current row.
package store

import (
	"context"
	"errors"

	"github.com/idilsaglam/checklist/internal/model"
)

var (
	ErrNotFound = errors.New("item not found")
	ErrClosed   = errors.New("store closed")
)

// Store is the item table.
type Store interface {
	// All returns every item ordered by id ascending.
	All(ctx context.Context) ([]model.Item, error)
	// Observe streams ordered snapshots: the current one, then one per change.
	// The channel is closed when ctx is done or the store is closed.
	Observe(ctx context.Context) (<-chan []model.Item, error)
	// Insert stores it and returns the assigned id. it.ID is ignored.
	Insert(ctx context.Context, it model.Item) (int64, error)
	// Update overwrites the row with it.ID.
	Update(ctx context.Context, it model.Item) error
	// Delete removes the row; deleting a missing id is not an error.
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (model.Item, error)
	// Mutate applies fn to the latest persisted row and writes the result,
	// returning the row before and after. Returning an error from fn aborts.
	Mutate(ctx context.Context, id int64, fn func(*model.Item) error) (before, after model.Item, err error)
	Close() error
}
