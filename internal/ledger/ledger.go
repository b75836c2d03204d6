package ledger

import (
	"context"

	"cardwatch/internal/catalog"
	"cardwatch/internal/reconcile"
)

// Store is the persisted, row-oriented view of the tracked catalog. One
// implementation is backed by a spreadsheet; the core never touches raw rows.
type Store interface {
	// ListTrackedItems returns the catalog in ledger order.
	ListTrackedItems(ctx context.Context) ([]catalog.Item, error)
	// ReadState returns the persisted state for one item/source, or nil when
	// the item has never been reconciled for that source.
	ReadState(ctx context.Context, item catalog.Item, source catalog.Source) (*reconcile.State, error)
	// WriteState persists the reconciled state as a single batched
	// multi-field update, so a concurrent reader never observes a partial
	// write.
	WriteState(ctx context.Context, item catalog.Item, source catalog.Source, state reconcile.State) error
}
