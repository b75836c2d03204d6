package catalog

import "fmt"

// Source identifies one of the tracked marketplaces.
type Source string

const (
	// SourceCardmarket is the structured marketplace exposing labelled price fields.
	SourceCardmarket Source = "cardmarket"
	// SourceVinted is the unstructured marketplace exposing a feed of free-text listings.
	SourceVinted Source = "vinted"
)

// ParseSource validates a configured source name.
func ParseSource(raw string) (Source, error) {
	switch Source(raw) {
	case SourceCardmarket:
		return SourceCardmarket, nil
	case SourceVinted:
		return SourceVinted, nil
	default:
		return "", fmt.Errorf("unknown source %q", raw)
	}
}

// Item is one catalog entry to track. Loaded once at the start of a run and
// immutable afterwards.
type Item struct {
	// Name is the canonical display name used for title matching.
	Name string
	// CardmarketPath is the marketplace-relative product page path. Empty when
	// the item has no Cardmarket listing.
	CardmarketPath string
	// Row is the item's slot in the ledger, as an absolute sheet row number.
	Row int
}

// HasLocator reports whether the item can be fetched from the given source.
// The unstructured source is searched by canonical name, so only the name is
// required there.
func (i Item) HasLocator(source Source) bool {
	if source == SourceCardmarket {
		return i.CardmarketPath != ""
	}
	return i.Name != ""
}
