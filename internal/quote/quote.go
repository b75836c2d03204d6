package quote

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidPrice marks a quote whose price is zero or negative. Such quotes
// are discarded and counted as "no update this cycle".
var ErrInvalidPrice = errors.New("quote price must be positive")

// Quote is a source-agnostic price fact produced by a parser and consumed by
// the reconciler.
type Quote struct {
	// Price is the listing or current price. Always strictly positive.
	Price decimal.Decimal
	// CapturedAt is the zoned timestamp at which the quote was extracted.
	CapturedAt time.Time
	// ListingURL points at the listing the price was taken from. Only the
	// unstructured source provides it.
	ListingURL string

	// Last-seen extras reported by the structured source. Zero when the
	// source does not expose them.
	Trend     decimal.Decimal
	Average   decimal.Decimal
	Available int
}

// New validates and builds a quote.
func New(price decimal.Decimal, capturedAt time.Time) (Quote, error) {
	q := Quote{Price: price, CapturedAt: capturedAt}
	if err := q.Validate(); err != nil {
		return Quote{}, err
	}
	return q, nil
}

// Validate enforces the price invariant.
func (q Quote) Validate() error {
	if !q.Price.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrInvalidPrice, q.Price)
	}
	return nil
}

// ParsePrice normalises marketplace price text into a decimal amount: the
// currency symbol and surrounding whitespace are stripped and a comma decimal
// separator is converted to a period. "24,50 €" parses to 24.5.
func ParsePrice(text string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.ReplaceAll(cleaned, "€", "")
	cleaned = strings.ReplaceAll(cleaned, " ", " ")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse price %q: %w", text, err)
	}
	return value, nil
}
