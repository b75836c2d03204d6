package reconcile

import (
	"time"

	"github.com/shopspring/decimal"

	"cardwatch/internal/quote"
)

// State is the durable per-item, per-source view held by the ledger: the
// last-seen quote fields plus the historical minimum and the point at which
// that minimum was last set. It is created on the first successful
// reconciliation and overwritten on every later one, never deleted.
type State struct {
	// Last-seen fields, refreshed on every successful quote. ListingURL is
	// the listing the newest quote came from; persisting it is what keeps an
	// unchanged listing from being alerted twice.
	Current    decimal.Decimal
	Trend      decimal.Decimal
	Average    decimal.Decimal
	Available  int
	SeenAt     time.Time
	ListingURL string

	// Historical minimum and the point at which it was last set. MinimumAt
	// moves only when the minimum itself moves.
	Minimum   decimal.Decimal
	MinimumAt time.Time
}

// Apply merges a new quote into the prior persisted state and reports
// whether the historical minimum moved. A nil prior means first observation:
// the quote seeds the minimum. Otherwise the minimum only ratchets down, and
// its timestamp is rewritten only on a strict improvement. Last-seen fields,
// the listing URL included, always reflect the newest quote; freshness never
// decreases.
func Apply(prior *State, q quote.Quote) (State, bool) {
	state := State{
		Current:    q.Price,
		Trend:      q.Trend,
		Average:    q.Average,
		Available:  q.Available,
		SeenAt:     q.CapturedAt,
		ListingURL: q.ListingURL,
	}

	if prior == nil {
		state.Minimum = q.Price
		state.MinimumAt = q.CapturedAt
		return state, true
	}

	if q.Price.LessThan(prior.Minimum) {
		state.Minimum = q.Price
		state.MinimumAt = q.CapturedAt
		return state, true
	}

	state.Minimum = prior.Minimum
	state.MinimumAt = prior.MinimumAt
	return state, false
}
