package reconcile

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardwatch/internal/quote"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func quoteAt(price string, at time.Time, url string) quote.Quote {
	q, err := quote.New(dec(price), at)
	if err != nil {
		panic(err)
	}
	q.ListingURL = url
	return q
}

func TestApplyFirstObservation(t *testing.T) {
	at := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	state, changed := Apply(nil, quoteAt("45.00", at, "/items/a"))

	require.True(t, changed, "first observation must report a changed minimum")
	assert.True(t, state.Minimum.Equal(dec("45")))
	assert.Equal(t, at, state.MinimumAt)
	assert.Equal(t, "/items/a", state.ListingURL)
	assert.True(t, state.Current.Equal(dec("45")))
}

func TestApplyImprovedMinimum(t *testing.T) {
	t0 := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	prior, _ := Apply(nil, quoteAt("45.00", t0, "/items/a"))
	state, changed := Apply(&prior, quoteAt("42.50", t1, "/items/b"))

	require.True(t, changed)
	assert.True(t, state.Minimum.Equal(dec("42.5")))
	assert.Equal(t, t1, state.MinimumAt, "minimum timestamp must follow the improving quote")
	assert.Equal(t, "/items/b", state.ListingURL)
}

func TestApplyWorseQuoteKeepsMinimumProvenance(t *testing.T) {
	t0 := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	prior, _ := Apply(nil, quoteAt("42.50", t0, "/items/a"))
	q := quoteAt("48.00", t1, "/items/b")
	q.Available = 7
	state, changed := Apply(&prior, q)

	require.False(t, changed)
	assert.True(t, state.Minimum.Equal(dec("42.5")))
	assert.Equal(t, t0, state.MinimumAt, "untouched minimum keeps its original timestamp")

	// Freshness never decreases: last-seen fields, the listing URL included,
	// follow the newest quote even when the minimum stands.
	assert.True(t, state.Current.Equal(dec("48")))
	assert.Equal(t, 7, state.Available)
	assert.Equal(t, t1, state.SeenAt)
	assert.Equal(t, "/items/b", state.ListingURL)
}

func TestApplyEqualPriceDoesNotMoveProvenance(t *testing.T) {
	t0 := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	prior, _ := Apply(nil, quoteAt("42.50", t0, "/items/a"))
	state, changed := Apply(&prior, quoteAt("42.50", t0.Add(time.Hour), "/items/b"))

	assert.False(t, changed, "equal price is not a strict improvement")
	assert.Equal(t, t0, state.MinimumAt)
}

func TestApplyRefreshesListingURLWithoutImprovement(t *testing.T) {
	t0 := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	// The listing that set the minimum has since been sold; the feed now
	// surfaces a pricier one. The persisted URL must track the listing
	// actually on offer, or the same listing gets re-alerted every run.
	prior, _ := Apply(nil, quoteAt("30.00", t0, "/items/gone-a"))
	state, changed := Apply(&prior, quoteAt("45.00", t0.Add(time.Hour), "/items/b"))

	assert.False(t, changed)
	assert.True(t, state.Minimum.Equal(dec("30")))
	assert.Equal(t, "/items/b", state.ListingURL)
}

func TestApplyIdempotent(t *testing.T) {
	t0 := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	prior, _ := Apply(nil, quoteAt("45.00", t0, "/items/a"))
	q := quoteAt("43.00", t0.Add(time.Hour), "/items/b")

	first, _ := Apply(&prior, q)
	second, _ := Apply(&prior, q)
	assert.Equal(t, first, second)
}

func TestApplyMinimumInvariant(t *testing.T) {
	prices := []string{"45.00", "47.10", "42.50", "42.50", "44.00", "41.99", "60.00"}

	var state *State
	at := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	for i, p := range prices {
		next, _ := Apply(state, quoteAt(p, at.Add(time.Duration(i)*time.Hour), ""))
		state = &next
	}

	// The reconciled minimum equals the minimum of every price seen, in any
	// order of arrival.
	assert.True(t, state.Minimum.Equal(dec("41.99")), "minimum = %s", state.Minimum)
}
