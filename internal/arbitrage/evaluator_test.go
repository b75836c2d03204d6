package arbitrage

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardwatch/internal/reconcile"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func evaluator(thresholdPct string) *Evaluator {
	return NewEvaluator(dec(thresholdPct), zerolog.Nop())
}

func input(base, candidate, listingURL, recordedURL string) Input {
	return Input{
		ItemName:     "Maui - Héros tragique",
		Structured:   &reconcile.State{Current: dec(base)},
		Unstructured: &reconcile.State{Minimum: dec(candidate)},
		ListingURL:   listingURL,
		RecordedURL:  recordedURL,
	}
}

func TestEvaluateEmitsAboveThreshold(t *testing.T) {
	// 50 vs 44: 6.00 difference is 12%, above a 10% threshold.
	alert := evaluator("10").Evaluate(input("50.00", "44.00", "/items/new", "/items/old"))

	require.NotNil(t, alert)
	assert.True(t, alert.Difference.Equal(dec("6")))
	assert.True(t, alert.DifferencePct.Equal(dec("12")))
	assert.Equal(t, "/items/new", alert.ListingURL)
	assert.Equal(t, "Maui - Héros tragique", alert.ItemName)
}

func TestEvaluateBelowThreshold(t *testing.T) {
	// Same 12% gap is not enough for a 15% threshold.
	assert.Nil(t, evaluator("15").Evaluate(input("50.00", "44.00", "/items/new", "")))
}

func TestEvaluateExactThreshold(t *testing.T) {
	assert.NotNil(t, evaluator("12").Evaluate(input("50.00", "44.00", "/items/new", "")),
		"threshold comparison is inclusive")
}

func TestEvaluateCandidateNotCheaper(t *testing.T) {
	assert.Nil(t, evaluator("10").Evaluate(input("44.00", "44.00", "/items/new", "")))
	assert.Nil(t, evaluator("10").Evaluate(input("44.00", "50.00", "/items/new", "")))
}

func TestEvaluateDuplicateSuppression(t *testing.T) {
	// Identical listing URL: no alert even though the price qualifies.
	assert.Nil(t, evaluator("10").Evaluate(input("50.00", "40.00", "/items/same", "/items/same")))
}

func TestEvaluateNoListingURL(t *testing.T) {
	// A quote without a listing URL has nothing to point a human at, whatever
	// URL was recorded last cycle.
	assert.Nil(t, evaluator("10").Evaluate(input("50.00", "40.00", "", "")))
	assert.Nil(t, evaluator("10").Evaluate(input("50.00", "40.00", "", "/items/old")))
}

func TestEvaluateMissingState(t *testing.T) {
	e := evaluator("10")

	in := input("50.00", "44.00", "/items/new", "")
	in.Structured = nil
	assert.Nil(t, e.Evaluate(in))

	in = input("50.00", "44.00", "/items/new", "")
	in.Unstructured = nil
	assert.Nil(t, e.Evaluate(in))

	in = input("50.00", "44.00", "/items/new", "")
	in.Structured.Current = decimal.Zero
	assert.Nil(t, e.Evaluate(in))
}
