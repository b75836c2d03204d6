package arbitrage

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cardwatch/internal/reconcile"
)

var hundred = decimal.NewFromInt(100)

// Alert is the decision artifact emitted when one marketplace undercuts the
// other by at least the configured relative threshold.
type Alert struct {
	ItemName       string
	BasePrice      decimal.Decimal
	CandidatePrice decimal.Decimal
	Difference     decimal.Decimal
	DifferencePct  decimal.Decimal
	ListingURL     string
}

// Input carries the freshest reconciled state of both sources for one item.
type Input struct {
	ItemName string
	// Structured holds the reference-source state; its last-seen current
	// price is the comparison base.
	Structured *reconcile.State
	// Unstructured holds the candidate-source state reconciled this cycle;
	// its historical minimum is the candidate price.
	Unstructured *reconcile.State
	// ListingURL is the unstructured listing observed this cycle.
	ListingURL string
	// RecordedURL is the listing URL persisted before this cycle's
	// write-back; an unchanged listing is never re-alerted.
	RecordedURL string
}

// Evaluator applies the relative-difference threshold and the duplicate
// suppression rule.
type Evaluator struct {
	thresholdPct decimal.Decimal
	logger       zerolog.Logger
}

// NewEvaluator constructs an evaluator for the given threshold percentage.
func NewEvaluator(thresholdPct decimal.Decimal, logger zerolog.Logger) *Evaluator {
	return &Evaluator{
		thresholdPct: thresholdPct,
		logger:       logger.With().Str("component", "arbitrage").Logger(),
	}
}

// Evaluate returns an alert when the candidate is strictly cheaper than the
// base by at least the threshold and the listing has not been surfaced
// before. Nil is the normal "nothing interesting" outcome, never an error.
func (e *Evaluator) Evaluate(in Input) *Alert {
	if in.Structured == nil || in.Unstructured == nil {
		return nil
	}

	base := in.Structured.Current
	candidate := in.Unstructured.Minimum
	if !base.IsPositive() || !candidate.IsPositive() {
		return nil
	}

	difference := base.Sub(candidate)
	if !difference.IsPositive() {
		return nil
	}

	pct := difference.Div(base).Mul(hundred)
	if pct.LessThan(e.thresholdPct) {
		e.logger.Debug().
			Str("item", in.ItemName).
			Str("difference_pct", pct.StringFixed(1)).
			Str("threshold_pct", e.thresholdPct.String()).
			Msg("discrepancy below threshold")
		return nil
	}

	if in.ListingURL == "" {
		e.logger.Debug().
			Str("item", in.ItemName).
			Msg("quote carries no listing url, nothing to point the alert at")
		return nil
	}
	if in.ListingURL == in.RecordedURL {
		e.logger.Debug().
			Str("item", in.ItemName).
			Str("listing_url", in.ListingURL).
			Msg("listing already surfaced, suppressing duplicate alert")
		return nil
	}

	return &Alert{
		ItemName:       in.ItemName,
		BasePrice:      base,
		CandidatePrice: candidate,
		Difference:     difference,
		DifferencePct:  pct,
		ListingURL:     in.ListingURL,
	}
}
