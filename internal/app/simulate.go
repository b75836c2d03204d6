package app

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"cardwatch/internal/arbitrage"
	"cardwatch/internal/reconcile"
)

// SimulateAlert 用给定的基准价/候选价走一遍完整的告警评估与发送流程。
func (a *App) SimulateAlert(ctx context.Context, base, candidate decimal.Decimal, listingURL string) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting 未启用")
	}

	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("未配置任何告警通道")
	}

	evaluator := arbitrage.NewEvaluator(decimal.NewFromFloat(a.Config.Alerting.ThresholdPct), a.Logger)
	alert := evaluator.Evaluate(arbitrage.Input{
		ItemName:     "simulated item",
		Structured:   &reconcile.State{Current: base},
		Unstructured: &reconcile.State{Minimum: candidate},
		ListingURL:   listingURL,
	})
	if alert == nil {
		a.Logger.Info().
			Str("base", base.StringFixed(2)).
			Str("candidate", candidate.StringFixed(2)).
			Msg("no alert: discrepancy below threshold or listing suppressed")
		return nil
	}

	a.Logger.Info().
		Str("difference_pct", alert.DifferencePct.StringFixed(1)).
		Msg("dispatching simulated alert")
	return notifier.Notify(ctx, *alert)
}
