package alerting

import (
	"context"

	"github.com/rs/zerolog"

	"cardwatch/internal/arbitrage"
)

// Notifier delivers one arbitrage alert to a human. Delivery failure is
// logged by the caller and never retried.
type Notifier interface {
	Notify(ctx context.Context, alert arbitrage.Alert) error
}

// Multi fans one alert out to several channels. Channel failures are logged
// and do not stop the remaining deliveries; the first error is returned.
type Multi struct {
	notifiers []Notifier
	logger    zerolog.Logger
}

// NewMulti builds a fan-out notifier.
func NewMulti(logger zerolog.Logger, notifiers ...Notifier) *Multi {
	return &Multi{
		notifiers: notifiers,
		logger:    logger.With().Str("component", "alert_multi").Logger(),
	}
}

// Notify dispatches to every configured channel.
func (m *Multi) Notify(ctx context.Context, alert arbitrage.Alert) error {
	var firstErr error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, alert); err != nil {
			m.logger.Error().Err(err).Str("item", alert.ItemName).Msg("channel delivery failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

var _ Notifier = (*Multi)(nil)
