package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cardwatch/internal/catalog"
	"cardwatch/internal/service"
)

// Check fetches and parses one item from one source, without retries,
// persistence, or alerting. Useful for verifying selectors against the live
// marketplaces.
func (a *App) Check(ctx context.Context, opts CheckOptions) error {
	source, err := catalog.ParseSource(opts.Source)
	if err != nil {
		return err
	}
	if opts.Name == "" {
		return errors.New("--name is required")
	}

	item := catalog.Item{Name: opts.Name, CardmarketPath: opts.Locator}
	if !item.HasLocator(source) {
		return fmt.Errorf("source %s requires --locator", source)
	}

	cardmarket, vinted := a.newFetchers()
	svc := service.New(a.Config, service.Dependencies{
		CardmarketFetcher: cardmarket,
		VintedFetcher:     vinted,
	}, a.Logger)

	q, err := svc.FetchQuote(ctx, item, source)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "source:      %s\n", source)
	fmt.Fprintf(os.Stdout, "price:       %s EUR\n", q.Price.StringFixed(2))
	if q.Trend.IsPositive() {
		fmt.Fprintf(os.Stdout, "trend:       %s EUR\n", q.Trend.StringFixed(2))
	}
	if q.Average.IsPositive() {
		fmt.Fprintf(os.Stdout, "avg 30d:     %s EUR\n", q.Average.StringFixed(2))
	}
	if q.Available > 0 {
		fmt.Fprintf(os.Stdout, "available:   %d\n", q.Available)
	}
	if q.ListingURL != "" {
		fmt.Fprintf(os.Stdout, "listing:     %s\n", q.ListingURL)
	}
	fmt.Fprintf(os.Stdout, "captured at: %s\n", q.CapturedAt.Format("02/01/2006 15:04:05"))
	return nil
}
