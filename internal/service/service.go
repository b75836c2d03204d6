package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cardwatch/internal/alerting"
	"cardwatch/internal/arbitrage"
	"cardwatch/internal/catalog"
	"cardwatch/internal/config"
	"cardwatch/internal/fetcher"
	"cardwatch/internal/ledger"
	"cardwatch/internal/match"
	"cardwatch/internal/parser"
	"cardwatch/internal/quote"
	"cardwatch/internal/reconcile"
	"cardwatch/internal/retry"
	"cardwatch/internal/storage"
)

// Dependencies are the external collaborators injected into the service.
// Samples, Alerts, and Notifier may be nil; the corresponding steps are then
// skipped.
type Dependencies struct {
	Ledger            ledger.Store
	CardmarketFetcher fetcher.PageFetcher
	VintedFetcher     fetcher.PageFetcher
	Notifier          alerting.Notifier
	Samples           storage.SampleStore
	Alerts            storage.AlertStore
}

// Summary reports how the batch went, counted per (item, source) cycle.
type Summary struct {
	Processed int
	NoData    int
	Skipped   int
	Alerted   int
}

// Service drives one sequential pass over the tracked catalog: for each item
// and each enabled source, fetch, parse, reconcile, persist; then evaluate
// arbitrage once per item with the freshest state of both sources.
type Service struct {
	deps Dependencies

	cardmarketParser *parser.Cardmarket
	vintedParser     *parser.Vinted
	retrier          *retry.Orchestrator
	evaluator        *arbitrage.Evaluator

	cardmarketOn bool
	vintedOn     bool
	alertsOn     bool

	runID  uuid.UUID
	logger zerolog.Logger
}

// New constructs the reconciliation service for one run.
func New(cfg *config.Config, deps Dependencies, logger zerolog.Logger) *Service {
	runID := uuid.New()
	logger = logger.With().Str("component", "service").Str("run_id", runID.String()).Logger()

	matcher := match.New(match.Config{
		FuzzyThreshold: cfg.Matching.FuzzyThreshold,
		KeywordOverlap: cfg.Matching.KeywordOverlap,
	}, logger)

	return &Service{
		deps:             deps,
		cardmarketParser: parser.NewCardmarket(logger),
		vintedParser:     parser.NewVinted(matcher, logger),
		retrier: retry.New(retry.Options{
			MaxAttempts: cfg.Retry.MaxAttempts,
			Delay:       cfg.Retry.Delay,
		}, logger),
		evaluator:    arbitrage.NewEvaluator(decimal.NewFromFloat(cfg.Alerting.ThresholdPct), logger),
		cardmarketOn: cfg.Sources.Cardmarket.Enabled,
		vintedOn:     cfg.Sources.Vinted.Enabled,
		alertsOn:     cfg.Alerting.Enabled,
		runID:        runID,
		logger:       logger,
	}
}

// RunID identifies this batch in logs and history rows.
func (s *Service) RunID() uuid.UUID {
	return s.runID
}

// Run processes every tracked item. Individual failures are isolated per
// (item, source); only context cancellation or a failure to load the catalog
// aborts the batch.
func (s *Service) Run(ctx context.Context) (Summary, error) {
	items, err := s.deps.Ledger.ListTrackedItems(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list tracked items: %w", err)
	}

	s.logger.Info().Int("items", len(items)).Msg("starting batch")

	var summary Summary
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		s.processItem(ctx, item, &summary)
	}

	s.logger.Info().
		Int("processed", summary.Processed).
		Int("no_data", summary.NoData).
		Int("skipped", summary.Skipped).
		Int("alerted", summary.Alerted).
		Msg("batch complete")
	return summary, nil
}

// cycleResult carries one (item, source) cycle's outcome to the arbitrage
// step.
type cycleResult struct {
	state *reconcile.State
	fresh *quote.Quote
	// priorURL is the listing URL persisted before this cycle's write-back,
	// used for duplicate suppression.
	priorURL string
}

func (s *Service) processItem(ctx context.Context, item catalog.Item, summary *Summary) {
	var structured, unstructured cycleResult

	// Structured source first: its current price is the comparison base.
	if s.cardmarketOn {
		if item.HasLocator(catalog.SourceCardmarket) {
			structured = s.processSource(ctx, item, catalog.SourceCardmarket, summary)
		} else {
			s.logger.Debug().Str("item", item.Name).Msg("no cardmarket locator, skipping source")
		}
	}
	if s.vintedOn {
		unstructured = s.processSource(ctx, item, catalog.SourceVinted, summary)
	}

	// A discrepancy cannot be assessed without a fresh unstructured
	// comparison point.
	if !s.alertsOn || structured.state == nil || unstructured.state == nil || unstructured.fresh == nil {
		return
	}

	alert := s.evaluator.Evaluate(arbitrage.Input{
		ItemName:     item.Name,
		Structured:   structured.state,
		Unstructured: unstructured.state,
		ListingURL:   unstructured.fresh.ListingURL,
		RecordedURL:  unstructured.priorURL,
	})
	if alert == nil {
		return
	}

	summary.Alerted++
	s.logger.Info().
		Str("item", item.Name).
		Str("base", alert.BasePrice.StringFixed(2)).
		Str("candidate", alert.CandidatePrice.StringFixed(2)).
		Str("difference_pct", alert.DifferencePct.StringFixed(1)).
		Msg("arbitrage alert")

	if s.deps.Alerts != nil {
		entry := storage.AlertEntry{
			RunID:          s.runID,
			Item:           item.Name,
			BasePrice:      alert.BasePrice,
			CandidatePrice: alert.CandidatePrice,
			DifferencePct:  alert.DifferencePct,
			ListingURL:     alert.ListingURL,
		}
		if _, err := s.deps.Alerts.InsertAlert(ctx, entry); err != nil {
			s.logger.Error().Err(err).Str("item", item.Name).Msg("failed to persist alert entry")
		}
	}

	if s.deps.Notifier != nil {
		if err := s.deps.Notifier.Notify(ctx, *alert); err != nil {
			s.logger.Error().Err(err).Str("item", item.Name).Msg("failed to dispatch alert")
		}
	}
}

// processSource runs one retry-bounded fetch-and-reconcile cycle.
func (s *Service) processSource(ctx context.Context, item catalog.Item, source catalog.Source, summary *Summary) cycleResult {
	log := s.logger.With().Str("item", item.Name).Str("source", string(source)).Logger()

	var q quote.Quote
	matched := false

	op := func(ctx context.Context) error {
		parsed, err := s.fetchAndParse(ctx, item, source)
		if errors.Is(err, parser.ErrNoMatch) || errors.Is(err, quote.ErrInvalidPrice) {
			// Content arrived but held nothing usable: not a transient
			// failure, so no retry.
			matched = false
			return nil
		}
		if err != nil {
			return err
		}
		matched = true
		q = parsed
		return nil
	}

	label := item.Name + "/" + string(source)
	outcome, err := s.retrier.Do(ctx, label, op)
	if err != nil {
		summary.Skipped++
		log.Error().Err(err).Int("attempts", outcome.Attempts).Msg("source exhausted, skipping for this run")
		s.recordSample(ctx, item, source, nil, nil, storage.StatusExhausted, err)
		return cycleResult{}
	}

	if !matched {
		summary.NoData++
		log.Info().Msg("no quote this cycle")
		s.recordSample(ctx, item, source, nil, nil, storage.StatusNoMatch, nil)
		return cycleResult{}
	}

	prior, err := s.deps.Ledger.ReadState(ctx, item, source)
	if err != nil {
		summary.Skipped++
		log.Error().Err(err).Msg("failed to read persisted state")
		return cycleResult{}
	}

	priorURL := ""
	if prior != nil {
		priorURL = prior.ListingURL
	}

	state, changed := reconcile.Apply(prior, q)
	if err := s.deps.Ledger.WriteState(ctx, item, source, state); err != nil {
		// The next run retries from the last durable state.
		summary.Skipped++
		log.Error().Err(err).Msg("failed to persist state, not advancing")
		return cycleResult{}
	}

	summary.Processed++
	log.Info().
		Str("price", q.Price.StringFixed(2)).
		Str("minimum", state.Minimum.StringFixed(2)).
		Bool("minimum_changed", changed).
		Msg("state reconciled")
	s.recordSample(ctx, item, source, &q, &state, storage.StatusComplete, nil)

	return cycleResult{state: &state, fresh: &q, priorURL: priorURL}
}

// FetchQuote runs a single fetch-and-parse without retries or persistence.
// Used by the check command.
func (s *Service) FetchQuote(ctx context.Context, item catalog.Item, source catalog.Source) (quote.Quote, error) {
	return s.fetchAndParse(ctx, item, source)
}

func (s *Service) fetchAndParse(ctx context.Context, item catalog.Item, source catalog.Source) (quote.Quote, error) {
	switch source {
	case catalog.SourceCardmarket:
		html, err := s.deps.CardmarketFetcher.FetchPage(ctx, item.CardmarketPath)
		if err != nil {
			return quote.Quote{}, err
		}
		return s.cardmarketParser.Parse(html)
	case catalog.SourceVinted:
		html, err := s.deps.VintedFetcher.FetchPage(ctx, item.Name)
		if err != nil {
			return quote.Quote{}, err
		}
		return s.vintedParser.Parse(html, item.Name)
	default:
		return quote.Quote{}, fmt.Errorf("unknown source %q", source)
	}
}

func (s *Service) recordSample(ctx context.Context, item catalog.Item, source catalog.Source, q *quote.Quote, state *reconcile.State, status string, cause error) {
	if s.deps.Samples == nil {
		return
	}

	sample := storage.QuoteSample{
		RunID:  s.runID,
		Item:   item.Name,
		Source: string(source),
		Status: status,
	}
	if q != nil {
		sample.Price = q.Price
		sample.CapturedAt = q.CapturedAt
	}
	if state != nil {
		sample.Minimum = state.Minimum
	}
	if cause != nil {
		msg := cause.Error()
		sample.Error = &msg
	}

	if err := s.deps.Samples.InsertQuoteSample(ctx, sample); err != nil {
		s.logger.Error().Err(err).Str("item", item.Name).Msg("failed to record sample")
	}
}
