package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"cardwatch/internal/alerting"
	"cardwatch/internal/config"
	"cardwatch/internal/fetcher"
	"cardwatch/internal/ledger"
	"cardwatch/internal/service"
	"cardwatch/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newFetchers() (cardmarket, vinted fetcher.PageFetcher) {
	cm := a.Config.Sources.Cardmarket
	vt := a.Config.Sources.Vinted

	cardmarket = fetcher.NewCardmarket(fetcher.CardmarketOptions{
		BaseURL:   cm.BaseURL,
		Timeout:   cm.RequestTimeout,
		UserAgent: cm.UserAgent,
	}, a.Logger)

	vinted = fetcher.NewVinted(fetcher.VintedOptions{
		BaseURL:      vt.BaseURL,
		Timeout:      vt.RequestTimeout,
		UserAgent:    vt.UserAgent,
		SearchPrefix: vt.SearchPrefix,
		MinPriceEUR:  vt.MinPriceEUR,
		CatalogID:    vt.CatalogID,
	}, a.Logger)

	return cardmarket, vinted
}

func (a *App) newNotifier() alerting.Notifier {
	var notifiers []alerting.Notifier

	if a.Config.Alerting.Email.Enabled {
		cfg := a.Config.Alerting.Email
		notifiers = append(notifiers, alerting.NewEmailNotifier(alerting.EmailOptions{
			Host:     cfg.Host,
			Port:     cfg.Port,
			Username: cfg.Username,
			Password: cfg.Password,
			From:     cfg.From,
			To:       cfg.To,
			UseSSL:   cfg.UseSSL,
		}, a.Logger))
	}
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		notifiers = append(notifiers, alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger))
	}

	switch len(notifiers) {
	case 0:
		return nil
	case 1:
		return notifiers[0]
	default:
		return alerting.NewMulti(a.Logger, notifiers...)
	}
}

func (a *App) openLedger(ctx context.Context) (ledger.Store, error) {
	cfg := a.Config.Ledger
	return ledger.NewSheets(ctx, ledger.SheetsConfig{
		SpreadsheetID:   cfg.SpreadsheetID,
		SpreadsheetURL:  cfg.SpreadsheetURL,
		SheetName:       cfg.SheetName,
		CredentialsFile: cfg.CredentialsFile,
	}, a.Logger)
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run executes one reconciliation batch over the tracked catalog.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; run history disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	var sampleStore storage.SampleStore
	var alertStore storage.AlertStore
	if store != nil {
		if key := a.Config.App.AdvisoryLockKey; key != 0 {
			// Cron 重叠调用时只允许一个批次运行。
			release, ok, lockErr := store.TryAdvisoryLock(ctx, key)
			if lockErr != nil {
				return lockErr
			}
			if !ok {
				a.Logger.Warn().Msg("another run holds the lock; exiting")
				return nil
			}
			defer release()
		}

		sampleStore = store
		alertStore = store
	}

	ledgerStore, err := a.openLedger(ctx)
	if err != nil {
		return err
	}

	cardmarket, vinted := a.newFetchers()
	notifier := a.newNotifier()
	if a.Config.Alerting.Enabled && notifier == nil {
		a.Logger.Warn().Msg("alerting enabled but no channel configured")
	}

	svc := service.New(a.Config, service.Dependencies{
		Ledger:            ledgerStore,
		CardmarketFetcher: cardmarket,
		VintedFetcher:     vinted,
		Notifier:          notifier,
		Samples:           sampleStore,
		Alerts:            alertStore,
	}, a.Logger)

	a.Logger.Info().Str("run_id", svc.RunID().String()).Msg("starting reconciliation batch")
	summary, err := svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("batch terminated with error")
		return err
	}

	a.Logger.Info().
		Int("processed", summary.Processed).
		Int("no_data", summary.NoData).
		Int("skipped", summary.Skipped).
		Int("alerted", summary.Alerted).
		Msg("batch finished")
	return nil
}

// ExportOptions hold parameters for exporting an item's price history.
type ExportOptions struct {
	Item      string
	Source    string
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit  int
	Alerts bool
}

// CheckOptions configure the one-off check command.
type CheckOptions struct {
	Name    string
	Source  string
	Locator string
}
