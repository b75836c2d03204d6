package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	insertQuoteSampleSQL = `INSERT INTO quote_samples (
        run_id,
        item,
        source,
        price,
        minimum,
        captured_at,
        status,
        error
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8
    );`

	listRecentSamplesSQL = `SELECT
        id,
        run_id,
        item,
        source,
        price,
        minimum,
        captured_at,
        status,
        error,
        created_at
    FROM quote_samples
    ORDER BY created_at DESC
    LIMIT $1;`

	listItemSamplesSQL = `SELECT
        id,
        run_id,
        item,
        source,
        price,
        minimum,
        captured_at,
        status,
        error,
        created_at
    FROM quote_samples
    WHERE item = $1
      AND source = $2
      AND created_at >= $3
      AND created_at < $4
      AND status = 'complete'
    ORDER BY created_at;`

	insertAlertSQL = `INSERT INTO alert_log (
        run_id,
        item,
        base_price,
        candidate_price,
        difference_pct,
        listing_url
    ) VALUES (
        $1,$2,$3,$4,$5,$6
    )
    RETURNING id, created_at;`

	listRecentAlertsSQL = `SELECT
        id,
        run_id,
        item,
        base_price,
        candidate_price,
        difference_pct,
        listing_url,
        created_at
    FROM alert_log
    ORDER BY created_at DESC
    LIMIT $1;`

	deleteAlertsBeforeSQL = `DELETE FROM alert_log WHERE created_at < $1;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// SampleStore defines operations for quote sample auditing.
type SampleStore interface {
	InsertQuoteSample(ctx context.Context, sample QuoteSample) error
	ListRecentSamples(ctx context.Context, limit int) ([]QuoteSample, error)
	ListItemSamples(ctx context.Context, item, source string, from, to time.Time) ([]QuoteSample, error)
}

// AlertStore defines operations for alert auditing.
type AlertStore interface {
	InsertAlert(ctx context.Context, alert AlertEntry) (AlertEntry, error)
	ListRecentAlerts(ctx context.Context, limit int) ([]AlertEntry, error)
	DeleteAlertsBefore(ctx context.Context, olderThan time.Time) error
}

// AdvisoryLocker exposes advisory lock helpers, used to keep two overlapping
// cron invocations from processing the catalog at the same time.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates access to quote samples and the alert log.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := conn.Exec(ctxUnlock, advisoryUnlockSQL, key); err != nil {
			// unlock best effort; log omitted in storage package
		}
		conn.Release()
	}
	return unlock, true, nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// InsertQuoteSample persists one observation.
func (s *Store) InsertQuoteSample(ctx context.Context, sample QuoteSample) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	var errMsg interface{}
	if sample.Error != nil {
		errMsg = *sample.Error
	}

	var capturedAt interface{}
	if !sample.CapturedAt.IsZero() {
		capturedAt = sample.CapturedAt
	}

	_, execErr := pool.Exec(ctx, insertQuoteSampleSQL,
		sample.RunID,
		sample.Item,
		sample.Source,
		sample.Price.String(),
		sample.Minimum.String(),
		capturedAt,
		sample.Status,
		errMsg,
	)
	if execErr != nil {
		return fmt.Errorf("insert quote sample: %w", execErr)
	}
	return nil
}

// ListRecentSamples lists the most recent samples across all items.
func (s *Store) ListRecentSamples(ctx context.Context, limit int) ([]QuoteSample, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentSamplesSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent samples: %w", queryErr)
	}
	defer rows.Close()

	return collectSamples(rows, limit)
}

// ListItemSamples lists one item's complete samples on a source within a window.
func (s *Store) ListItemSamples(ctx context.Context, item, source string, from, to time.Time) ([]QuoteSample, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listItemSamplesSQL, item, source, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list item samples: %w", queryErr)
	}
	defer rows.Close()

	return collectSamples(rows, 0)
}

func collectSamples(rows pgx.Rows, capacity int) ([]QuoteSample, error) {
	samples := make([]QuoteSample, 0, capacity)
	for rows.Next() {
		sample, scanErr := scanQuoteSample(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		samples = append(samples, sample)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return samples, nil
}

// InsertAlert persists an alert emission.
func (s *Store) InsertAlert(ctx context.Context, alert AlertEntry) (AlertEntry, error) {
	pool, err := s.getPool()
	if err != nil {
		return AlertEntry{}, err
	}

	row := pool.QueryRow(ctx, insertAlertSQL,
		alert.RunID,
		alert.Item,
		alert.BasePrice.String(),
		alert.CandidatePrice.String(),
		alert.DifferencePct.String(),
		alert.ListingURL,
	)

	rec := alert
	if scanErr := row.Scan(&rec.ID, &rec.CreatedAt); scanErr != nil {
		return AlertEntry{}, fmt.Errorf("insert alert: %w", scanErr)
	}
	return rec, nil
}

// ListRecentAlerts lists most recent alerts.
func (s *Store) ListRecentAlerts(ctx context.Context, limit int) ([]AlertEntry, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAlertsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent alerts: %w", queryErr)
	}
	defer rows.Close()

	alerts := make([]AlertEntry, 0, limit)
	for rows.Next() {
		var rec AlertEntry
		var baseStr, candidateStr, pctStr string
		if err := rows.Scan(
			&rec.ID,
			&rec.RunID,
			&rec.Item,
			&baseStr,
			&candidateStr,
			&pctStr,
			&rec.ListingURL,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}

		var convErr error
		rec.BasePrice, convErr = decimal.NewFromString(baseStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse base price: %w", convErr)
		}
		rec.CandidatePrice, convErr = decimal.NewFromString(candidateStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse candidate price: %w", convErr)
		}
		rec.DifferencePct, convErr = decimal.NewFromString(pctStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse difference pct: %w", convErr)
		}

		alerts = append(alerts, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return alerts, nil
}

// DeleteAlertsBefore deletes historical alert entries.
func (s *Store) DeleteAlertsBefore(ctx context.Context, olderThan time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteAlertsBeforeSQL, olderThan); execErr != nil {
		return fmt.Errorf("delete alerts before: %w", execErr)
	}
	return nil
}

func scanQuoteSample(rows pgx.Rows) (QuoteSample, error) {
	var (
		sample     QuoteSample
		priceStr   string
		minimumStr string
		capturedAt sql.NullTime
		errMsg     sql.NullString
	)

	if err := rows.Scan(
		&sample.ID,
		&sample.RunID,
		&sample.Item,
		&sample.Source,
		&priceStr,
		&minimumStr,
		&capturedAt,
		&sample.Status,
		&errMsg,
		&sample.CreatedAt,
	); err != nil {
		return QuoteSample{}, err
	}

	var err error
	sample.Price, err = decimal.NewFromString(priceStr)
	if err != nil {
		return QuoteSample{}, fmt.Errorf("parse price: %w", err)
	}
	sample.Minimum, err = decimal.NewFromString(minimumStr)
	if err != nil {
		return QuoteSample{}, fmt.Errorf("parse minimum: %w", err)
	}

	if capturedAt.Valid {
		sample.CapturedAt = capturedAt.Time
	}
	if errMsg.Valid {
		msg := errMsg.String
		sample.Error = &msg
	}

	return sample, nil
}
