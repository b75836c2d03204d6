package ledger

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"cardwatch/internal/catalog"
	"cardwatch/internal/reconcile"
)

// SheetsConfig parameterises the Google Sheets ledger adapter.
type SheetsConfig struct {
	// SpreadsheetID identifies the document. May also be given as a full
	// document URL via SpreadsheetURL.
	SpreadsheetID   string
	SpreadsheetURL  string
	SheetName       string
	CredentialsFile string
}

// Sheets is the spreadsheet-backed ledger. One service handle is opened per
// run and reused for every item; no thread-safety is provided or required.
type Sheets struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
	logger        zerolog.Logger
}

// NewSheets opens the ledger with service-account credentials.
func NewSheets(ctx context.Context, cfg SheetsConfig, logger zerolog.Logger) (*Sheets, error) {
	id := cfg.SpreadsheetID
	if id == "" && cfg.SpreadsheetURL != "" {
		parsed, err := SpreadsheetIDFromURL(cfg.SpreadsheetURL)
		if err != nil {
			return nil, err
		}
		id = parsed
	}
	if id == "" {
		return nil, fmt.Errorf("ledger: spreadsheet id or url required")
	}

	sheetName := cfg.SheetName
	if sheetName == "" {
		sheetName = "data"
	}

	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("ledger: open sheets service: %w", err)
	}

	return &Sheets{
		svc:           svc,
		spreadsheetID: id,
		sheetName:     sheetName,
		logger:        logger.With().Str("component", "ledger").Logger(),
	}, nil
}

// SpreadsheetIDFromURL extracts the document id from a Sheets URL of the
// form https://docs.google.com/spreadsheets/d/<id>/....
func SpreadsheetIDFromURL(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("ledger: parse spreadsheet url: %w", err)
	}
	parts := strings.Split(parsed.Path, "/")
	if len(parts) < 4 || parts[1] != "spreadsheets" || parts[3] == "" {
		return "", fmt.Errorf("ledger: spreadsheet id not found in url %q", raw)
	}
	return parts[3], nil
}

// ListTrackedItems loads the catalog rows. Rows without a canonical name are
// skipped; row numbers are preserved so later writes address the right slot.
func (s *Sheets) ListTrackedItems(ctx context.Context) ([]catalog.Item, error) {
	rng := fmt.Sprintf("%s!A2:R", s.sheetName)
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("ledger: list tracked items: %w", err)
	}

	items := make([]catalog.Item, 0, len(resp.Values))
	for i, raw := range resp.Values {
		name := stringCell(raw, colNameFR)
		if name == "" {
			continue
		}
		items = append(items, catalog.Item{
			Name:           name,
			CardmarketPath: productPath(stringCell(raw, colCardmarketURL)),
			Row:            i + 2,
		})
	}

	s.logger.Debug().Int("items", len(items)).Msg("catalog loaded")
	return items, nil
}

// productPath normalises a cardmarket cell that may hold either a full URL
// or a marketplace-relative path.
func productPath(cell string) string {
	if cell == "" {
		return ""
	}
	if strings.HasPrefix(cell, "http://") || strings.HasPrefix(cell, "https://") {
		parsed, err := url.Parse(cell)
		if err != nil {
			return ""
		}
		path := parsed.Path
		if parsed.RawQuery != "" {
			path += "?" + parsed.RawQuery
		}
		return path
	}
	return cell
}

// ReadState reads and validates the persisted row for one item, returning
// the slice of it that belongs to the requested source.
func (s *Sheets) ReadState(ctx context.Context, item catalog.Item, source catalog.Source) (*reconcile.State, error) {
	rng := fmt.Sprintf("%s!A%d:R%d", s.sheetName, item.Row, item.Row)
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("ledger: read state row %d: %w", item.Row, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}

	row, err := parseStateRow(resp.Values[0])
	if err != nil {
		return nil, fmt.Errorf("ledger: row %d: %w", item.Row, err)
	}

	if source == catalog.SourceCardmarket {
		return row.cardmarket, nil
	}
	return row.vinted, nil
}

// WriteState persists the reconciled state for one item/source. All fields
// of the source's column block go out in a single batch update.
func (s *Sheets) WriteState(ctx context.Context, item catalog.Item, source catalog.Source, state reconcile.State) error {
	var rng string
	var values []interface{}

	switch source {
	case catalog.SourceCardmarket:
		rng = fmt.Sprintf("%s!J%d:O%d", s.sheetName, item.Row, item.Row)
		values = []interface{}{
			state.Current.InexactFloat64(),
			state.Trend.InexactFloat64(),
			state.Average.InexactFloat64(),
			state.Available,
			state.Minimum.InexactFloat64(),
			formatTimestamp(state.MinimumAt),
		}
	case catalog.SourceVinted:
		rng = fmt.Sprintf("%s!P%d:R%d", s.sheetName, item.Row, item.Row)
		values = []interface{}{
			state.Minimum.InexactFloat64(),
			formatTimestamp(state.MinimumAt),
			state.ListingURL,
		}
	default:
		return fmt.Errorf("ledger: unknown source %q", source)
	}

	body := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data: []*sheets.ValueRange{
			{Range: rng, Values: [][]interface{}{values}},
		},
	}

	if _, err := s.svc.Spreadsheets.Values.BatchUpdate(s.spreadsheetID, body).Context(ctx).Do(); err != nil {
		return fmt.Errorf("ledger: write state row %d (%s): %w", item.Row, source, err)
	}

	s.logger.Debug().Str("item", item.Name).Str("source", string(source)).Int("row", item.Row).Msg("state persisted")
	return nil
}

var _ Store = (*Sheets)(nil)
