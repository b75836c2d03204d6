package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cardwatch/internal/reconcile"
)

// Ledger sheet layout. One row per tracked item, columns A through R.
// Indices are relative to column A.
const (
	colNameEN         = 0  // A
	colNameFR         = 1  // B canonical display name
	colCardmarketURL  = 8  // I product page URL or path
	colCurrentPrice   = 9  // J
	colTrendPrice     = 10 // K
	colAvg30Days      = 11 // L
	colAvailableItems = 12 // M
	colMinPrice       = 13 // N
	colMinTimestamp   = 14 // O
	colVintedMin      = 15 // P
	colVintedMinAt    = 16 // Q
	colVintedURL      = 17 // R last-seen listing URL
)

const timestampLayout = "02/01/2006 15:04:05"

var ledgerLocation = func() *time.Location {
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		return time.UTC
	}
	return loc
}()

// stateRow is the schema-validated view of one persisted ledger row. It is
// constructed once at the store boundary from the raw cell values; malformed
// cells fail here instead of leaking position-indexed access into the core.
type stateRow struct {
	cardmarket *reconcile.State
	vinted     *reconcile.State
}

// parseStateRow validates the raw values of one row, starting at column A.
// Short rows are legal: the sheet API omits trailing empty cells.
func parseStateRow(raw []interface{}) (stateRow, error) {
	var row stateRow

	minimum, err := decimalCell(raw, colMinPrice)
	if err != nil {
		return stateRow{}, fmt.Errorf("minimum price: %w", err)
	}
	if minimum != nil {
		state := reconcile.State{Minimum: *minimum}

		if v, err := decimalCell(raw, colCurrentPrice); err != nil {
			return stateRow{}, fmt.Errorf("current price: %w", err)
		} else if v != nil {
			state.Current = *v
		}
		if v, err := decimalCell(raw, colTrendPrice); err != nil {
			return stateRow{}, fmt.Errorf("trend price: %w", err)
		} else if v != nil {
			state.Trend = *v
		}
		if v, err := decimalCell(raw, colAvg30Days); err != nil {
			return stateRow{}, fmt.Errorf("average price: %w", err)
		} else if v != nil {
			state.Average = *v
		}
		if v, err := intCell(raw, colAvailableItems); err != nil {
			return stateRow{}, fmt.Errorf("available items: %w", err)
		} else {
			state.Available = v
		}
		if ts, err := timeCell(raw, colMinTimestamp); err != nil {
			return stateRow{}, fmt.Errorf("minimum timestamp: %w", err)
		} else if ts != nil {
			state.MinimumAt = *ts
		}

		row.cardmarket = &state
	}

	vintedMin, err := decimalCell(raw, colVintedMin)
	if err != nil {
		return stateRow{}, fmt.Errorf("vinted minimum: %w", err)
	}
	if vintedMin != nil {
		state := reconcile.State{Minimum: *vintedMin, ListingURL: stringCell(raw, colVintedURL)}
		if ts, err := timeCell(raw, colVintedMinAt); err != nil {
			return stateRow{}, fmt.Errorf("vinted timestamp: %w", err)
		} else if ts != nil {
			state.MinimumAt = *ts
		}

		row.vinted = &state
	}

	return row, nil
}

func stringCell(raw []interface{}, idx int) string {
	if idx >= len(raw) || raw[idx] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", raw[idx]))
}

// decimalCell returns nil for an empty cell and an error for a non-numeric
// one. Values may arrive as numbers or as comma-decimal strings.
func decimalCell(raw []interface{}, idx int) (*decimal.Decimal, error) {
	text := stringCell(raw, idx)
	if text == "" {
		return nil, nil
	}
	text = strings.ReplaceAll(text, ",", ".")
	value, err := decimal.NewFromString(text)
	if err != nil {
		return nil, fmt.Errorf("cell %q is not numeric", text)
	}
	return &value, nil
}

func intCell(raw []interface{}, idx int) (int, error) {
	text := stringCell(raw, idx)
	if text == "" {
		return 0, nil
	}
	// Sheets returns whole numbers as "142" or "142.0" depending on cell
	// formatting.
	text = strings.TrimSuffix(text, ".0")
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("cell %q is not an integer", text)
	}
	return n, nil
}

func timeCell(raw []interface{}, idx int) (*time.Time, error) {
	text := stringCell(raw, idx)
	if text == "" {
		return nil, nil
	}
	ts, err := time.ParseInLocation(timestampLayout, text, ledgerLocation)
	if err != nil {
		return nil, fmt.Errorf("cell %q is not a timestamp", text)
	}
	return &ts, nil
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(ledgerLocation).Format(timestampLayout)
}
