package storage

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sample statuses recorded per (item, source) cycle.
const (
	StatusComplete  = "complete"
	StatusNoMatch   = "no_match"
	StatusExhausted = "exhausted"
)

// QuoteSample is one persisted observation of an item on a source within a
// run. Failed cycles are recorded too, with a status and error message.
type QuoteSample struct {
	ID         int64
	RunID      uuid.UUID
	Item       string
	Source     string
	Price      decimal.Decimal
	Minimum    decimal.Decimal
	CapturedAt time.Time
	Status     string
	Error      *string
	CreatedAt  time.Time
}

// AlertEntry audits one emitted arbitrage alert.
type AlertEntry struct {
	ID             int64
	RunID          uuid.UUID
	Item           string
	BasePrice      decimal.Decimal
	CandidatePrice decimal.Decimal
	DifferencePct  decimal.Decimal
	ListingURL     string
	CreatedAt      time.Time
}
