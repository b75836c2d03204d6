package parser

import (
	"errors"
	"time"
)

// ErrNoMatch reports that fetched content held no valid quote for the target
// item. It is the normal "no data this cycle" outcome, distinct from a
// transient fetch failure, and is never retried.
var ErrNoMatch = errors.New("parser: no matching quote found")

// Quotes are stamped in the marketplaces' local timezone.
var captureLocation = func() *time.Location {
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		return time.UTC
	}
	return loc
}()

func captureTime() time.Time {
	return time.Now().In(captureLocation)
}
