package fetcher

import (
	"context"
	"errors"
	"fmt"
)

// PageFetcher retrieves raw marketplace page content for a locator. The
// locator's meaning is source-specific: a product page path for the
// structured source, a canonical item name for the unstructured one.
type PageFetcher interface {
	FetchPage(ctx context.Context, locator string) (string, error)
}

// TransientError wraps any network or page-load failure. Every error raised
// by a fetcher is considered retryable by the caller.
type TransientError struct {
	Source string
	Err    error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s fetch: %v", e.Source, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err originated from a fetch attempt.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

func transient(source string, err error) error {
	return &TransientError{Source: source, Err: err}
}
