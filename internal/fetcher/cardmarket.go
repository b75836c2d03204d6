package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultCardmarketBaseURL = "https://www.cardmarket.com"

// CardmarketOptions parameterise the product-page fetcher.
type CardmarketOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Cardmarket fetches product pages from the structured marketplace.
type Cardmarket struct {
	opts    CardmarketOptions
	client  *http.Client
	baseURL string
	logger  zerolog.Logger
}

// NewCardmarket constructs a Cardmarket page fetcher.
func NewCardmarket(opts CardmarketOptions, logger zerolog.Logger) *Cardmarket {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultCardmarketBaseURL
	}

	return &Cardmarket{
		opts:    opts,
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		logger:  logger.With().Str("component", "cardmarket_fetcher").Logger(),
	}
}

// FetchPage retrieves the product page at the given marketplace-relative
// path.
func (f *Cardmarket) FetchPage(ctx context.Context, locator string) (string, error) {
	if locator == "" {
		return "", transient("cardmarket", fmt.Errorf("empty product path"))
	}
	if !strings.HasPrefix(locator, "/") {
		locator = "/" + locator
	}

	return doFetch(ctx, f.client, "cardmarket", f.baseURL+locator, f.opts.UserAgent, f.logger)
}

// doFetch runs one GET and returns the body. Shared by both source fetchers;
// every failure path comes back as a TransientError.
func doFetch(ctx context.Context, client *http.Client, source, url, userAgent string, logger zerolog.Logger) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", transient(source, err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9")
	if ua := strings.TrimSpace(userAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "cardwatch/1.0")
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", transient(source, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transient(source, err)
	}

	if resp.StatusCode != http.StatusOK {
		logger.Debug().Int("status", resp.StatusCode).Str("url", url).Msg("non-200 response")
		return "", transient(source, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	return string(body), nil
}

var _ PageFetcher = (*Cardmarket)(nil)
