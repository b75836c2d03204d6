package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultVintedBaseURL = "https://www.vinted.fr"

// VintedOptions parameterise the catalog-search fetcher.
type VintedOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// SearchPrefix is prepended to the item name in the search query to keep
	// results inside the card category ("Lorcana" by default).
	SearchPrefix string
	// MinPriceEUR filters out junk listings below this price.
	MinPriceEUR int
	// CatalogID restricts the search to one marketplace category.
	CatalogID int
}

// Vinted fetches catalog search result pages, ordered cheapest-first so that
// downstream parsing can stop at the first match.
type Vinted struct {
	opts    VintedOptions
	client  *http.Client
	baseURL string
	logger  zerolog.Logger
}

// NewVinted constructs a Vinted search fetcher.
func NewVinted(opts VintedOptions, logger zerolog.Logger) *Vinted {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultVintedBaseURL
	}

	if opts.SearchPrefix == "" {
		opts.SearchPrefix = "Lorcana"
	}
	if opts.MinPriceEUR <= 0 {
		opts.MinPriceEUR = 2
	}
	if opts.CatalogID <= 0 {
		opts.CatalogID = 3224
	}

	return &Vinted{
		opts:    opts,
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		logger:  logger.With().Str("component", "vinted_fetcher").Logger(),
	}
}

// FetchPage retrieves the first cheapest-first search result page for the
// item named by locator.
func (f *Vinted) FetchPage(ctx context.Context, locator string) (string, error) {
	if strings.TrimSpace(locator) == "" {
		return "", transient("vinted", fmt.Errorf("empty item name"))
	}

	searchURL := f.searchURL(locator)
	f.logger.Debug().Str("url", searchURL).Msg("searching catalog")
	return doFetch(ctx, f.client, "vinted", searchURL, f.opts.UserAgent, f.logger)
}

func (f *Vinted) searchURL(name string) string {
	params := url.Values{}
	params.Set("search_text", strings.TrimSpace(f.opts.SearchPrefix+" "+name))
	params.Set("order", "price_low_to_high")
	params.Set("page", "1")
	params.Set("price_from", fmt.Sprintf("%d", f.opts.MinPriceEUR))
	params.Set("catalog[]", fmt.Sprintf("%d", f.opts.CatalogID))
	return f.baseURL + "/catalog?" + params.Encode()
}

var _ PageFetcher = (*Vinted)(nil)
