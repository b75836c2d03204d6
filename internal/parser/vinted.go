package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"cardwatch/internal/match"
	"cardwatch/internal/quote"
)

const (
	listingCardSelector = "div.feed-grid__item"
	fullRowClass        = "feed-grid__item--full-row"
	overlayLinkSelector = `a[data-testid$="--overlay-link"]`
	priceSelector       = "span.web_ui__Text__subtitle"

	// Listings append a brand suffix to the title ("…, marque Disney");
	// everything from the separator on is dropped before matching.
	brandSuffixSep = ", marque"
)

// Vinted walks a catalog search feed and returns the first listing whose
// title matches the canonical item name and whose price parses.
type Vinted struct {
	matcher *match.Matcher
	logger  zerolog.Logger
}

// NewVinted constructs the unstructured-source parser.
func NewVinted(matcher *match.Matcher, logger zerolog.Logger) *Vinted {
	return &Vinted{
		matcher: matcher,
		logger:  logger.With().Str("component", "vinted_parser").Logger(),
	}
}

// Parse iterates listing cards in page order. Sponsored full-row cards are
// skipped, and a listing whose price text does not parse to a positive
// number is skipped individually rather than failing the parse. The feed is
// requested cheapest-first, so the first match wins; listings are never
// re-sorted here.
func (p *Vinted) Parse(html, canonicalName string) (quote.Quote, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		p.logger.Debug().Err(err).Msg("unreadable page content")
		return quote.Quote{}, ErrNoMatch
	}

	var (
		found  quote.Quote
		hasHit bool
	)

	doc.Find(listingCardSelector).EachWithBreak(func(_ int, card *goquery.Selection) bool {
		if card.HasClass(fullRowClass) {
			p.logger.Debug().Msg("skipping full-row card (likely an ad)")
			return true
		}

		link := card.Find(overlayLinkSelector).First()
		if link.Length() == 0 {
			return true
		}

		title := cleanTitle(link.AttrOr("title", ""))
		if title == "" {
			return true
		}

		if !p.matcher.Matches(canonicalName, title) {
			p.logger.Debug().Str("title", title).Msg("title does not match, ignoring")
			return true
		}

		priceText := strings.TrimSpace(card.Find(priceSelector).First().Text())
		price, parseErr := quote.ParsePrice(priceText)
		if parseErr != nil {
			p.logger.Debug().Str("title", title).Str("price_text", priceText).Msg("unparseable price, skipping listing")
			return true
		}

		q, qErr := quote.New(price, captureTime())
		if qErr != nil {
			p.logger.Debug().Str("title", title).Err(qErr).Msg("invalid price, skipping listing")
			return true
		}
		q.ListingURL = link.AttrOr("href", "")

		found = q
		hasHit = true
		p.logger.Debug().Str("title", title).Str("price", price.String()).Msg("first matching listing accepted")
		return false
	})

	if !hasHit {
		return quote.Quote{}, ErrNoMatch
	}
	return found, nil
}

func cleanTitle(full string) string {
	if before, _, ok := strings.Cut(full, brandSuffixSep); ok {
		return strings.TrimSpace(before)
	}
	return strings.TrimSpace(full)
}
