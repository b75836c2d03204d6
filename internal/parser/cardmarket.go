package parser

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cardwatch/internal/quote"
)

// Labels of the dt/dd info list on a Cardmarket product page.
const (
	labelCurrentPrice = "De"
	labelTrendPrice   = "Tendance des prix"
	labelAvg30Days    = "Prix moyen 30 jours"
	labelAvailable    = "Articles disponibles"
)

// Cardmarket extracts the labelled price block from a product page.
type Cardmarket struct {
	logger zerolog.Logger
}

// NewCardmarket constructs the structured-source parser.
func NewCardmarket(logger zerolog.Logger) *Cardmarket {
	return &Cardmarket{logger: logger.With().Str("component", "cardmarket_parser").Logger()}
}

// Parse extracts a quote from a product page. Extraction is by label lookup,
// never by position: a missing trend/average/availability label yields a zero
// value, while a missing or unparseable current price yields ErrNoMatch.
func (p *Cardmarket) Parse(html string) (quote.Quote, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		p.logger.Debug().Err(err).Msg("unreadable page content")
		return quote.Quote{}, ErrNoMatch
	}

	container := doc.Find("div.info-list-container").First()
	if container.Length() == 0 {
		return quote.Quote{}, ErrNoMatch
	}

	current, err := quote.ParsePrice(labelValue(container, labelCurrentPrice))
	if err != nil {
		p.logger.Debug().Err(err).Msg("current price missing or malformed")
		return quote.Quote{}, ErrNoMatch
	}

	q, err := quote.New(current, captureTime())
	if err != nil {
		return quote.Quote{}, err
	}

	q.Trend = optionalPrice(container, labelTrendPrice)
	q.Average = optionalPrice(container, labelAvg30Days)
	if raw := labelValue(container, labelAvailable); raw != "" {
		if n, convErr := strconv.Atoi(raw); convErr == nil {
			q.Available = n
		}
	}

	return q, nil
}

// labelValue returns the trimmed text of the dd paired with the dt carrying
// the given label, or "" when the label is absent.
func labelValue(container *goquery.Selection, label string) string {
	value := ""
	container.Find("dt").EachWithBreak(func(_ int, dt *goquery.Selection) bool {
		if strings.TrimSpace(dt.Text()) != label {
			return true
		}
		value = strings.TrimSpace(dt.NextAllFiltered("dd").First().Text())
		return false
	})
	return value
}

func optionalPrice(container *goquery.Selection, label string) decimal.Decimal {
	raw := labelValue(container, label)
	if raw == "" {
		return decimal.Decimal{}
	}
	value, err := quote.ParsePrice(raw)
	if err != nil {
		return decimal.Decimal{}
	}
	return value
}
