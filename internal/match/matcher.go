package match

import (
	"regexp"
	"strings"
	"unicode"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"github.com/rs/zerolog"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Listing titles vary wildly in punctuation, marketing filler, and word
// order; a single exact or single fuzzy test produces too many false
// negatives, so matching runs three tiers and short-circuits on the first
// that holds: exact containment, partial similarity ratio, keyword overlap.

// Config tunes the fuzzy tiers. The defaults were chosen empirically against
// real listing feeds and are configuration, not fixed semantics.
type Config struct {
	// FuzzyThreshold is the minimum partial similarity ratio (0-100).
	FuzzyThreshold int
	// KeywordOverlap is the fraction of the canonical name's keywords that
	// must appear in the candidate title.
	KeywordOverlap float64
}

// DefaultConfig returns the tuning used in production.
func DefaultConfig() Config {
	return Config{FuzzyThreshold: 80, KeywordOverlap: 0.8}
}

// Stop words dropped during normalisation: French articles and conjunctions
// plus marketplace/category noise that appears in nearly every listing.
var stopWords = map[string]struct{}{
	"le": {}, "la": {}, "les": {},
	"de": {}, "du": {}, "des": {},
	"un": {}, "une": {},
	"et": {}, "ou": {}, "en": {},
	"lorcana": {}, "achat": {}, "carte": {},
}

var (
	punctRe      = regexp.MustCompile(`[^\w\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)

	stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Matcher decides whether a candidate listing title denotes a canonical item.
type Matcher struct {
	cfg    Config
	logger zerolog.Logger
}

// New constructs a Matcher. Out-of-range config values fall back to the
// defaults.
func New(cfg Config, logger zerolog.Logger) *Matcher {
	def := DefaultConfig()
	if cfg.FuzzyThreshold <= 0 || cfg.FuzzyThreshold > 100 {
		cfg.FuzzyThreshold = def.FuzzyThreshold
	}
	if cfg.KeywordOverlap <= 0 || cfg.KeywordOverlap > 1 {
		cfg.KeywordOverlap = def.KeywordOverlap
	}
	return &Matcher{cfg: cfg, logger: logger.With().Str("component", "title_matcher").Logger()}
}

// Matches reports whether title denotes the item named by canonical.
func (m *Matcher) Matches(canonical, title string) bool {
	name := Normalize(canonical)
	cand := Normalize(title)
	if name == "" || cand == "" {
		return false
	}

	if strings.Contains(cand, name) {
		m.logger.Debug().Str("canonical", canonical).Str("title", title).Msg("exact containment")
		return true
	}

	ratio := fuzzy.PartialRatio(name, cand)
	if ratio >= m.cfg.FuzzyThreshold {
		m.logger.Debug().Int("ratio", ratio).Str("canonical", canonical).Str("title", title).Msg("fuzzy match")
		return true
	}

	nameWords := wordSet(name)
	candWords := wordSet(cand)
	common := 0
	for w := range nameWords {
		if _, ok := candWords[w]; ok {
			common++
		}
	}
	if len(nameWords) > 0 && float64(common) >= float64(len(nameWords))*m.cfg.KeywordOverlap {
		m.logger.Debug().Int("common", common).Str("canonical", canonical).Str("title", title).Msg("keyword overlap match")
		return true
	}

	return false
}

// Normalize lowercases, strips diacritics and punctuation, collapses
// whitespace, and removes stop words, keeping only the significant keywords.
func Normalize(text string) string {
	lowered := strings.ToLower(text)

	if stripped, _, err := transform.String(stripDiacritics, lowered); err == nil {
		lowered = stripped
	}

	lowered = punctRe.ReplaceAllString(lowered, "")
	lowered = whitespaceRe.ReplaceAllString(lowered, " ")
	lowered = strings.TrimSpace(lowered)

	kept := make([]string, 0, 8)
	for _, w := range strings.Fields(lowered) {
		if _, skip := stopWords[w]; skip {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}
