package match

import (
	"testing"

	"github.com/rs/zerolog"
)

func newMatcher(cfg Config) *Matcher {
	return New(cfg, zerolog.Nop())
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Maui - Héros tragique", "maui heros tragique"},
		{"Carte Lorcana: La Bête!!", "bete"},
		{"  Stitch,   le   rockeur  ", "stitch rockeur"},
		{"ÉLÉNA", "elena"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, 期望 %q", tc.in, got, tc.want)
		}
	}
}

func TestMatchesExactContainment(t *testing.T) {
	m := newMatcher(DefaultConfig())

	// Containment must hold regardless of added punctuation or extra words.
	cases := []struct {
		name  string
		title string
	}{
		{"Maui - Héros tragique", "Maui - Héros tragique, marque Disney"},
		{"Maui - Héros tragique", "Carte Lorcana MAUI héros tragique neuve!!!"},
		{"Stitch", "stitch"},
	}
	for _, tc := range cases {
		if !m.Matches(tc.name, tc.title) {
			t.Fatalf("Matches(%q, %q) 应为 true", tc.name, tc.title)
		}
	}
}

func TestMatchesKeywordOverlap(t *testing.T) {
	m := newMatcher(DefaultConfig())

	// Word order differs so containment fails; 100% of the canonical words
	// are present so the keyword tier must catch it.
	if !m.Matches("Maui Demi-Dieu", "demi dieu maui edition limitee") {
		t.Fatal("keyword overlap 应匹配乱序标题")
	}
}

func TestMatchesRejectsUnrelated(t *testing.T) {
	m := newMatcher(DefaultConfig())
	if m.Matches("Maui - Héros tragique", "Classeur range-cartes Pokemon") {
		t.Fatal("无关标题不应匹配")
	}
	if m.Matches("Maui - Héros tragique", "") {
		t.Fatal("空标题不应匹配")
	}
}

func TestThresholdMonotonicity(t *testing.T) {
	name := "Maui - Héros tragique"
	title := "Mauii heross tragiquee holo"

	// Raising the fuzzy threshold can only turn a true result false, never
	// the reverse.
	prev := true
	for threshold := 1; threshold <= 100; threshold++ {
		m := newMatcher(Config{FuzzyThreshold: threshold, KeywordOverlap: 0.99})
		got := m.Matches(name, title)
		if got && !prev {
			t.Fatalf("threshold %d 使结果由 false 变 true", threshold)
		}
		prev = got
	}
}

func TestConfigFallbacks(t *testing.T) {
	m := newMatcher(Config{FuzzyThreshold: -5, KeywordOverlap: 7})
	if m.cfg.FuzzyThreshold != 80 || m.cfg.KeywordOverlap != 0.8 {
		t.Fatalf("越界配置应回退默认值: %+v", m.cfg)
	}
}
