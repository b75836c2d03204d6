package parser

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

const cardmarketPage = `<html><body>
<div class="info-list-container">
  <dl>
    <dt>Infos</dt><dd>quelque chose</dd>
    <dt>De</dt><dd>24,50 €</dd>
    <dt>Tendance des prix</dt><dd>26,10 €</dd>
    <dt>Prix moyen 30 jours</dt><dd>25,00 €</dd>
    <dt>Articles disponibles</dt><dd>142</dd>
  </dl>
</div>
</body></html>`

func TestCardmarketParse(t *testing.T) {
	p := NewCardmarket(zerolog.Nop())

	q, err := p.Parse(cardmarketPage)
	if err != nil {
		t.Fatalf("解析应成功: %v", err)
	}
	if q.Price.String() != "24.5" {
		t.Fatalf("current price = %s, 期望 24.5", q.Price)
	}
	if q.Trend.String() != "26.1" {
		t.Fatalf("trend = %s, 期望 26.1", q.Trend)
	}
	if q.Average.String() != "25" {
		t.Fatalf("average = %s, 期望 25", q.Average)
	}
	if q.Available != 142 {
		t.Fatalf("available = %d, 期望 142", q.Available)
	}
	if q.CapturedAt.IsZero() {
		t.Fatal("capture timestamp 不应为零值")
	}
}

func TestCardmarketParseMissingOptionalLabels(t *testing.T) {
	page := `<div class="info-list-container"><dl><dt>De</dt><dd>3,00 €</dd></dl></div>`

	p := NewCardmarket(zerolog.Nop())
	q, err := p.Parse(page)
	if err != nil {
		t.Fatalf("缺少可选标签不应失败: %v", err)
	}
	if !q.Trend.IsZero() || !q.Average.IsZero() || q.Available != 0 {
		t.Fatalf("可选字段应为零值: %+v", q)
	}
}

func TestCardmarketParseNoMatch(t *testing.T) {
	p := NewCardmarket(zerolog.Nop())

	cases := map[string]string{
		"no container":    `<html><body><p>rien</p></body></html>`,
		"missing current": `<div class="info-list-container"><dl><dt>Tendance des prix</dt><dd>26,10 €</dd></dl></div>`,
		"bad current":     `<div class="info-list-container"><dl><dt>De</dt><dd>sur demande</dd></dl></div>`,
	}
	for name, page := range cases {
		if _, err := p.Parse(page); !errors.Is(err, ErrNoMatch) {
			t.Fatalf("%s: 期望 ErrNoMatch, 实际 %v", name, err)
		}
	}
}
