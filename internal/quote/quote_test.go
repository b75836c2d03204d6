package quote

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"24,50 €", "24.5"},
		{"  3,00€", "3"},
		{"1 250,99 €", ""}, // thousands separator is not supported by the sources
		{"12.5", "12.5"},
		{"0,85", "0.85"},
	}

	for _, tc := range cases {
		got, err := ParsePrice(tc.in)
		if tc.want == "" {
			if err == nil {
				t.Fatalf("ParsePrice(%q) 应失败, 实际 %s", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParsePrice(%q): %v", tc.in, err)
		}
		if got.String() != tc.want {
			t.Fatalf("ParsePrice(%q) = %s, 期望 %s", tc.in, got, tc.want)
		}
	}
}

func TestParsePriceGarbage(t *testing.T) {
	if _, err := ParsePrice("prix sur demande"); err == nil {
		t.Fatal("non-numeric text 应返回错误")
	}
}

func TestNewRejectsNonPositive(t *testing.T) {
	now := time.Now()
	if _, err := New(decimal.Zero, now); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("零价格应返回 ErrInvalidPrice, 实际 %v", err)
	}
	if _, err := New(decimal.NewFromInt(-3), now); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("负价格应返回 ErrInvalidPrice, 实际 %v", err)
	}
	if _, err := New(decimal.RequireFromString("0.01"), now); err != nil {
		t.Fatalf("正价格不应报错: %v", err)
	}
}
