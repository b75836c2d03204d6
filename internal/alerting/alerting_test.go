package alerting

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cardwatch/internal/arbitrage"
)

func testAlert() arbitrage.Alert {
	return arbitrage.Alert{
		ItemName:       "Maui - Héros tragique",
		BasePrice:      decimal.RequireFromString("50"),
		CandidatePrice: decimal.RequireFromString("44"),
		Difference:     decimal.RequireFromString("6"),
		DifferencePct:  decimal.RequireFromString("12"),
		ListingURL:     "/items/123-maui",
	}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestTelegramNotifierSuccess(t *testing.T) {
	received := make(map[string]string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "sendMessage") {
			t.Fatalf("路径应包含 sendMessage, 实际 %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("解析请求体失败: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())
	if err := notifier.Notify(context.Background(), testAlert()); err != nil {
		t.Fatalf("Telegram Notify 应成功: %v", err)
	}

	if received["chat_id"] != "chat" {
		t.Fatalf("chat_id 不正确: %#v", received)
	}
	if !strings.Contains(received["text"], "Maui") {
		t.Fatalf("text 应包含卡名: %q", received["text"])
	}
	if !strings.Contains(received["text"], "12.0%") {
		t.Fatalf("text 应包含差价百分比: %q", received["text"])
	}
}

func TestTelegramNotifierError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())
	if err := notifier.Notify(context.Background(), testAlert()); err == nil {
		t.Fatal("ok=false 应报错")
	}
}

func TestRenderEmailBody(t *testing.T) {
	body := renderEmailBody(testAlert())

	for _, fragment := range []string{
		"Maui - Héros tragique",
		"50.00€",
		"44.00€",
		"6.00€",
		"12.0%",
		`href="/items/123-maui"`,
	} {
		if !strings.Contains(body, fragment) {
			t.Fatalf("邮件正文缺少 %q:\n%s", fragment, body)
		}
	}
}

type stubNotifier struct {
	calls int
	err   error
}

func (s *stubNotifier) Notify(ctx context.Context, alert arbitrage.Alert) error {
	s.calls++
	return s.err
}

func TestMultiNotifierContinuesOnFailure(t *testing.T) {
	failing := &stubNotifier{err: errors.New("smtp down")}
	healthy := &stubNotifier{}

	multi := NewMulti(testLogger(), failing, healthy)
	err := multi.Notify(context.Background(), testAlert())

	if err == nil {
		t.Fatal("应返回首个通道错误")
	}
	if failing.calls != 1 || healthy.calls != 1 {
		t.Fatalf("两个通道都应被调用: %d/%d", failing.calls, healthy.calls)
	}
}
