package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("写入临时配置失败: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
ledger:
  spreadsheet_id: "1AbCdEf"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载默认配置失败: %v", err)
	}

	if cfg.Retry.MaxAttempts != 3 {
		t.Fatalf("retry.max_attempts 默认值 = %d", cfg.Retry.MaxAttempts)
	}
	if !cfg.Sources.Cardmarket.Enabled || !cfg.Sources.Vinted.Enabled {
		t.Fatal("两个 source 默认应启用")
	}
	if cfg.Matching.FuzzyThreshold != 80 {
		t.Fatalf("matching.fuzzy_threshold 默认值 = %d", cfg.Matching.FuzzyThreshold)
	}
	if cfg.Alerting.ThresholdPct != 10.0 {
		t.Fatalf("alerting.threshold_pct 默认值 = %v", cfg.Alerting.ThresholdPct)
	}
}

func TestLoadMissingLedger(t *testing.T) {
	path := writeConfig(t, `
app:
  name: cardwatch
`)

	if _, err := Load(path); err == nil {
		t.Fatal("缺少 spreadsheet 配置应为致命错误")
	}
}

func TestValidateNoSources(t *testing.T) {
	path := writeConfig(t, `
ledger:
  spreadsheet_id: "1AbCdEf"
sources:
  cardmarket:
    enabled: false
  vinted:
    enabled: false
`)

	if _, err := Load(path); err == nil {
		t.Fatal("无启用 source 应为致命错误")
	}
}

func TestValidateBadRetry(t *testing.T) {
	path := writeConfig(t, `
ledger:
  spreadsheet_id: "1AbCdEf"
retry:
  max_attempts: 0
`)

	if _, err := Load(path); err == nil {
		t.Fatal("max_attempts < 1 应为致命错误")
	}
}

func TestValidateEmailRequiresRouting(t *testing.T) {
	path := writeConfig(t, `
ledger:
  spreadsheet_id: "1AbCdEf"
alerting:
  enabled: true
  email:
    enabled: true
`)

	if _, err := Load(path); err == nil {
		t.Fatal("email 通道缺少 host/from/to 应为致命错误")
	}
}

func TestResolveMaxPoints(t *testing.T) {
	cfg := &Config{Export: ExportConfig{MaxDataPoints: 500}}
	if got := cfg.ResolveMaxPoints(0); got != 500 {
		t.Fatalf("默认值应生效: %d", got)
	}
	if got := cfg.ResolveMaxPoints(42); got != 42 {
		t.Fatalf("覆盖值应生效: %d", got)
	}
}
