package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"cardwatch/internal/logging"
	"cardwatch/internal/storage"
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig          `mapstructure:"app"`
	Logging  logging.Config     `mapstructure:"logging"`
	Ledger   LedgerConfig       `mapstructure:"ledger"`
	Database storage.PoolConfig `mapstructure:"database"`
	Sources  SourcesConfig      `mapstructure:"sources"`
	Matching MatchingConfig     `mapstructure:"matching"`
	Retry    RetryConfig        `mapstructure:"retry"`
	Alerting AlertingConfig     `mapstructure:"alerting"`
	Export   ExportConfig       `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	// AdvisoryLockKey guards against two overlapping invocations when the
	// run-history database is configured. Zero disables the lock.
	AdvisoryLockKey int64 `mapstructure:"advisory_lock_key"`
}

// LedgerConfig locates the spreadsheet-backed ledger.
type LedgerConfig struct {
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	SpreadsheetURL  string `mapstructure:"spreadsheet_url"`
	SheetName       string `mapstructure:"sheet_name"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// SourcesConfig selects which marketplaces to check this run.
type SourcesConfig struct {
	Cardmarket CardmarketSourceConfig `mapstructure:"cardmarket"`
	Vinted     VintedSourceConfig     `mapstructure:"vinted"`
}

// CardmarketSourceConfig covers the structured source.
type CardmarketSourceConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// VintedSourceConfig covers the unstructured source.
type VintedSourceConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
	SearchPrefix   string        `mapstructure:"search_prefix"`
	MinPriceEUR    int           `mapstructure:"min_price_eur"`
	CatalogID      int           `mapstructure:"catalog_id"`
}

// MatchingConfig tunes the title matcher tiers.
type MatchingConfig struct {
	FuzzyThreshold int     `mapstructure:"fuzzy_threshold"`
	KeywordOverlap float64 `mapstructure:"keyword_overlap"`
}

// RetryConfig bounds per-(item,source) fetch attempts.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Delay       time.Duration `mapstructure:"delay"`
}

// AlertingConfig defines alert thresholds and routing.
type AlertingConfig struct {
	Enabled      bool           `mapstructure:"enabled"`
	ThresholdPct float64        `mapstructure:"threshold_pct"`
	Email        EmailConfig    `mapstructure:"email"`
	Telegram     TelegramConfig `mapstructure:"telegram"`
}

// EmailConfig 描述 SMTP 告警参数。
type EmailConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
	UseSSL   bool     `mapstructure:"use_ssl"`
}

// TelegramConfig 描述 Telegram 告警参数。
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CARDWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "cardwatch")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.advisory_lock_key", int64(0x63617264))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("ledger.sheet_name", "data")
	v.SetDefault("ledger.credentials_file", "service-account.json")

	v.SetDefault("sources.cardmarket.enabled", true)
	v.SetDefault("sources.cardmarket.base_url", "https://www.cardmarket.com")
	v.SetDefault("sources.cardmarket.request_timeout", "15s")
	v.SetDefault("sources.cardmarket.user_agent", "cardwatch/1.0")
	v.SetDefault("sources.vinted.enabled", true)
	v.SetDefault("sources.vinted.base_url", "https://www.vinted.fr")
	v.SetDefault("sources.vinted.request_timeout", "15s")
	v.SetDefault("sources.vinted.user_agent", "cardwatch/1.0")
	v.SetDefault("sources.vinted.search_prefix", "Lorcana")
	v.SetDefault("sources.vinted.min_price_eur", 2)
	v.SetDefault("sources.vinted.catalog_id", 3224)

	v.SetDefault("matching.fuzzy_threshold", 80)
	v.SetDefault("matching.keyword_overlap", 0.8)

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.delay", "5s")

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.threshold_pct", 10.0)
	v.SetDefault("alerting.email.enabled", false)
	v.SetDefault("alerting.email.port", 465)
	v.SetDefault("alerting.email.use_ssl", true)
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_data_points", 100000)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
// Failures here are fatal: they abort the run before any item is processed.
func (c *Config) Validate() error {
	if !c.Sources.Cardmarket.Enabled && !c.Sources.Vinted.Enabled {
		return fmt.Errorf("sources: at least one marketplace must be enabled")
	}
	if c.Ledger.SpreadsheetID == "" && c.Ledger.SpreadsheetURL == "" {
		return fmt.Errorf("ledger.spreadsheet_id or ledger.spreadsheet_url must be configured")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1")
	}
	if c.Retry.Delay < 0 {
		return fmt.Errorf("retry.delay cannot be negative")
	}
	if c.Alerting.ThresholdPct <= 0 {
		return fmt.Errorf("alerting.threshold_pct must be greater than zero")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Alerting.Email.Enabled {
		if c.Alerting.Email.Host == "" {
			return fmt.Errorf("alerting.email.host 必须配置")
		}
		if c.Alerting.Email.From == "" || len(c.Alerting.Email.To) == 0 {
			return fmt.Errorf("alerting.email.from 与 alerting.email.to 必须配置")
		}
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token 必须配置")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id 必须配置")
		}
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
