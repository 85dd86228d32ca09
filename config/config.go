package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"marketpulse/pkg/coingecko"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	CoinGecko CoinGeckoConfig `mapstructure:"coingecko"`
	Cycle     CycleConfig     `mapstructure:"cycle"`
	LiveTable LiveTableConfig `mapstructure:"live_table"`
	Report    ReportConfig    `mapstructure:"report"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       LogConfig       `mapstructure:"log"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
}

type CoinGeckoConfig struct {
	REST       RESTConfig `mapstructure:"rest"`
	VsCurrency string     `mapstructure:"vs_currency"` // quote currency, e.g. "usd"
	Order      string     `mapstructure:"order"`       // e.g. "market_cap_desc"
	Universe   int        `mapstructure:"universe"`    // max assets per snapshot
}

type RESTConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type CycleConfig struct {
	Interval  time.Duration `mapstructure:"interval"`   // wait after each cycle completes
	TopK      int           `mapstructure:"top_k"`      // length of the market cap ranking
	MaxCycles int           `mapstructure:"max_cycles"` // 0 runs until terminated
}

type LiveTableConfig struct {
	Backend string `mapstructure:"backend"` // "xlsx" or "postgres"
	Path    string `mapstructure:"path"`    // workbook path (xlsx)
	Sheet   string `mapstructure:"sheet"`   // sheet name (xlsx)
}

type ReportConfig struct {
	Path string `mapstructure:"path"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Options defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

const (
	BackendXLSX     = "xlsx"
	BackendPostgres = "postgres"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("coingecko.rest.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("coingecko.rest.timeout", 15*time.Second)
	v.SetDefault("coingecko.vs_currency", "usd")
	v.SetDefault("coingecko.order", string(coingecko.OrderMarketCapDesc))
	v.SetDefault("coingecko.universe", 50)

	v.SetDefault("cycle.interval", 300*time.Second)
	v.SetDefault("cycle.top_k", 5)
	v.SetDefault("cycle.max_cycles", 0)

	v.SetDefault("live_table.backend", BackendXLSX)
	v.SetDefault("live_table.path", "live_crypto_data.xlsx")
	v.SetDefault("live_table.sheet", "Crypto Data")

	v.SetDefault("report.path", "analysis_report.txt")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9102")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output_file", "")
	v.SetDefault("log.environment", "dev")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.dbname", "marketpulse")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.timezone", "UTC")
	v.SetDefault("postgres.max_open_conns", 4)
	v.SetDefault("postgres.max_idle_conns", 2)
	v.SetDefault("postgres.conn_max_lifetime", time.Hour)
}

// Load loads application configuration using Viper.
// It reads config.yaml from the given directories (or the default location next
// to the binary), overrides with PULSE_* environment variables, and validates the result.
// A missing config file is not an error: defaults apply.
func Load(paths ...string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")

	if len(paths) == 0 {
		paths = defaultPaths()
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// Support environment variables with dot notation (e.g., PULSE_CYCLE_INTERVAL)
	v.SetEnvPrefix("PULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultPaths() []string {
	ex, _ := os.Executable()
	if strings.Contains(ex, "go-build") {
		pwd, _ := os.Getwd()
		return []string{filepath.Join(pwd, "../../config"), filepath.Join(pwd, "config")}
	}
	return []string{filepath.Join(filepath.Dir(ex), "../config"), "config"}
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.CoinGecko.REST.BaseURL == "" {
		return errors.New("coingecko.rest.base_url is required")
	}
	if c.CoinGecko.Universe <= 0 || c.CoinGecko.Universe > coingecko.MaxPerPage {
		return fmt.Errorf("coingecko.universe must be in [1, %d], got %d", coingecko.MaxPerPage, c.CoinGecko.Universe)
	}
	if _, err := coingecko.ParseOrder(c.CoinGecko.Order); err != nil {
		return err
	}
	if c.Cycle.Interval < 0 {
		return fmt.Errorf("cycle.interval must not be negative, got %s", c.Cycle.Interval)
	}
	if c.Cycle.TopK <= 0 {
		return fmt.Errorf("cycle.top_k must be positive, got %d", c.Cycle.TopK)
	}
	if c.Cycle.MaxCycles < 0 {
		return fmt.Errorf("cycle.max_cycles must not be negative, got %d", c.Cycle.MaxCycles)
	}
	switch c.LiveTable.Backend {
	case BackendXLSX:
		if c.LiveTable.Path == "" || c.LiveTable.Sheet == "" {
			return errors.New("live_table.path and live_table.sheet are required for the xlsx backend")
		}
	case BackendPostgres:
	default:
		return fmt.Errorf("unknown live_table.backend %q", c.LiveTable.Backend)
	}
	if c.Report.Path == "" {
		return errors.New("report.path is required")
	}
	return nil
}
