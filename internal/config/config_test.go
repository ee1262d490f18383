package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		ConfigFileEnv, "ENVIRONMENT", "LOG_LEVEL", "DATA_PROVIDER", "SYMBOL", "DATE_FROM", "DATE_TO",
		"BAR_INTERVAL", "TIMEZONE", "POLYGON_API_KEY", "DATA_BASE_URL", "CSV_PATH", "REQUEST_TIMEOUT",
		"MOCK_SEED", "IQR_MULTIPLIER", "VOLATILITY_WINDOW", "MA_WINDOWS", "ZSCORE_THRESHOLD",
		"BARS_PER_DAY", "TRADING_DAYS_PER_YEAR", "OUTPUT_DIR", "EXPORT_FORMATS", "API_PORT",
		"API_READ_TIMEOUT", "API_WRITE_TIMEOUT", "API_SHUTDOWN_TIMEOUT", "API_MAX_BODY_BYTES",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "yahoo", cfg.Data.Provider)
	assert.Equal(t, "AAPL", cfg.Data.Symbol)
	assert.Equal(t, 5*time.Minute, cfg.Data.Interval)
	assert.Equal(t, "America/New_York", cfg.Data.Timezone)
	assert.Equal(t, 1.5, cfg.Analysis.FenceMultiplier)
	assert.Equal(t, 10, cfg.Analysis.VolatilityWindow)
	assert.Equal(t, []int{20, 50}, cfg.Analysis.MAWindows)
	assert.Equal(t, 2.0, cfg.Analysis.ZScoreThreshold)
	assert.Equal(t, 78.0, cfg.Analysis.BarsPerDay)
	assert.Equal(t, 252.0, cfg.Analysis.TradingDays)
	assert.Equal(t, []string{"json", "xlsx"}, cfg.Export.Formats)
	assert.Equal(t, 8090, cfg.API.Port)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SYMBOL", "msft")
	t.Setenv("DATA_PROVIDER", "mock")
	t.Setenv("DATE_FROM", "2024-03-04")
	t.Setenv("DATE_TO", "2024-03-08")
	t.Setenv("BAR_INTERVAL", "15m")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("IQR_MULTIPLIER", "3")
	t.Setenv("MA_WINDOWS", "5, 10,30")
	t.Setenv("ZSCORE_THRESHOLD", "2.5")
	t.Setenv("EXPORT_FORMATS", "JSON")
	t.Setenv("VOLATILITY_WINDOW", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "MSFT", cfg.Data.Symbol)
	assert.Equal(t, "mock", cfg.Data.Provider)
	assert.Equal(t, 15*time.Minute, cfg.Data.Interval)
	assert.Equal(t, 3.0, cfg.Analysis.FenceMultiplier)
	assert.Equal(t, []int{5, 10, 30}, cfg.Analysis.MAWindows)
	assert.Equal(t, 2.5, cfg.Analysis.ZScoreThreshold)
	assert.Equal(t, []string{"json"}, cfg.Export.Formats)
	assert.Equal(t, 10, cfg.Analysis.VolatilityWindow, "unparseable values fall back to the default")

	params := cfg.PipelineParams()
	assert.Equal(t, 3.0, params.FenceMultiplier)
	assert.Equal(t, []int{5, 10, 30}, params.MAWindows)
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "analyzer.yaml")
	content := `
environment: production
data:
  provider: csv
  symbol: SPY
  csv_path: /data/spy.csv
  interval: 1m
  timezone: UTC
analysis:
  volatility_window: 20
  ma_windows: [9, 21]
api:
  port: 9000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv(ConfigFileEnv, path)
	t.Setenv("API_PORT", "9100")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "csv", cfg.Data.Provider)
	assert.Equal(t, "SPY", cfg.Data.Symbol)
	assert.Equal(t, "/data/spy.csv", cfg.Data.CSVPath)
	assert.Equal(t, time.Minute, cfg.Data.Interval)
	assert.Equal(t, 20, cfg.Analysis.VolatilityWindow)
	assert.Equal(t, []int{9, 21}, cfg.Analysis.MAWindows)
	assert.Equal(t, 1.5, cfg.Analysis.FenceMultiplier, "unset file keys keep defaults")
	assert.Equal(t, 9100, cfg.API.Port, "environment wins over the file")
}

func TestLoad_BadYAMLFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data: [unclosed"), 0o600))
	t.Setenv(ConfigFileEnv, path)

	_, err := Load()
	assert.Error(t, err)

	t.Setenv(ConfigFileEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = Load()
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown provider", func(c *Config) { c.Data.Provider = "alpaca" }},
		{"polygon without key", func(c *Config) { c.Data.Provider = "polygon" }},
		{"csv without path", func(c *Config) { c.Data.Provider = "csv" }},
		{"empty symbol", func(c *Config) { c.Data.Symbol = "" }},
		{"zero interval", func(c *Config) { c.Data.Interval = 0 }},
		{"bad timezone", func(c *Config) { c.Data.Timezone = "Mars/Olympus" }},
		{"bad date", func(c *Config) { c.Data.From = "03/04/2024" }},
		{"inverted dates", func(c *Config) { c.Data.From, c.Data.To = "2024-03-08", "2024-03-04" }},
		{"bad fence", func(c *Config) { c.Analysis.FenceMultiplier = 0 }},
		{"bad window", func(c *Config) { c.Analysis.VolatilityWindow = 1 }},
		{"bad threshold", func(c *Config) { c.Analysis.ZScoreThreshold = -1 }},
		{"bad format", func(c *Config) { c.Export.Formats = []string{"pdf"} }},
		{"bad port", func(c *Config) { c.API.Port = 70000 }},
	}

	base := defaults()
	require.NoError(t, base.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDataConfig_Range(t *testing.T) {
	d := DataConfig{Timezone: "UTC", From: "2024-03-04", To: "2024-03-08"}

	from, to, err := d.Range(time.Now())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), to, "end date is inclusive")

	d = DataConfig{Timezone: "UTC"}
	now := time.Date(2024, 3, 8, 15, 0, 0, 0, time.UTC)
	from, to, err = d.Range(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), to)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), from)
}

func TestDataConfig_ProviderConfig(t *testing.T) {
	d := DataConfig{
		APIKey:         "key",
		BaseURL:        "http://localhost:9999",
		CSVPath:        "bars.csv",
		RequestTimeout: 5 * time.Second,
		Seed:           7,
	}

	pc := d.ProviderConfig()

	assert.Equal(t, "key", pc.APIKey)
	assert.Equal(t, "http://localhost:9999", pc.BaseURL)
	assert.Equal(t, "bars.csv", pc.CSVPath)
	assert.Equal(t, 5*time.Second, pc.Timeout)
	assert.Equal(t, int64(7), pc.Seed)
}
