package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // timezone database for TIMEZONE on hosts without zoneinfo

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mohamedkhairy/intraday-volatility/internal/analysis"
	"github.com/mohamedkhairy/intraday-volatility/internal/data"
	"github.com/mohamedkhairy/intraday-volatility/internal/models"
)

// ConfigFileEnv names the environment variable holding an optional YAML config path
const ConfigFileEnv = "ANALYZER_CONFIG_FILE"

// Config holds all configuration for the application
type Config struct {
	// Common
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`

	Data     DataConfig     `yaml:"data"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Export   ExportConfig   `yaml:"export"`
	API      APIConfig      `yaml:"api"`
}

// DataConfig holds bar source configuration
type DataConfig struct {
	Provider       string        `yaml:"provider"` // "yahoo", "polygon", "csv" or "mock"
	Symbol         string        `yaml:"symbol"`
	From           string        `yaml:"from"` // YYYY-MM-DD, inclusive
	To             string        `yaml:"to"`   // YYYY-MM-DD, inclusive
	Interval       time.Duration `yaml:"interval"`
	Timezone       string        `yaml:"timezone"`
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url"`
	CSVPath        string        `yaml:"csv_path"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	Seed           int64         `yaml:"seed"`
}

// AnalysisConfig holds the tunable analysis parameters
type AnalysisConfig struct {
	FenceMultiplier  float64 `yaml:"fence_multiplier"`
	VolatilityWindow int     `yaml:"volatility_window"`
	MAWindows        []int   `yaml:"ma_windows"`
	ZScoreThreshold  float64 `yaml:"zscore_threshold"`
	BarsPerDay       float64 `yaml:"bars_per_day"`
	TradingDays      float64 `yaml:"trading_days_per_year"`
}

// ExportConfig holds report output configuration
type ExportConfig struct {
	OutputDir string   `yaml:"output_dir"`
	Formats   []string `yaml:"formats"` // "json", "xlsx"
}

// APIConfig holds REST API configuration
type APIConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

// defaults returns the built-in configuration
func defaults() Config {
	params := analysis.DefaultParams()
	return Config{
		Environment: "development",
		LogLevel:    "info",
		Data: DataConfig{
			Provider:       "yahoo",
			Symbol:         "AAPL",
			Interval:       5 * time.Minute,
			Timezone:       "America/New_York",
			RequestTimeout: 30 * time.Second,
		},
		Analysis: AnalysisConfig{
			FenceMultiplier:  params.FenceMultiplier,
			VolatilityWindow: params.VolatilityWindow,
			MAWindows:        params.MAWindows,
			ZScoreThreshold:  params.ZScoreThreshold,
			BarsPerDay:       params.BarsPerDay,
			TradingDays:      params.TradingDays,
		},
		Export: ExportConfig{
			OutputDir: "output",
			Formats:   []string{"json", "xlsx"},
		},
		API: APIConfig{
			Port:            8090,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    10 << 20,
		},
	}
}

// Load loads configuration from environment variables.
// It automatically loads .env file if it exists in the current directory. When
// ANALYZER_CONFIG_FILE names a YAML file its values replace the built-in
// defaults; environment variables still take precedence over the file.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	base, err := loadFile(os.Getenv(ConfigFileEnv))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", base.Environment),
		LogLevel:    getEnv("LOG_LEVEL", base.LogLevel),
		Data: DataConfig{
			Provider:       getEnv("DATA_PROVIDER", base.Data.Provider),
			Symbol:         strings.ToUpper(getEnv("SYMBOL", base.Data.Symbol)),
			From:           getEnv("DATE_FROM", base.Data.From),
			To:             getEnv("DATE_TO", base.Data.To),
			Interval:       getEnvAsDuration("BAR_INTERVAL", base.Data.Interval),
			Timezone:       getEnv("TIMEZONE", base.Data.Timezone),
			APIKey:         getEnv("POLYGON_API_KEY", base.Data.APIKey),
			BaseURL:        getEnv("DATA_BASE_URL", base.Data.BaseURL),
			CSVPath:        getEnv("CSV_PATH", base.Data.CSVPath),
			RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", base.Data.RequestTimeout),
			Seed:           getEnvAsInt64("MOCK_SEED", base.Data.Seed),
		},
		Analysis: AnalysisConfig{
			FenceMultiplier:  getEnvAsFloat("IQR_MULTIPLIER", base.Analysis.FenceMultiplier),
			VolatilityWindow: getEnvAsInt("VOLATILITY_WINDOW", base.Analysis.VolatilityWindow),
			MAWindows:        getEnvAsIntSlice("MA_WINDOWS", base.Analysis.MAWindows),
			ZScoreThreshold:  getEnvAsFloat("ZSCORE_THRESHOLD", base.Analysis.ZScoreThreshold),
			BarsPerDay:       getEnvAsFloat("BARS_PER_DAY", base.Analysis.BarsPerDay),
			TradingDays:      getEnvAsFloat("TRADING_DAYS_PER_YEAR", base.Analysis.TradingDays),
		},
		Export: ExportConfig{
			OutputDir: getEnv("OUTPUT_DIR", base.Export.OutputDir),
			Formats:   getEnvAsStringSlice("EXPORT_FORMATS", base.Export.Formats),
		},
		API: APIConfig{
			Port:            getEnvAsInt("API_PORT", base.API.Port),
			ReadTimeout:     getEnvAsDuration("API_READ_TIMEOUT", base.API.ReadTimeout),
			WriteTimeout:    getEnvAsDuration("API_WRITE_TIMEOUT", base.API.WriteTimeout),
			ShutdownTimeout: getEnvAsDuration("API_SHUTDOWN_TIMEOUT", base.API.ShutdownTimeout),
			MaxBodyBytes:    getEnvAsInt64("API_MAX_BODY_BYTES", base.API.MaxBodyBytes),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile overlays a YAML file on the built-in defaults; an empty path
// returns the defaults unchanged
func loadFile(path string) (Config, error) {
	cfg := defaults()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Data.Provider {
	case "yahoo", "mock":
	case "polygon":
		if c.Data.APIKey == "" {
			return fmt.Errorf("POLYGON_API_KEY is required for the polygon provider")
		}
	case "csv":
		if c.Data.CSVPath == "" {
			return fmt.Errorf("CSV_PATH is required for the csv provider")
		}
	default:
		return fmt.Errorf("DATA_PROVIDER must be one of yahoo, polygon, csv, mock; got %q", c.Data.Provider)
	}
	if c.Data.Symbol == "" {
		return fmt.Errorf("SYMBOL is required: %w", models.ErrInvalidSymbol)
	}
	if c.Data.Interval <= 0 {
		return fmt.Errorf("BAR_INTERVAL must be positive: %w", models.ErrInvalidInterval)
	}
	if _, err := c.Data.Location(); err != nil {
		return err
	}
	if _, _, err := c.Data.Range(time.Now()); err != nil {
		return err
	}
	if err := c.PipelineParams().Validate(); err != nil {
		return err
	}
	for _, format := range c.Export.Formats {
		if format != "json" && format != "xlsx" {
			return fmt.Errorf("EXPORT_FORMATS entries must be json or xlsx, got %q", format)
		}
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("API_PORT must be between 1 and 65535, got %d", c.API.Port)
	}
	return nil
}

// PipelineParams maps the analysis section onto pipeline parameters
func (c *Config) PipelineParams() analysis.Params {
	return analysis.Params{
		FenceMultiplier:  c.Analysis.FenceMultiplier,
		VolatilityWindow: c.Analysis.VolatilityWindow,
		MAWindows:        append([]int(nil), c.Analysis.MAWindows...),
		ZScoreThreshold:  c.Analysis.ZScoreThreshold,
		BarsPerDay:       c.Analysis.BarsPerDay,
		TradingDays:      c.Analysis.TradingDays,
	}
}

// ProviderConfig maps the data section onto provider construction options
func (d DataConfig) ProviderConfig() data.ProviderConfig {
	return data.ProviderConfig{
		APIKey:  d.APIKey,
		BaseURL: d.BaseURL,
		CSVPath: d.CSVPath,
		Timeout: d.RequestTimeout,
		Seed:    d.Seed,
	}
}

// Location resolves the configured timezone
func (d DataConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", d.Timezone, err)
	}
	return loc, nil
}

// Range returns the configured dates as a [from, to) interval in the
// configured timezone. A missing end date means the day of now; a missing
// start date means seven days before the end.
func (d DataConfig) Range(now time.Time) (time.Time, time.Time, error) {
	loc, err := d.Location()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	var to time.Time
	if d.To == "" {
		n := now.In(loc)
		to = time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
	} else {
		to, err = time.ParseInLocation(models.DateLayout, d.To, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("DATE_TO: %w", err)
		}
	}
	to = to.AddDate(0, 0, 1)

	var from time.Time
	if d.From == "" {
		from = to.AddDate(0, 0, -7)
	} else {
		from, err = time.ParseInLocation(models.DateLayout, d.From, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("DATE_FROM: %w", err)
		}
	}

	if !to.After(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("DATE_FROM %s must not be after DATE_TO %s", d.From, d.To)
	}
	return from, to, nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Split by comma and trim spaces
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.ToLower(strings.TrimSpace(part))
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}

func getEnvAsIntSlice(key string, defaultValue []int) []int {
	parts := getEnvAsStringSlice(key, nil)
	if parts == nil {
		return defaultValue
	}
	result := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return defaultValue
		}
		result = append(result, n)
	}
	return result
}
