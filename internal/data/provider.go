package data

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mohamedkhairy/intraday-volatility/internal/models"
)

var (
	// ErrUnknownProvider is returned when no factory is registered for a provider type
	ErrUnknownProvider = errors.New("unknown provider type")
	// ErrInvalidRange is returned when a request has an empty or inverted date range
	ErrInvalidRange = errors.New("invalid date range")
	// ErrNoData is returned when the provider has no bars for the request
	ErrNoData = errors.New("no data returned")
	// ErrUpstream wraps failures of the remote data source
	ErrUpstream = errors.New("upstream data provider error")
)

// DefaultInterval is the bar periodicity used when a request does not set one
const DefaultInterval = 5 * time.Minute

// Request describes one bar series to fetch. From is inclusive, To exclusive.
type Request struct {
	Symbol   string
	From     time.Time
	To       time.Time
	Interval time.Duration
	Location *time.Location
}

// Validate checks the request and fills defaults
func (r *Request) Validate() error {
	r.Symbol = strings.ToUpper(strings.TrimSpace(r.Symbol))
	if r.Symbol == "" {
		return models.ErrInvalidSymbol
	}
	if r.From.IsZero() || r.To.IsZero() || !r.To.After(r.From) {
		return fmt.Errorf("%w: from %s to %s", ErrInvalidRange,
			r.From.Format(models.DateLayout), r.To.Format(models.DateLayout))
	}
	if r.Interval == 0 {
		r.Interval = DefaultInterval
	}
	if r.Interval < 0 {
		return fmt.Errorf("%w: %s", models.ErrInvalidInterval, r.Interval)
	}
	if r.Location == nil {
		r.Location = time.UTC
	}
	return nil
}

// Provider loads historical bars for one symbol
type Provider interface {
	// FetchBars returns the bars of the request, normalized by Normalize
	FetchBars(ctx context.Context, req Request) (*models.RawSeries, error)

	// Name returns the name/type of the provider (e.g., "yahoo", "polygon")
	Name() string
}

// ProviderFactory creates provider instances
type ProviderFactory interface {
	// CreateProvider creates a new provider instance based on the provider type
	CreateProvider(providerType string, config ProviderConfig) (Provider, error)

	// RegisterProvider registers a custom provider factory function
	RegisterProvider(providerType string, factoryFunc func(ProviderConfig) (Provider, error)) error

	// ListProviders returns a sorted list of available provider types
	ListProviders() []string
}

// ProviderConfig holds configuration for a provider
type ProviderConfig struct {
	APIKey  string
	BaseURL string
	CSVPath string
	Timeout time.Duration

	// Seed makes the mock provider reproducible; zero derives it from the symbol
	Seed int64
}

// DefaultProviderFactory is the default implementation of ProviderFactory
type DefaultProviderFactory struct {
	factories map[string]func(ProviderConfig) (Provider, error)
}

// NewProviderFactory creates a provider factory with the built-in providers registered
func NewProviderFactory() *DefaultProviderFactory {
	factory := &DefaultProviderFactory{
		factories: make(map[string]func(ProviderConfig) (Provider, error)),
	}

	_ = factory.RegisterProvider("mock", NewMockProvider)
	_ = factory.RegisterProvider("yahoo", NewYahooProvider)
	_ = factory.RegisterProvider("polygon", NewPolygonProvider)
	_ = factory.RegisterProvider("csv", NewCSVProvider)

	return factory
}

// CreateProvider creates a new provider instance
func (f *DefaultProviderFactory) CreateProvider(providerType string, config ProviderConfig) (Provider, error) {
	factoryFunc, exists := f.factories[providerType]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, providerType)
	}

	return factoryFunc(config)
}

// RegisterProvider registers a custom provider factory function
func (f *DefaultProviderFactory) RegisterProvider(providerType string, factoryFunc func(ProviderConfig) (Provider, error)) error {
	if factoryFunc == nil {
		return errors.New("provider factory cannot be nil")
	}
	if _, exists := f.factories[providerType]; exists {
		return errors.New("provider type already registered: " + providerType)
	}
	f.factories[providerType] = factoryFunc
	return nil
}

// ListProviders returns a list of available provider types
func (f *DefaultProviderFactory) ListProviders() []string {
	providers := make([]string, 0, len(f.factories))
	for providerType := range f.factories {
		providers = append(providers, providerType)
	}
	sort.Strings(providers)
	return providers
}
