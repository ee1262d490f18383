package data

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/mohamedkhairy/intraday-volatility/internal/models"
)

// MockProvider generates a reproducible random-walk series over regular
// trading hours (09:30 to 16:00 in the request location, weekdays only)
type MockProvider struct {
	seed int64
}

// NewMockProvider creates a new mock provider
func NewMockProvider(config ProviderConfig) (Provider, error) {
	return &MockProvider{seed: config.Seed}, nil
}

// Name returns the provider name
func (m *MockProvider) Name() string { return "mock" }

// FetchBars generates bars for every session in the request range
func (m *MockProvider) FetchBars(ctx context.Context, req Request) (*models.RawSeries, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(m.seedFor(req.Symbol)))
	price := 50 + float64(rng.Intn(150))
	bars := make([]models.RawBar, 0)

	from := req.From.In(req.Location)
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, req.Location)
	for ; day.Before(req.To); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		sessionOpen := time.Date(day.Year(), day.Month(), day.Day(), 9, 30, 0, 0, req.Location)
		sessionClose := time.Date(day.Year(), day.Month(), day.Day(), 16, 0, 0, 0, req.Location)
		for ts := sessionOpen; ts.Before(sessionClose); ts = ts.Add(req.Interval) {
			next := price * math.Exp(rng.NormFloat64()*0.0015)
			spread := math.Abs(rng.NormFloat64()) * 0.0005
			bar := models.Bar{
				Timestamp: ts,
				Open:      price,
				High:      math.Max(price, next) * (1 + spread),
				Low:       math.Min(price, next) * (1 - spread),
				Close:     next,
				Volume:    float64(500 + rng.Intn(5000)),
			}
			bars = append(bars, models.RawFromBar(bar))
			price = next
		}
	}

	return Normalize(req, bars), nil
}

func (m *MockProvider) seedFor(symbol string) int64 {
	if m.seed != 0 {
		return m.seed
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(symbol))
	return int64(h.Sum64() & math.MaxInt64)
}
