package data

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	pmodels "github.com/polygon-io/client-go/rest/models"

	"github.com/mohamedkhairy/intraday-volatility/internal/models"
	"github.com/mohamedkhairy/intraday-volatility/pkg/logger"
)

// polygonPageLimit is the maximum page size of the aggregates endpoint
const polygonPageLimit = 50000

// PolygonProvider fetches aggregate bars from the Polygon.io REST API
type PolygonProvider struct {
	client *polygon.Client
}

// NewPolygonProvider creates a Polygon provider; an API key is required
func NewPolygonProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("polygon provider requires an API key")
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PolygonProvider{
		client: polygon.NewWithClient(config.APIKey, &http.Client{Timeout: timeout}),
	}, nil
}

// Name returns the provider name
func (p *PolygonProvider) Name() string { return "polygon" }

// polygonTimespan splits a bar interval into the multiplier and timespan of
// the aggregates endpoint, using the coarsest unit that divides it
func polygonTimespan(interval time.Duration) (int, pmodels.Timespan, error) {
	switch {
	case interval <= 0:
		return 0, "", fmt.Errorf("%w: %s", models.ErrInvalidInterval, interval)
	case interval%(24*time.Hour) == 0:
		return int(interval / (24 * time.Hour)), pmodels.Day, nil
	case interval%time.Hour == 0:
		return int(interval / time.Hour), pmodels.Hour, nil
	case interval%time.Minute == 0:
		return int(interval / time.Minute), pmodels.Minute, nil
	default:
		return 0, "", fmt.Errorf("%w: polygon does not serve %s bars", models.ErrInvalidInterval, interval)
	}
}

// FetchBars pages through ListAggs for the request range, ascending and split-adjusted
func (p *PolygonProvider) FetchBars(ctx context.Context, req Request) (*models.RawSeries, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	multiplier, timespan, err := polygonTimespan(req.Interval)
	if err != nil {
		return nil, err
	}

	params := &pmodels.ListAggsParams{
		Ticker:     req.Symbol,
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       pmodels.Millis(req.From),
		To:         pmodels.Millis(req.To),
	}
	limit := polygonPageLimit
	order := pmodels.Asc
	adjusted := true
	params.Limit = &limit
	params.Order = &order
	params.Adjusted = &adjusted

	iter := p.client.ListAggs(ctx, params)
	bars := make([]models.RawBar, 0)
	for iter.Next() {
		agg := iter.Item()
		bars = append(bars, models.RawBar{
			Timestamp: time.Time(agg.Timestamp),
			Open:      models.Some(agg.Open),
			High:      models.Some(agg.High),
			Low:       models.Some(agg.Low),
			Close:     models.Some(agg.Close),
			Volume:    models.Some(agg.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: polygon aggregates: %v", ErrUpstream, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoData, req.Symbol)
	}

	series := Normalize(req, bars)
	logger.Debug("Fetched bars from polygon",
		logger.String("symbol", req.Symbol),
		logger.Int("multiplier", multiplier),
		logger.String("timespan", string(timespan)),
		logger.Int("bars", len(series.Bars)),
	)
	return series, nil
}
