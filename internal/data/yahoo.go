package data

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mohamedkhairy/intraday-volatility/internal/models"
	"github.com/mohamedkhairy/intraday-volatility/pkg/logger"
)

// DefaultYahooURL is the public Yahoo Finance chart API host
const DefaultYahooURL = "https://query1.finance.yahoo.com"

// YahooProvider fetches intraday bars from the Yahoo Finance chart API
type YahooProvider struct {
	client  *http.Client
	baseURL string
}

// NewYahooProvider creates a Yahoo provider
func NewYahooProvider(config ProviderConfig) (Provider, error) {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultYahooURL
	}
	return &YahooProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}, nil
}

// Name returns the provider name
func (y *YahooProvider) Name() string { return "yahoo" }

// yahooChart is the response structure of /v8/finance/chart. Quote arrays
// contain null where the exchange reported no value.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// yahooIntervals maps supported bar periodicities to the chart API interval parameter
var yahooIntervals = map[time.Duration]string{
	time.Minute:      "1m",
	2 * time.Minute:  "2m",
	5 * time.Minute:  "5m",
	15 * time.Minute: "15m",
	30 * time.Minute: "30m",
	time.Hour:        "60m",
	90 * time.Minute: "90m",
	24 * time.Hour:   "1d",
}

// FetchBars fetches the request's bars in a single chart call
func (y *YahooProvider) FetchBars(ctx context.Context, req Request) (*models.RawSeries, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	interval, ok := yahooIntervals[req.Interval]
	if !ok {
		return nil, fmt.Errorf("%w: yahoo does not serve %s bars", models.ErrInvalidInterval, req.Interval)
	}

	q := url.Values{}
	q.Set("interval", interval)
	q.Set("period1", strconv.FormatInt(req.From.Unix(), 10))
	q.Set("period2", strconv.FormatInt(req.To.Unix(), 10))
	q.Set("includePrePost", "false")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.baseURL, url.PathEscape(req.Symbol), q.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := y.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: yahoo fetch: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: yahoo read body: %v", ErrUpstream, err)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: yahoo status %d", ErrUpstream, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: yahoo decode: %v", ErrUpstream, err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("%w: yahoo api error %s: %s", ErrUpstream, chart.Chart.Error.Code, chart.Chart.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: yahoo status %d", ErrUpstream, resp.StatusCode)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoData, req.Symbol)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]models.RawBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		bars = append(bars, models.RawBar{
			Timestamp: time.Unix(ts, 0),
			Open:      nullable(quote.Open, i),
			High:      nullable(quote.High, i),
			Low:       nullable(quote.Low, i),
			Close:     nullable(quote.Close, i),
			Volume:    nullable(quote.Volume, i),
		})
	}

	series := Normalize(req, bars)
	logger.Debug("Fetched bars from yahoo",
		logger.String("symbol", req.Symbol),
		logger.String("interval", interval),
		logger.String("exchange_tz", result.Meta.ExchangeTimezoneName),
		logger.Int("bars", len(series.Bars)),
	)
	return series, nil
}

// nullable reads position i of a quote array; null or missing entries are undefined
func nullable(values []*float64, i int) models.Value {
	if i >= len(values) || values[i] == nil {
		return models.None()
	}
	return models.Some(*values[i])
}
