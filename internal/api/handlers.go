package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/mohamedkhairy/intraday-volatility/internal/analysis"
	"github.com/mohamedkhairy/intraday-volatility/internal/data"
	"github.com/mohamedkhairy/intraday-volatility/internal/models"
	"github.com/mohamedkhairy/intraday-volatility/pkg/logger"
)

// DefaultLookbackDays is the range used by GET requests without a from date
const DefaultLookbackDays = 7

// AnalysisRequest is the body of POST /api/v1/analysis
type AnalysisRequest struct {
	Symbol   string          `json:"symbol"`
	Timezone string          `json:"timezone,omitempty"`
	Interval string          `json:"interval,omitempty"`
	Bars     []models.RawBar `json:"bars"`
}

// HandlerConfig holds request defaults for AnalysisHandler
type HandlerConfig struct {
	Location     *time.Location
	Interval     time.Duration
	MaxBodyBytes int64
}

// AnalysisHandler handles analysis endpoints
type AnalysisHandler struct {
	pipeline *analysis.Pipeline
	provider data.Provider
	config   HandlerConfig
	now      func() time.Time
}

// NewAnalysisHandler creates a new analysis handler. provider may be nil, in
// which case only posted series can be analyzed.
func NewAnalysisHandler(pipeline *analysis.Pipeline, provider data.Provider, config HandlerConfig) *AnalysisHandler {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.Interval <= 0 {
		config.Interval = data.DefaultInterval
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = 10 << 20
	}
	return &AnalysisHandler{
		pipeline: pipeline,
		provider: provider,
		config:   config,
		now:      time.Now,
	}
}

// AnalyzeSeries handles POST /api/v1/analysis.
//
// The body is either an AnalysisRequest in JSON or, with Content-Type
// text/csv, a bar file whose symbol, timezone and interval come from the
// query string.
func (h *AnalysisHandler) AnalyzeSeries(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxBodyBytes)

	var (
		req AnalysisRequest
		loc *time.Location
		err error
	)
	if isCSV(r.Header.Get("Content-Type")) {
		q := r.URL.Query()
		req.Symbol = q.Get("symbol")
		req.Timezone = q.Get("timezone")
		req.Interval = q.Get("interval")
		if loc, err = h.location(req.Timezone); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Bars, err = data.ParseCSV(r.Body, loc); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if loc, err = h.location(req.Timezone); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		respondWithError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	interval, err := h.interval(req.Interval)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	raw := &models.RawSeries{
		Symbol:   symbol,
		Location: loc,
		Interval: interval,
		Bars:     req.Bars,
	}
	h.analyze(r.Context(), w, raw)
}

// AnalyzeSymbol handles GET /api/v1/analysis/{symbol}?from=&to=&interval=&timezone=
//
// from and to are calendar dates in the requested timezone; to is inclusive.
func (h *AnalysisHandler) AnalyzeSymbol(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		respondWithError(w, http.StatusServiceUnavailable, "No data provider configured")
		return
	}

	q := r.URL.Query()
	loc, err := h.location(q.Get("timezone"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	interval, err := h.interval(q.Get("interval"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	from, to, err := h.dateRange(q.Get("from"), q.Get("to"), loc)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := data.Request{
		Symbol:   mux.Vars(r)["symbol"],
		From:     from,
		To:       to,
		Interval: interval,
		Location: loc,
	}
	if err := req.Validate(); err != nil {
		respondWithError(w, statusFor(err), err.Error())
		return
	}

	raw, err := h.provider.FetchBars(r.Context(), req)
	if err != nil {
		logger.WithContext(r.Context()).Warn("Failed to fetch bars",
			logger.String("provider", h.provider.Name()),
			logger.String("symbol", req.Symbol),
			logger.ErrorField(err),
		)
		respondWithError(w, statusFor(err), err.Error())
		return
	}
	h.analyze(r.Context(), w, raw)
}

func (h *AnalysisHandler) analyze(ctx context.Context, w http.ResponseWriter, raw *models.RawSeries) {
	report, err := h.pipeline.Run(ctx, raw)
	if err != nil {
		respondWithError(w, statusFor(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

// GetParams handles GET /api/v1/params
func (h *AnalysisHandler) GetParams(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.pipeline.Params())
}

// ListProviders handles GET /api/v1/providers
func (h *AnalysisHandler) ListProviders(factory data.ProviderFactory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		active := ""
		if h.provider != nil {
			active = h.provider.Name()
		}
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"providers": factory.ListProviders(),
			"active":    active,
		})
	}
}

func (h *AnalysisHandler) location(name string) (*time.Location, error) {
	if name == "" {
		return h.config.Location, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q", name)
	}
	return loc, nil
}

func (h *AnalysisHandler) interval(s string) (time.Duration, error) {
	if s == "" {
		return h.config.Interval, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: %q", models.ErrInvalidInterval, s)
	}
	return d, nil
}

func (h *AnalysisHandler) dateRange(fromStr, toStr string, loc *time.Location) (time.Time, time.Time, error) {
	var to time.Time
	if toStr == "" {
		n := h.now().In(loc)
		to = time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
	} else {
		t, err := time.ParseInLocation(models.DateLayout, toStr, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: bad to date %q", data.ErrInvalidRange, toStr)
		}
		to = t
	}
	to = to.AddDate(0, 0, 1)

	from := to.AddDate(0, 0, -DefaultLookbackDays)
	if fromStr != "" {
		t, err := time.ParseInLocation(models.DateLayout, fromStr, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: bad from date %q", data.ErrInvalidRange, fromStr)
		}
		from = t
	}
	return from, to, nil
}

// statusFor maps pipeline and provider errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, data.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, data.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case errors.Is(err, data.ErrInvalidRange),
		errors.Is(err, data.ErrMalformedCSV),
		errors.Is(err, models.ErrInvalidSymbol),
		errors.Is(err, models.ErrInvalidPrice),
		errors.Is(err, models.ErrInvalidTimestamp),
		errors.Is(err, models.ErrInvalidBar),
		errors.Is(err, models.ErrPriceOutOfRange),
		errors.Is(err, models.ErrInvalidVolume),
		errors.Is(err, models.ErrNonMonotonic),
		errors.Is(err, models.ErrInvalidInterval):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func isCSV(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	return ct == "text/csv" || ct == "application/csv"
}
