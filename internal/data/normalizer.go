package data

import (
	"sort"
	"time"

	"github.com/mohamedkhairy/intraday-volatility/internal/models"
)

// Normalize turns provider output into the series handed to the analysis
// pipeline: bars outside [req.From, req.To) are removed, the rest are sorted
// ascending, duplicate timestamps collapse to the last bar delivered and every
// timestamp is expressed in req.Location.
func Normalize(req Request, bars []models.RawBar) *models.RawSeries {
	loc := req.Location
	if loc == nil {
		loc = time.UTC
	}

	kept := make([]models.RawBar, 0, len(bars))
	for _, b := range bars {
		if b.Timestamp.IsZero() {
			continue
		}
		if !req.From.IsZero() && b.Timestamp.Before(req.From) {
			continue
		}
		if !req.To.IsZero() && !b.Timestamp.Before(req.To) {
			continue
		}
		b.Timestamp = b.Timestamp.In(loc)
		kept = append(kept, b)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Timestamp.Before(kept[j].Timestamp)
	})

	deduped := kept[:0]
	for _, b := range kept {
		if n := len(deduped); n > 0 && deduped[n-1].Timestamp.Equal(b.Timestamp) {
			deduped[n-1] = b
			continue
		}
		deduped = append(deduped, b)
	}

	return &models.RawSeries{
		Symbol:   req.Symbol,
		Location: loc,
		Interval: req.Interval,
		Bars:     deduped,
	}
}
