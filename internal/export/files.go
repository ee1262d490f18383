package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mohamedkhairy/intraday-volatility/internal/analysis"
	"github.com/mohamedkhairy/intraday-volatility/internal/models"
)

// Supported output formats
const (
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// FileBase names the output files of one run: SYMBOL_FROM_TO with the
// inclusive calendar dates of the requested range
func FileBase(symbol string, from, to time.Time) string {
	last := to.AddDate(0, 0, -1)
	if last.Before(from) {
		last = from
	}
	return fmt.Sprintf("%s_%s_%s", strings.ToUpper(symbol), from.Format(models.DateLayout), last.Format(models.DateLayout))
}

// WriteFiles writes the report once per format into dir and returns the
// written paths in format order
func WriteFiles(report *analysis.Report, dir, base string, formats []string) ([]string, error) {
	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		path := filepath.Join(dir, base+"."+format)

		var err error
		switch format {
		case FormatJSON:
			err = WriteJSONFile(report, path)
		case FormatXLSX:
			err = WriteWorkbook(report, path)
		default:
			err = fmt.Errorf("unsupported export format %q", format)
		}
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
