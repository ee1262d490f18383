package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mohamedkhairy/intraday-volatility/internal/analysis"
)

// WriteJSON writes the report as indented JSON; undefined values are null
func WriteJSON(report *analysis.Report, w io.Writer) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// WriteJSONFile writes the report to path, creating parent directories
func WriteJSONFile(report *analysis.Report, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(report, file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
