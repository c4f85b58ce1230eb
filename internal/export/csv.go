// Package export writes the flat delimited export of fitment records.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"bulbfinder/harvester/internal/domain"

	log "github.com/sirupsen/logrus"
)

type Exporter interface {
	Export(records []domain.FitmentRecord) error
}

type CSVExporter struct {
	path string
}

func NewCSVExporter(path string) *CSVExporter {
	return &CSVExporter{path: path}
}

func (e *CSVExporter) Path() string {
	return e.path
}

// Export writes the unique records with a header row, replacing the file.
func (e *CSVExporter) Export(records []domain.FitmentRecord) error {
	unique := domain.Unique(records)
	if len(unique) == 0 {
		log.Warn("⚠️ No data to export")
		return nil
	}

	data, err := EncodeCSV(unique)
	if err != nil {
		return err
	}

	if err := WriteFileAtomic(e.path, data); err != nil {
		return fmt.Errorf("failed to write csv export: %w", err)
	}

	log.Infof("💾 Saved %d unique records to %s", len(unique), e.path)
	return nil
}

// EncodeCSV renders records in domain.FitmentColumns order.
func EncodeCSV(records []domain.FitmentRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(domain.FitmentColumns); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range records {
		if err := w.Write(r.Row()); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
