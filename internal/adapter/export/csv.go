// Package export renders a filtered dataset as downloadable files: CSV for
// the raw table, XLSX for spreadsheets, and a PDF summary report.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/soil-moisture-monitor/internal/domain"
)

// Content types served for each format.
const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
)

// WriteCSV writes the header row followed by one row per reading.
func WriteCSV(w io.Writer, table domain.ExportTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Header()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(table.Records()); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

// ReadCSV parses a file produced by WriteCSV back into a table. Timestamps are
// read as display wall clock in UTC, the same form readings carry in memory.
func ReadCSV(r io.Reader) (domain.ExportTable, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return domain.ExportTable{}, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return domain.ExportTable{}, fmt.Errorf("read csv: missing header")
	}

	header := records[0]
	if len(header) == 0 || header[0] != domain.TimestampColumn {
		return domain.ExportTable{}, fmt.Errorf("read csv: first column must be %q", domain.TimestampColumn)
	}
	channels := make([]int, 0, len(header)-1)
	for _, name := range header[1:] {
		ch, err := strconv.Atoi(strings.TrimPrefix(name, "field"))
		if err != nil || domain.FieldName(ch) != name {
			return domain.ExportTable{}, fmt.Errorf("read csv: unexpected column %q", name)
		}
		channels = append(channels, ch)
	}

	table := domain.ExportTable{Channels: channels, Rows: make([]domain.ExportRow, 0, len(records)-1)}
	for i, rec := range records[1:] {
		ts, err := time.ParseInLocation(domain.TimestampLayout, rec[0], time.UTC)
		if err != nil {
			return domain.ExportTable{}, fmt.Errorf("read csv: row %d: %w", i+1, err)
		}
		row := domain.ExportRow{Time: ts, Cells: make([]domain.Cell, len(channels))}
		for j, s := range rec[1:] {
			if s == "" {
				continue
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return domain.ExportTable{}, fmt.Errorf("read csv: row %d column %s: %w", i+1, header[j+1], err)
			}
			row.Cells[j] = domain.Cell{Value: v, Present: true}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}
