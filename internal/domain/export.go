package domain

import (
	"strconv"
	"time"
)

const (
	// TimestampColumn is the first export column.
	TimestampColumn = "created_at"
	// TimestampLayout formats reading times in exports (display wall clock).
	TimestampLayout = "2006-01-02 15:04:05"
)

// Cell is one export value; Present is false for empty cells.
type Cell struct {
	Value   float64
	Present bool
}

// ExportRow is one filtered reading flattened to the export columns.
type ExportRow struct {
	Time  time.Time
	Cells []Cell
}

// ExportTable is the flat tabular form of a filtered dataset.
type ExportTable struct {
	Channels []int // column order after the timestamp
	Rows     []ExportRow
}

// BuildExportTable flattens readings into one row each, one column per channel.
func BuildExportTable(readings []Reading, channels []int) ExportTable {
	table := ExportTable{
		Channels: append([]int(nil), channels...),
		Rows:     make([]ExportRow, 0, len(readings)),
	}
	for _, r := range readings {
		row := ExportRow{Time: r.Time, Cells: make([]Cell, len(channels))}
		for i, ch := range channels {
			if v, ok := r.Values[ch]; ok {
				row.Cells[i] = Cell{Value: v, Present: true}
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// Header returns the column names: created_at followed by fieldN per channel.
func (t ExportTable) Header() []string {
	header := make([]string, 0, len(t.Channels)+1)
	header = append(header, TimestampColumn)
	for _, ch := range t.Channels {
		header = append(header, FieldName(ch))
	}
	return header
}

// Records returns the rows as strings, matching Header.
func (t ExportTable) Records() [][]string {
	records := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make([]string, 0, len(row.Cells)+1)
		rec = append(rec, row.Time.Format(TimestampLayout))
		for _, c := range row.Cells {
			rec = append(rec, FormatCell(c))
		}
		records = append(records, rec)
	}
	return records
}

// FormatCell renders a cell with the shortest decimal form that parses back
// to the same float64, or "" when absent.
func FormatCell(c Cell) string {
	if !c.Present {
		return ""
	}
	return strconv.FormatFloat(c.Value, 'f', -1, 64)
}
