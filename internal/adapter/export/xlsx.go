package export

import (
	"bytes"

	"github.com/couchcryptid/soil-moisture-monitor/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Sheet names in the XLSX workbook.
const (
	SheetReadings = "readings"
	SheetSnapshot = "snapshot"
)

// BuildXLSX renders the export table on a "readings" sheet, with the same
// columns as the CSV, and the latest reading per channel on a "snapshot" sheet.
// Absent values are left as blank cells.
func BuildXLSX(res domain.Result, labels map[int]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetReadings); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SheetSnapshot); err != nil {
		return nil, err
	}

	table := res.Export
	for i, name := range table.Header() {
		_ = f.SetCellValue(SheetReadings, cellName(i+1, 1), name)
	}
	for r, row := range table.Rows {
		_ = f.SetCellValue(SheetReadings, cellName(1, r+2), row.Time.Format(domain.TimestampLayout))
		for c, v := range row.Cells {
			if v.Present {
				_ = f.SetCellValue(SheetReadings, cellName(c+2, r+2), v.Value)
			}
		}
	}

	_ = f.SetCellValue(SheetSnapshot, "A1", "Channel")
	_ = f.SetCellValue(SheetSnapshot, "B1", "Label")
	_ = f.SetCellValue(SheetSnapshot, "C1", "Value")
	_ = f.SetCellValue(SheetSnapshot, "D1", "Status")
	_ = f.SetCellValue(SheetSnapshot, "E1", "Last reading")
	_ = f.SetCellValue(SheetSnapshot, "F1", res.Snapshot.Time.Format(domain.TimestampLayout))
	row := 2
	for _, ch := range res.ActiveChannels {
		v, ok := res.Snapshot.Values[ch]
		if !ok {
			continue
		}
		_ = f.SetCellValue(SheetSnapshot, cellName(1, row), domain.FieldName(ch))
		_ = f.SetCellValue(SheetSnapshot, cellName(2, row), domain.ChannelLabel(labels, ch))
		_ = f.SetCellValue(SheetSnapshot, cellName(3, row), v)
		_ = f.SetCellValue(SheetSnapshot, cellName(4, row), string(res.Snapshot.Statuses[ch]))
		row++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
