package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/couchcryptid/soil-moisture-monitor/internal/domain"
	"github.com/jung-kurt/gofpdf"
)

// Report is the input for the PDF summary.
type Report struct {
	ChannelID   string
	Result      domain.Result
	Labels      map[int]string
	GeneratedAt time.Time
}

const (
	pageWidth      = 190.0 // A4 portrait minus default margins, in mm
	timestampWidth = 40.0
	rowHeight      = 6.0
)

// BuildReportPDF renders a one-document summary: header facts, the latest
// reading per active channel, and the retained readings table.
func BuildReportPDF(r Report) ([]byte, error) {
	res := r.Result

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Soil Moisture Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Channel: %s", r.ChannelID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Since: %s", res.Cutoff.Display()))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Readings: %d of %d", res.Retained, res.Total))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Last reading: %s", res.Snapshot.Time.Format("02/01/2006 15:04")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", r.GeneratedAt.Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, rowHeight, "Sensor", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, rowHeight, "Value (%)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, rowHeight, "Status", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, ch := range res.ActiveChannels {
		v, ok := res.Snapshot.Values[ch]
		if !ok {
			continue
		}
		pdf.CellFormat(60, rowHeight, domain.ChannelLabel(r.Labels, ch), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, rowHeight, domain.FormatCell(domain.Cell{Value: v, Present: true}), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, rowHeight, string(res.Snapshot.Statuses[ch]), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(6)

	// Readings table
	table := res.Export
	colWidth := pageWidth - timestampWidth
	if n := len(table.Channels); n > 0 {
		colWidth /= float64(n)
	}
	pdf.SetFont("Arial", "B", 9)
	for i, name := range table.Header() {
		pdf.CellFormat(columnWidth(i, colWidth), rowHeight, name, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, rec := range table.Records() {
		for i, s := range rec {
			align := "R"
			if i == 0 {
				align = "C"
			}
			pdf.CellFormat(columnWidth(i, colWidth), rowHeight, s, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func columnWidth(i int, channelWidth float64) float64 {
	if i == 0 {
		return timestampWidth
	}
	return channelWidth
}
