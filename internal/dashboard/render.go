package dashboard

import (
	"fmt"
	"html/template"
	"io"
	"math"
	"strings"
)

const (
	chartWidth   = 640.0
	chartHeight  = 240.0
	chartPadding = 32.0
)

var palette = []string{"#2e7d32", "#1565c0", "#ef6c00", "#6a1b9a", "#c62828", "#00838f", "#4e342e", "#546e7a"}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Soil Moisture Monitor</title>
<style>
body { font-family: sans-serif; max-width: 720px; margin: 2em auto; color: #222; }
.notice { padding: .6em 1em; border-radius: 4px; margin: .5em 0; }
.error { background: #fdecea; } .warning { background: #fff4e5; }
.info { background: #e8f4fd; } .success { background: #edf7ed; }
.metrics { display: flex; gap: 1.5em; flex-wrap: wrap; }
.metric .value { font-size: 2em; }
.caption { color: #666; font-size: .9em; }
</style>
</head>
<body>
<h1>Soil Moisture Monitoring</h1>
<form method="get" action="/">
<label>Show data since: <input type="date" name="since" value="{{.Since.String}}"></label>
<button type="submit">Refresh</button>
</form>
<hr>
{{range .Notices}}<div class="notice {{.Level}}">{{.Text}}</div>
{{end}}
{{- if .HasData}}
<div class="metrics">
{{range .Readings}}<div class="metric">
<div>{{.Label}}</div>
<div class="value">{{.Value}}%</div>
<div class="notice {{.Notice.Level}}">{{.Notice.Text}}</div>
</div>
{{end}}</div>
<h2>History</h2>
<p class="caption">{{.Caption}}</p>
<svg width="{{.Chart.Width}}" height="{{.Chart.Height}}" viewBox="0 0 {{.Chart.Width}} {{.Chart.Height}}">
<rect x="0" y="0" width="{{.Chart.Width}}" height="{{.Chart.Height}}" fill="#fafafa"/>
{{range .Chart.Lines}}<polyline fill="none" stroke="{{.Color}}" stroke-width="2" points="{{.Points}}"><title>{{.Label}}</title></polyline>
{{end}}<text x="4" y="14" font-size="11">{{.Chart.YMax}}</text>
<text x="4" y="{{.Chart.BottomY}}" font-size="11">{{.Chart.YMin}}</text>
</svg>
<p class="caption">{{.LastReading}}</p>
<p>Download: <a href="/api/export.csv?since={{.Since.String}}">CSV</a> | <a href="/api/export.xlsx?since={{.Since.String}}">XLSX</a> | <a href="/api/report.pdf?since={{.Since.String}}">PDF report</a></p>
{{- end}}
<hr>
</body>
</html>
`

var page = template.Must(template.New("dashboard").Parse(pageTemplate))

type chartLine struct {
	Label  string
	Color  string
	Points string
}

type chart struct {
	Width   float64
	Height  float64
	BottomY float64
	YMin    float64
	YMax    float64
	Lines   []chartLine
}

type pageData struct {
	View
	Chart chart
}

// Render writes the dashboard HTML for v.
func Render(w io.Writer, v View) error {
	return page.Execute(w, pageData{View: v, Chart: buildChart(v.Series)})
}

// buildChart scales every series onto one SVG canvas. The y axis always spans
// at least 0..100 so moisture percentages keep a stable baseline.
func buildChart(series []ChartSeries) chart {
	c := chart{Width: chartWidth, Height: chartHeight, BottomY: chartHeight - 4, YMin: 0, YMax: 100}

	var tMin, tMax int64
	first := true
	for _, s := range series {
		for _, p := range s.Points {
			ts := p.Time.Unix()
			if first || ts < tMin {
				tMin = ts
			}
			if first || ts > tMax {
				tMax = ts
			}
			first = false
			c.YMin = math.Min(c.YMin, p.Value)
			c.YMax = math.Max(c.YMax, p.Value)
		}
	}
	if first {
		return c
	}

	plotW := chartWidth - 2*chartPadding
	plotH := chartHeight - 2*chartPadding
	span := float64(tMax - tMin)

	for i, s := range series {
		pts := make([]string, 0, len(s.Points))
		for _, p := range s.Points {
			x := chartPadding + plotW/2
			if span > 0 {
				x = chartPadding + plotW*float64(p.Time.Unix()-tMin)/span
			}
			y := chartPadding + plotH*(1-(p.Value-c.YMin)/(c.YMax-c.YMin))
			pts = append(pts, fmt.Sprintf("%.1f,%.1f", x, y))
		}
		c.Lines = append(c.Lines, chartLine{
			Label:  s.Label,
			Color:  palette[i%len(palette)],
			Points: strings.Join(pts, " "),
		})
	}
	return c
}
