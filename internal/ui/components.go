// Package ui holds the dashboard page and the fragments the SSE handlers
// patch into it. Markup lives in html/template sources so every value is
// escaped for its context; components adapt the templates to templ.
package ui

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"math"
	"strings"

	"github.com/a-h/templ"

	"outlet-dashboard/internal/llm"
	"outlet-dashboard/internal/models"
)

// Element ids patched by the SSE handlers.
const (
	OutletContentID  = "outlet-content"
	SummaryContentID = "summary-content"
	AnswerContentID  = "answer-content"
	StatusContentID  = "status-content"
)

const (
	chartWidth  = 640
	chartHeight = 160
)

// Exchange is one question and its answer or error, as shown in the chat log.
type Exchange struct {
	Query    string
	Question string
	Answer   string
	Error    string
}

var funcs = template.FuncMap{
	"amount": llm.FormatAmount,
}

var fragments = template.Must(template.New("fragments").Funcs(funcs).Parse(`
{{define "notice"}}<div id="{{.ID}}"><div class="notice notice-{{.Kind}}">{{.Message}}</div></div>{{end}}

{{define "outletPanel"}}<div id="outlet-content">
{{- if .NotFound}}<div class="notice notice-warning">{{.Message}}</div>{{end}}
{{- range .Outlets}}<section class="outlet-card"><h3>Outlet: {{.Name}} ({{.ID}})</h3>
<dl class="outlet-attrs">{{range .Attrs}}<dt>{{.Label}}</dt><dd>{{.Value}}</dd>{{end}}</dl>
{{- range .Warnings}}<div class="notice notice-info">{{.}}</div>{{end}}
<h4>Monthly Sales Trend</h4>
<table class="modern-table"><thead><tr><th>Month</th><th>Sales</th></tr></thead><tbody>
{{- range .Trend}}{{if .Recorded}}<tr>{{else}}<tr class="unrecorded">{{end}}<td>{{.Month}}</td><td>{{amount .Amount}}</td></tr>{{end -}}
</tbody></table>
{{- with .Chart}}
<h4>{{.Category}} Monthly Sales Trend</h4>
<svg class="trend-chart" viewBox="{{.ViewBox}}" role="img">
{{- range .Marks}}<circle cx="{{.X}}" cy="{{.Y}}" r="3"/><text x="{{.X}}" y="{{.LabelY}}" font-size="8" text-anchor="middle">{{.Amount}}</text><text x="{{.X}}" y="{{.AxisY}}" font-size="8" text-anchor="end" transform="{{.Rotate}}">{{.Month}}</text>{{end -}}
<polyline fill="none" stroke="currentColor" points="{{.Points}}"/></svg>
{{- end}}
</section>{{end}}
</div>{{end}}

{{define "summaryTable"}}<div id="summary-content"><h3>Category Summary</h3>
<table class="modern-table"><thead><tr><th>Category</th><th>{{.Month}} Growth % vs LY</th><th>YTD Growth %</th><th>Zero Sales Outlets</th></tr></thead><tbody>
{{- range .Rows}}<tr><td><span class="category-badge">{{.Category}}</span></td><td>{{.Growth}}</td><td>{{.YTD}}</td><td>{{.Zero}}</td></tr>{{end -}}
</tbody></table>
{{- range .Warnings}}<div class="notice notice-info">{{.}}</div>{{end}}
</div>{{end}}

{{define "transcript"}}<div id="answer-content">
{{- range .}}<div class="exchange"><div class="question"><strong>{{.Query}}</strong>: {{.Question}}</div>
{{- if .Error}}<div class="notice notice-error">{{.Error}}</div>
{{- else}}<div class="answer"><h4>AI Response</h4><pre>{{.Answer}}</pre></div>{{end -}}
</div>{{end -}}
</div>{{end}}
`))

func component(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return fragments.ExecuteTemplate(w, name, data)
	})
}

func na(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// Notice renders a single message box with the given id.
func Notice(id, kind, message string) templ.Component {
	return component("notice", struct{ ID, Kind, Message string }{id, kind, message})
}

type attr struct{ Label, Value string }

type mark struct {
	X      string
	Y      string
	LabelY string
	AxisY  string
	Rotate string
	Amount string
	Month  string
}

type chartView struct {
	Category string
	ViewBox  string
	Points   string
	Marks    []mark
}

type outletView struct {
	Name, ID string
	Attrs    []attr
	Warnings []string
	Trend    []models.TrendPoint
	Chart    *chartView
}

// OutletPanel renders every resolved row of the report, or the not-found
// message.
func OutletPanel(report *models.Report) templ.Component {
	outlets := make([]outletView, 0, len(report.Outlets))
	for _, r := range report.Outlets {
		outlets = append(outlets, newOutletView(r))
	}
	return component("outletPanel", struct {
		NotFound bool
		Message  string
		Outlets  []outletView
	}{!report.Found, report.Message, outlets})
}

func newOutletView(r models.OutletReport) outletView {
	o := r.Outlet
	v := outletView{Name: o.Name, ID: o.ID, Warnings: r.Warnings, Trend: r.Trend}

	v.Attrs = append(v.Attrs, attr{"Category", r.Category}, attr{"Head Office", na(o.HeadOffice)})
	if r.BranchCount != nil {
		v.Attrs = append(v.Attrs, attr{"Total Branches under Head Office", fmt.Sprint(*r.BranchCount)})
	}
	v.Attrs = append(v.Attrs,
		attr{"Channel", na(o.Channel)},
		attr{"Segment", na(o.Segment)},
		attr{"Status", na(o.Status)},
		attr{"Warehouse", na(o.Warehouse)},
	)
	if r.MonthGrowth != nil {
		v.Attrs = append(v.Attrs, attr{r.MonthGrowth.Period + " Growth % vs LY", r.MonthGrowth.Percent.String()})
	}
	if r.YTDGrowth != nil {
		v.Attrs = append(v.Attrs, attr{"YTD Growth %", r.YTDGrowth.Percent.String()})
	}

	if r.Chart != nil && len(r.Chart.Points) > 0 {
		v.Chart = newChartView(r.Chart)
	}
	return v
}

// newChartView lays the series out as an SVG line with point labels.
func newChartView(series *models.ChartSeries) *chartView {
	points := series.Points

	maxV := 0.0
	for _, p := range points {
		maxV = math.Max(maxV, p.Amount)
	}
	if maxV == 0 {
		maxV = 1
	}

	step := float64(chartWidth-40) / math.Max(1, float64(len(points)-1))
	axisY := chartHeight + 10
	c := &chartView{
		Category: series.Category,
		ViewBox:  fmt.Sprintf("0 0 %d %d", chartWidth, chartHeight+30),
	}

	coords := make([]string, 0, len(points))
	for i, p := range points {
		x := 20 + step*float64(i)
		y := 20 + float64(chartHeight-40)*(1-math.Max(0, p.Amount)/maxV)
		coords = append(coords, fmt.Sprintf("%.1f,%.1f", x, y))
		c.Marks = append(c.Marks, mark{
			X:      fmt.Sprintf("%.1f", x),
			Y:      fmt.Sprintf("%.1f", y),
			LabelY: fmt.Sprintf("%.1f", y-6),
			AxisY:  fmt.Sprint(axisY),
			Rotate: fmt.Sprintf("rotate(-45 %.1f %d)", x, axisY),
			Amount: llm.FormatAmount(p.Amount),
			Month:  p.Month,
		})
	}
	c.Points = strings.Join(coords, " ")
	return c
}

type summaryRow struct {
	Category, Growth, YTD, Zero string
}

// SummaryTable renders the per-category table.
func SummaryTable(month string, summaries []models.CategorySummary) templ.Component {
	rows := make([]summaryRow, 0, len(summaries))
	var warnings []string
	for _, s := range summaries {
		row := summaryRow{Category: s.Category, Growth: "-", YTD: "-", Zero: "-"}
		if s.MonthGrowth != nil {
			row.Growth = s.MonthGrowth.Percent.String()
		}
		if s.YTDGrowth != nil {
			row.YTD = s.YTDGrowth.Percent.String()
		}
		if s.ZeroSales != nil {
			row.Zero = fmt.Sprint(*s.ZeroSales)
		}
		rows = append(rows, row)
		warnings = append(warnings, s.Warnings...)
	}
	return component("summaryTable", struct {
		Month    string
		Rows     []summaryRow
		Warnings []string
	}{month, rows, warnings})
}

// Transcript renders the chat log, oldest first.
func Transcript(entries []Exchange) templ.Component {
	return component("transcript", entries)
}

// Render writes c to a string, for SSE element patches.
func Render(ctx context.Context, c templ.Component) (string, error) {
	var b strings.Builder
	if err := c.Render(ctx, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}
