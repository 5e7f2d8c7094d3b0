package ui

import (
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"outlet-dashboard/internal/models"
)

func mustRender(t *testing.T, c templ.Component) string {
	t.Helper()
	html, err := Render(context.Background(), c)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	return html
}

func TestOutletPanel(t *testing.T) {
	branches := 3
	report := &models.Report{
		Found:    true,
		Category: "LRB",
		Outlets: []models.OutletReport{{
			Category:    "LRB",
			Outlet:      models.Outlet{ID: "1001", Name: "Store <A>", HeadOffice: "HO"},
			BranchCount: &branches,
			Trend: []models.TrendPoint{
				{Month: "2025-05", Amount: 1200, Recorded: true},
				{Month: "2025-06", Amount: 0},
			},
			MonthGrowth: &models.Growth{Period: "2025-06", Percent: models.Percent{Value: 50, Valid: true}},
			YTDGrowth:   &models.YTDGrowth{},
			Chart:       &models.ChartSeries{Category: "LRB Sales", Points: []models.TrendPoint{{Month: "2025-06", Amount: 5}}},
			Warnings:    []string{"partial year"},
		}},
	}

	html := mustRender(t, OutletPanel(report))

	expected := []string{
		`<div id="outlet-content">`,
		"Store &lt;A&gt;",
		"Total Branches under Head Office</dt><dd>3",
		"<dt>Channel</dt><dd>N/A",
		"2025-06 Growth % vs LY</dt><dd>50.0%",
		"YTD Growth %</dt><dd>n/a",
		"<td>1,200</td>",
		`<tr class="unrecorded"><td>2025-06</td>`,
		"LRB Sales Monthly Sales Trend",
		"<svg",
		"partial year",
	}
	for _, want := range expected {
		if !strings.Contains(html, want) {
			t.Errorf("expected HTML to contain %q", want)
		}
	}
	if strings.Contains(html, "Store <A>") {
		t.Error("outlet name must be escaped")
	}
}

func TestOutletPanel_NotFound(t *testing.T) {
	report := &models.Report{Message: "No outlet matching '9999' found."}
	html := mustRender(t, OutletPanel(report))

	if !strings.Contains(html, "notice-warning") || !strings.Contains(html, "No outlet matching &#39;9999&#39; found.") {
		t.Errorf("not-found message missing: %s", html)
	}
}

func TestSummaryTable(t *testing.T) {
	zero := 4
	summaries := []models.CategorySummary{
		{Category: "CSD", ZeroSales: &zero, MonthGrowth: &models.Growth{Percent: models.Percent{Value: -12.34, Valid: true}}},
		{Category: "Juice", Warnings: []string{"Juice has no 2025-06 column"}},
	}

	html := mustRender(t, SummaryTable("2025-06", summaries))

	expected := []string{
		`<div id="summary-content">`,
		"<th>2025-06 Growth % vs LY</th>",
		"CSD",
		"-12.3%",
		"<td>4</td>",
		"Juice has no 2025-06 column",
	}
	for _, want := range expected {
		if !strings.Contains(html, want) {
			t.Errorf("expected HTML to contain %q", want)
		}
	}
}

func TestTranscript(t *testing.T) {
	html := mustRender(t, Transcript([]Exchange{
		{Query: "1001", Question: "trend?", Answer: "Up."},
		{Query: "1001", Question: "why?", Error: "Summary unavailable"},
	}))

	if strings.Index(html, "trend?") > strings.Index(html, "why?") {
		t.Error("transcript should be oldest first")
	}
	if !strings.Contains(html, "<pre>Up.</pre>") || !strings.Contains(html, "notice-error") {
		t.Errorf("unexpected transcript: %s", html)
	}
}

func TestDashboard(t *testing.T) {
	html := mustRender(t, Dashboard("2025-06"))

	for _, id := range []string{OutletContentID, SummaryContentID, AnswerContentID, StatusContentID} {
		if !strings.Contains(html, `id="`+id+`"`) {
			t.Errorf("page missing #%s", id)
		}
	}
	if !strings.Contains(html, "&#34;month&#34;:&#34;2025-06&#34;") {
		t.Error("page should seed the month signal")
	}
	if !strings.Contains(html, "@get('/sse/search')") {
		t.Error("page should wire search to the SSE endpoint")
	}
}

func TestComponents_EscapeEveryValue(t *testing.T) {
	hostile := `"><script>alert(1)</script>`

	rendered := []string{
		mustRender(t, Dashboard(hostile)),
		mustRender(t, Notice(StatusContentID, hostile, hostile)),
		mustRender(t, SummaryTable(hostile, []models.CategorySummary{{Category: hostile, Warnings: []string{hostile}}})),
		mustRender(t, Transcript([]Exchange{{Query: hostile, Question: hostile, Answer: hostile}})),
		mustRender(t, OutletPanel(&models.Report{
			Found: true,
			Outlets: []models.OutletReport{{
				Category: hostile,
				Outlet:   models.Outlet{ID: hostile, Name: hostile, Channel: hostile},
				Trend:    []models.TrendPoint{{Month: hostile, Recorded: true}},
				Chart:    &models.ChartSeries{Category: hostile, Points: []models.TrendPoint{{Month: hostile, Amount: 1}}},
				Warnings: []string{hostile},
			}},
		})),
	}

	for i, html := range rendered {
		if strings.Contains(html, "<script>alert(1)") {
			t.Errorf("component %d emitted an unescaped value: %s", i, html)
		}
	}
}
