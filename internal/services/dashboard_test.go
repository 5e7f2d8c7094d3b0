package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"outlet-dashboard/internal/errors"
	"outlet-dashboard/internal/models"
)

type stubLoader struct {
	calls atomic.Int32
	wb    *models.Workbook
	err   error
	delay time.Duration
}

func (s *stubLoader) Load(ctx context.Context, path string) (*models.Workbook, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, errors.Load(ctx.Err(), "Failed to load data")
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.wb, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// endToEndWorkbook is the single-sheet example: LRB with one outlet.
func endToEndWorkbook() *models.Workbook {
	return &models.Workbook{Sheets: []*models.Sheet{
		sheet("LRB", []string{"2024-06", "2025-06"},
			outlet("1001", "Store A", map[string]float64{"2024-06": 100, "2025-06": 150})),
	}}
}

func TestDashboard_Report_EndToEnd(t *testing.T) {
	d := NewDashboard(Options{Logger: testLogger()})
	d.SetWorkbook(endToEndWorkbook())
	asOf := models.Month{Year: 2025, Month: 6}

	report, err := d.Report(context.Background(), "1001", asOf)
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if !report.Found || report.Category != "LRB" || len(report.Outlets) != 1 {
		t.Fatalf("Report() = %+v", report)
	}
	g := report.Outlets[0].MonthGrowth
	if g == nil || !g.Percent.Valid || g.Percent.Value != 50 {
		t.Errorf("month growth = %+v, want 50%%", g)
	}

	report, err = d.Report(context.Background(), "9999", asOf)
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if report.Found {
		t.Error("Report(9999) should not be found")
	}
	if report.Message != "No outlet matching '9999' found." {
		t.Errorf("Message = %q", report.Message)
	}
	if len(report.Summaries) != 1 || report.Summaries[0].ZeroSales == nil {
		t.Errorf("summaries should still be computed: %+v", report.Summaries)
	}
	if report.Summaries[0].MonthGrowth != nil {
		t.Error("summary growth should be omitted when outlet is absent from the category")
	}
}

func TestDashboard_Report_SummariesAcrossCategories(t *testing.T) {
	csd := sheet("CSD", []string{"2024-06", "2025-03", "2025-04", "2025-05", "2025-06"},
		outlet("1001", "Store A", map[string]float64{"2024-06": 100, "2025-06": 120}),
		outlet("1002", "Store B", map[string]float64{"2025-03": 0, "2025-04": 50, "2025-05": 60, "2025-06": 0}),
	)
	water := sheet("Water", []string{"2025-06"},
		outlet("1001", "Store A", map[string]float64{"2025-06": 10}))
	juice := sheet("Juice", []string{"2025-05"}, outlet("3001", "Store C", nil))

	d := NewDashboard(Options{Logger: testLogger()})
	d.SetWorkbook(&models.Workbook{Sheets: []*models.Sheet{csd, water, juice}})

	report, err := d.Report(context.Background(), "store a", models.Month{Year: 2025, Month: 6})
	if err != nil {
		t.Fatal(err)
	}

	if report.Category != "CSD" {
		t.Errorf("resolved category = %s, want CSD", report.Category)
	}
	if len(report.Summaries) != 3 {
		t.Fatalf("got %d summaries, want 3", len(report.Summaries))
	}

	for i, want := range []string{"CSD", "Water", "Juice"} {
		if report.Summaries[i].Category != want {
			t.Errorf("summary %d = %s, want %s", i, report.Summaries[i].Category, want)
		}
	}

	c := report.Summaries[0]
	if c.ZeroSales == nil || *c.ZeroSales != 1 {
		t.Errorf("CSD zero sales = %v, want 1", c.ZeroSales)
	}
	if c.MonthGrowth == nil || c.MonthGrowth.Percent.Value != 20 {
		t.Errorf("CSD month growth = %+v, want 20%%", c.MonthGrowth)
	}

	w := report.Summaries[1]
	if w.MonthGrowth == nil || w.MonthGrowth.Percent.Valid {
		t.Errorf("Water growth should be present and undefined, got %+v", w.MonthGrowth)
	}

	j := report.Summaries[2]
	if j.ZeroSales != nil || len(j.Warnings) == 0 {
		t.Errorf("Juice lacks the month column, want omitted metric with warning: %+v", j)
	}
}

func TestDashboard_Report_OutletDetails(t *testing.T) {
	csd := sheet("CSD", []string{"2025-06"},
		models.Outlet{ID: "1001", Name: "Store A", HeadOffice: "HO", Sales: map[string]float64{"2025-06": 5}},
		models.Outlet{ID: "1003", Name: "Store C", HeadOffice: "HO", Sales: map[string]float64{}},
	)
	lrb := sheet("LRB Sales", []string{"2025-05", "2025-06"},
		outlet("1001", "Store A", map[string]float64{"2025-05": 1, "2025-06": 2}))

	d := NewDashboard(Options{ChartCategory: "LRB Sales", Logger: testLogger()})
	d.SetWorkbook(&models.Workbook{Sheets: []*models.Sheet{csd, lrb}})

	report, err := d.Report(context.Background(), "1001", models.Month{Year: 2025, Month: 6})
	if err != nil {
		t.Fatal(err)
	}

	r := report.Outlets[0]
	if r.BranchCount == nil || *r.BranchCount != 2 {
		t.Errorf("BranchCount = %v, want 2", r.BranchCount)
	}
	if r.Chart == nil || r.Chart.Category != "LRB Sales" || len(r.Chart.Points) != 2 {
		t.Errorf("Chart = %+v", r.Chart)
	}
	if r.YTDGrowth == nil || !r.YTDGrowth.Partial {
		t.Errorf("YTD over a single-column sheet should be partial: %+v", r.YTDGrowth)
	}
	if len(r.Warnings) == 0 {
		t.Error("partial YTD should add a warning")
	}
}

func TestDashboard_NotLoaded(t *testing.T) {
	d := NewDashboard(Options{Logger: testLogger()})

	if _, err := d.Report(context.Background(), "1001", models.Month{Year: 2025, Month: 6}); !errors.Is(err, errors.CodeLoad) {
		t.Errorf("Report() before load error = %v, want LOAD_ERROR", err)
	}
	if _, err := d.Summaries(context.Background(), models.Month{Year: 2025, Month: 6}); !errors.Is(err, errors.CodeLoad) {
		t.Errorf("Summaries() before load error = %v, want LOAD_ERROR", err)
	}
}

func TestDashboard_LoadOnce(t *testing.T) {
	loader := &stubLoader{wb: endToEndWorkbook()}
	d := NewDashboard(Options{Path: "sales.xlsx", Loader: loader, Logger: testLogger()})

	for i := 0; i < 3; i++ {
		if err := d.Load(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 3; i++ {
		if _, err := d.Report(context.Background(), "1001", models.Month{Year: 2025, Month: 6}); err != nil {
			t.Fatal(err)
		}
	}

	if got := loader.calls.Load(); got != 1 {
		t.Errorf("loader called %d times, want 1", got)
	}

	if err := d.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := loader.calls.Load(); got != 2 {
		t.Errorf("loader called %d times after Reload, want 2", got)
	}
}

func TestDashboard_ConcurrentReloadShared(t *testing.T) {
	loader := &stubLoader{wb: endToEndWorkbook(), delay: 50 * time.Millisecond}
	d := NewDashboard(Options{Loader: loader, Logger: testLogger()})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = d.Reload(context.Background())
		}()
	}
	wg.Wait()

	if got := loader.calls.Load(); got >= 5 {
		t.Errorf("concurrent reloads should share a read, loader called %d times", got)
	}
}

func TestDashboard_ReloadSurvivesCanceledCaller(t *testing.T) {
	loader := &stubLoader{wb: endToEndWorkbook(), delay: 100 * time.Millisecond}
	d := NewDashboard(Options{Loader: loader, Logger: testLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() { first <- d.Reload(ctx) }()

	// Let the first caller start the shared read before the second joins.
	time.Sleep(20 * time.Millisecond)
	second := make(chan error, 1)
	go func() { second <- d.Reload(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	if err := <-first; !errors.Is(err, errors.CodeLoad) {
		t.Errorf("canceled caller error = %v, want LOAD_ERROR", err)
	}
	if err := <-second; err != nil {
		t.Errorf("joined caller error = %v, want nil", err)
	}
	if d.Workbook() == nil {
		t.Error("shared reload should install the workbook")
	}
	if got := loader.calls.Load(); got != 1 {
		t.Errorf("loader called %d times, want 1", got)
	}
}

func TestDashboard_ReloadTimeout(t *testing.T) {
	loader := &stubLoader{wb: endToEndWorkbook(), delay: time.Second}
	d := NewDashboard(Options{Loader: loader, Logger: testLogger(), LoadTimeout: 20 * time.Millisecond})

	if err := d.Reload(context.Background()); !errors.Is(err, errors.CodeLoad) {
		t.Errorf("Reload() error = %v, want LOAD_ERROR after timeout", err)
	}
	if d.Workbook() != nil {
		t.Error("timed out reload must not install a workbook")
	}
}

func TestDashboard_ReloadFailureKeepsWorkbook(t *testing.T) {
	loader := &stubLoader{wb: endToEndWorkbook()}
	d := NewDashboard(Options{Loader: loader, Logger: testLogger()})
	if err := d.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	loader.err = errors.Load(fmt.Errorf("disk gone"), "Failed to load data")
	if err := d.Reload(context.Background()); !errors.Is(err, errors.CodeLoad) {
		t.Errorf("Reload() error = %v, want LOAD_ERROR", err)
	}
	if d.Workbook() == nil {
		t.Error("failed reload must keep the previous workbook")
	}
}

func TestDashboard_Stats(t *testing.T) {
	d := NewDashboard(Options{Path: "sales.xlsx", Logger: testLogger()})
	if d.Stats()["loaded"] != false {
		t.Error("stats should report not loaded")
	}

	d.SetWorkbook(endToEndWorkbook())
	stats := d.Stats()
	if stats["categories"] != 1 || stats["outlets"] != 1 {
		t.Errorf("Stats() = %v", stats)
	}
}
