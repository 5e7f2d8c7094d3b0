package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"outlet-dashboard/internal/errors"
	"outlet-dashboard/internal/models"
)

const (
	maxSummaryWorkers  = 8
	defaultLoadTimeout = 30 * time.Second
)

// WorkbookLoader is satisfied by *workbook.Loader.
type WorkbookLoader interface {
	Load(ctx context.Context, path string) (*models.Workbook, error)
}

// Dashboard owns the session's workbook. It is loaded once and only
// replaced by an explicit Reload; queries never touch the file.
type Dashboard struct {
	mu            sync.RWMutex
	workbook      *models.Workbook
	loadedAt      time.Time
	path          string
	chartCategory string
	loadTimeout   time.Duration
	loader        WorkbookLoader
	group         singleflight.Group
	logger        *slog.Logger
}

type Options struct {
	Path          string
	ChartCategory string
	// LoadTimeout bounds each workbook read. Zero means 30s.
	LoadTimeout time.Duration
	Loader      WorkbookLoader
	Logger      *slog.Logger
}

func NewDashboard(opts Options) *Dashboard {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loadTimeout := opts.LoadTimeout
	if loadTimeout <= 0 {
		loadTimeout = defaultLoadTimeout
	}
	return &Dashboard{
		path:          opts.Path,
		chartCategory: opts.ChartCategory,
		loadTimeout:   loadTimeout,
		loader:        opts.Loader,
		logger:        logger,
	}
}

// SetWorkbook installs an already parsed workbook.
func (d *Dashboard) SetWorkbook(wb *models.Workbook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.workbook = wb
	d.loadedAt = time.Now()
}

// Load reads the workbook if none is cached yet.
func (d *Dashboard) Load(ctx context.Context) error {
	if d.Workbook() != nil {
		return nil
	}
	return d.Reload(ctx)
}

// Reload re-reads the workbook file. Concurrent callers share one read, which
// runs detached from any single caller's cancellation and is bounded by the
// load timeout. A caller whose ctx ends stops waiting; the read goes on for
// the others. On failure the previous workbook, if any, stays in place.
func (d *Dashboard) Reload(ctx context.Context) error {
	if d.loader == nil {
		return errors.Load(fmt.Errorf("no loader configured"), "Failed to load data")
	}

	ch := d.group.DoChan("reload", func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.loadTimeout)
		defer cancel()

		start := time.Now()
		wb, err := d.loader.Load(loadCtx, d.path)
		if err != nil {
			return nil, err
		}
		d.SetWorkbook(wb)
		d.logger.Info("workbook loaded",
			"path", d.path,
			"categories", len(wb.Sheets),
			"duration", time.Since(start),
		)
		return nil, nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			d.logger.Debug("reload shared with concurrent caller")
		}
		return res.Err
	case <-ctx.Done():
		return errors.Load(ctx.Err(), "Failed to load data: request canceled")
	}
}

// Workbook returns the cached snapshot, or nil before the first load.
func (d *Dashboard) Workbook() *models.Workbook {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.workbook
}

func (d *Dashboard) current() (*models.Workbook, error) {
	wb := d.Workbook()
	if wb == nil {
		return nil, errors.Load(fmt.Errorf("workbook not loaded"), "Failed to load data: no workbook loaded")
	}
	return wb, nil
}

// Report resolves query and computes every metric for asOf. A query that
// matches nothing is not an error: the report carries Found=false, the
// message, and the category summaries.
func (d *Dashboard) Report(ctx context.Context, query string, asOf models.Month) (*models.Report, error) {
	wb, err := d.current()
	if err != nil {
		return nil, err
	}

	report := &models.Report{
		Query:       query,
		Month:       asOf.String(),
		GeneratedAt: time.Now(),
	}

	res, err := Resolve(wb, query)
	switch {
	case err == nil:
		report.Found = true
		report.Category = res.Sheet.Name
		for _, o := range res.Outlets {
			report.Outlets = append(report.Outlets, d.outletReport(wb, res.Sheet, o, asOf))
		}
	case errors.Is(err, errors.CodeNotFound):
		report.Message = errors.UserMessage(err)
	default:
		return nil, err
	}

	summaries, err := d.summaries(ctx, wb, query, asOf)
	if err != nil {
		return nil, err
	}
	report.Summaries = summaries

	return report, nil
}

// Summaries builds the category table without an outlet query.
func (d *Dashboard) Summaries(ctx context.Context, asOf models.Month) ([]models.CategorySummary, error) {
	wb, err := d.current()
	if err != nil {
		return nil, err
	}
	return d.summaries(ctx, wb, "", asOf)
}

func (d *Dashboard) outletReport(wb *models.Workbook, sheet *models.Sheet, o models.Outlet, asOf models.Month) models.OutletReport {
	r := models.OutletReport{
		Category: sheet.Name,
		Outlet:   o,
		Trend:    Trend(sheet, o),
	}

	if n, ok := BranchCount(sheet, o); ok {
		r.BranchCount = &n
	}

	if d.chartCategory != "" {
		if series, ok := ChartTrend(wb, d.chartCategory, o); ok {
			r.Chart = &series
		}
	}

	if g, err := MonthGrowth(sheet, o, asOf); err == nil {
		r.MonthGrowth = &g
	} else {
		r.Warnings = append(r.Warnings, errors.UserMessage(err))
	}

	ytd := YTDGrowth(sheet, o, YTDMonths(asOf))
	r.YTDGrowth = &ytd
	if ytd.Partial {
		r.Warnings = append(r.Warnings, partialWarning(sheet.Name, ytd))
	}

	return r
}

// summaries fans out one task per category. Each task writes only its own
// slot so the output keeps workbook order.
func (d *Dashboard) summaries(ctx context.Context, wb *models.Workbook, query string, asOf models.Month) ([]models.CategorySummary, error) {
	out := make([]models.CategorySummary, len(wb.Sheets))
	q := Normalize(query)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxSummaryWorkers)

	for i, sheet := range wb.Sheets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = categorySummary(sheet, q, asOf)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("category summaries: %w", err)
	}
	return out, nil
}

func categorySummary(sheet *models.Sheet, q string, asOf models.Month) models.CategorySummary {
	s := models.CategorySummary{Category: sheet.Name, Month: asOf.String()}

	zero, err := ZeroSalesCount(sheet, asOf)
	if err != nil {
		s.Warnings = append(s.Warnings, errors.UserMessage(err))
		return s
	}
	s.ZeroSales = &zero

	if q == "" {
		return s
	}

	matched := matchOutlets(sheet, q)
	if len(matched) == 0 {
		return s
	}

	o := matched[0]
	if g, err := MonthGrowth(sheet, o, asOf); err == nil {
		s.MonthGrowth = &g
	}
	ytd := YTDGrowth(sheet, o, YTDMonths(asOf))
	s.YTDGrowth = &ytd
	if ytd.Partial {
		s.Warnings = append(s.Warnings, partialWarning(sheet.Name, ytd))
	}

	return s
}

func partialWarning(category string, ytd models.YTDGrowth) string {
	return fmt.Sprintf("%s: YTD excludes %d month(s) with no column and may be understated", category, len(ytd.MissingMonths))
}

// Stats reports what is cached, for monitoring.
func (d *Dashboard) Stats() map[string]any {
	d.mu.RLock()
	defer d.mu.RUnlock()

	stats := map[string]any{
		"path":      d.path,
		"loaded":    d.workbook != nil,
		"loaded_at": d.loadedAt,
	}
	if d.workbook != nil {
		outlets := 0
		for _, s := range d.workbook.Sheets {
			outlets += len(s.Outlets)
		}
		stats["categories"] = len(d.workbook.Sheets)
		stats["outlets"] = outlets
	}
	return stats
}
