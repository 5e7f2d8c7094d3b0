package services

import (
	"fmt"
	"strings"
	"unicode"

	"outlet-dashboard/internal/errors"
	"outlet-dashboard/internal/models"
)

// zeroSalesWindow is the number of months before the reporting month that
// are inspected, and zeroSalesMinPositive how many of them must be positive.
const (
	zeroSalesWindow      = 3
	zeroSalesMinPositive = 2
)

// Normalize is the single matching rule for queries, outlet IDs, outlet
// names and head office names: lowercase with all whitespace removed.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Resolution is the outcome of a successful outlet lookup: every matching
// row of the first category that had any match.
type Resolution struct {
	Sheet   *models.Sheet
	Outlets []models.Outlet
}

// Resolve scans categories in workbook order and stops at the first one with
// a match, so an outlet listed in several categories resolves to the first.
func Resolve(wb *models.Workbook, query string) (Resolution, error) {
	q := Normalize(query)
	if q == "" {
		return Resolution{}, errors.NotFound("Enter an Outlet ID or Name.")
	}

	for _, sheet := range wb.Sheets {
		matched := matchOutlets(sheet, q)
		if len(matched) > 0 {
			return Resolution{Sheet: sheet, Outlets: matched}, nil
		}
	}

	return Resolution{}, errors.NotFound(fmt.Sprintf("No outlet matching '%s' found.", strings.TrimSpace(query)))
}

// matchOutlets returns the rows whose normalized ID or name equals q. Sheets
// without both match columns never match.
func matchOutlets(sheet *models.Sheet, q string) []models.Outlet {
	if !sheet.HasColumn(models.ColOutletID) || !sheet.HasColumn(models.ColOutletName) {
		return nil
	}

	var matched []models.Outlet
	for _, o := range sheet.Outlets {
		if Normalize(o.ID) == q || Normalize(o.Name) == q {
			matched = append(matched, o)
		}
	}
	return matched
}

// BranchCount is the number of rows in sheet that share the outlet's head
// office. ok is false when the outlet has no head office or the sheet lacks
// the column.
func BranchCount(sheet *models.Sheet, outlet models.Outlet) (count int, ok bool) {
	ho := Normalize(outlet.HeadOffice)
	if ho == "" || !sheet.HasColumn(models.ColHeadOffice) {
		return 0, false
	}
	for _, o := range sheet.Outlets {
		if Normalize(o.HeadOffice) == ho {
			count++
		}
	}
	return count, true
}

// Trend returns one point per month column of the sheet, in chronological
// order. Unrecorded months are reported as zero.
func Trend(sheet *models.Sheet, outlet models.Outlet) []models.TrendPoint {
	points := make([]models.TrendPoint, 0, len(sheet.Months))
	for _, month := range sheet.Months {
		v, ok := outlet.Amount(month)
		points = append(points, models.TrendPoint{Month: month, Amount: v, Recorded: ok})
	}
	return points
}

// ChartTrend finds the outlet by normalized ID in the chart category and
// returns its trend there. ok is false when the category or outlet is absent.
func ChartTrend(wb *models.Workbook, category string, outlet models.Outlet) (models.ChartSeries, bool) {
	sheet := wb.Sheet(category)
	if sheet == nil || !sheet.HasColumn(models.ColOutletID) {
		return models.ChartSeries{}, false
	}

	id := Normalize(outlet.ID)
	for _, o := range sheet.Outlets {
		if Normalize(o.ID) == id {
			return models.ChartSeries{Category: sheet.Name, Points: Trend(sheet, o)}, true
		}
	}
	return models.ChartSeries{}, false
}

// GrowthRate is (cur/prev - 1) * 100. A zero previous period has no defined
// growth and yields an invalid Percent.
func GrowthRate(cur, prev float64) models.Percent {
	if prev == 0 {
		return models.Percent{}
	}
	return models.Percent{Value: (cur/prev - 1) * 100, Valid: true}
}

// MonthGrowth compares asOf with the same month of the prior year. It fails
// with DATA_SHAPE when the sheet has no asOf column. A missing prior-year
// column or cell counts as zero, which leaves the growth undefined.
func MonthGrowth(sheet *models.Sheet, outlet models.Outlet, asOf models.Month) (models.Growth, error) {
	cur := asOf.String()
	if !sheet.HasMonth(cur) {
		return models.Growth{}, errors.DataShape(fmt.Sprintf("%s has no %s column", sheet.Name, cur))
	}

	curAmount, _ := outlet.Amount(cur)
	prevAmount, _ := outlet.Amount(asOf.PriorYear().String())

	return models.Growth{
		Period:   cur,
		Current:  curAmount,
		Previous: prevAmount,
		Percent:  GrowthRate(curAmount, prevAmount),
	}, nil
}

// YTDMonths lists January through asOf of asOf's year.
func YTDMonths(asOf models.Month) []models.Month {
	months := make([]models.Month, 0, asOf.Month)
	for m := 1; m <= asOf.Month; m++ {
		months = append(months, models.Month{Year: asOf.Year, Month: m})
	}
	return months
}

// YTDGrowth sums months and the same months one year earlier, then applies
// GrowthRate. Months without a column are excluded from their sum and
// reported in MissingMonths; the result is then marked Partial and may
// understate the true year to date.
func YTDGrowth(sheet *models.Sheet, outlet models.Outlet, months []models.Month) models.YTDGrowth {
	result := models.YTDGrowth{Months: make([]string, 0, len(months))}

	for _, m := range months {
		result.Months = append(result.Months, m.String())
		result.Current += sumPresent(sheet, outlet, m, &result.MissingMonths)
		result.Previous += sumPresent(sheet, outlet, m.PriorYear(), &result.MissingMonths)
	}

	result.Partial = len(result.MissingMonths) > 0
	result.Percent = GrowthRate(result.Current, result.Previous)
	return result
}

func sumPresent(sheet *models.Sheet, outlet models.Outlet, m models.Month, missing *[]string) float64 {
	label := m.String()
	if !sheet.HasMonth(label) {
		*missing = append(*missing, label)
		return 0
	}
	v, _ := outlet.Amount(label)
	return v
}

// ZeroSalesWindow returns the month columns, among the three immediately
// before asOf, that exist in the sheet.
func ZeroSalesWindow(sheet *models.Sheet, asOf models.Month) []string {
	window := make([]string, 0, zeroSalesWindow)
	for i := zeroSalesWindow; i >= 1; i-- {
		label := asOf.AddMonths(-i).String()
		if sheet.HasMonth(label) {
			window = append(window, label)
		}
	}
	return window
}

// IsZeroSalesOutlet reports whether the outlet sold nothing in current
// (absent counts as zero) while at least two window months were positive.
func IsZeroSalesOutlet(outlet models.Outlet, current string, window []string) bool {
	if v, _ := outlet.Amount(current); v != 0 {
		return false
	}

	positive := 0
	for _, month := range window {
		if v, ok := outlet.Amount(month); ok && v > 0 {
			positive++
		}
	}
	return positive >= zeroSalesMinPositive
}

// ZeroSalesCount counts zero-sales outlets across every row of the sheet.
// The category needs an asOf column, otherwise DATA_SHAPE is returned. With
// fewer than two window months available no outlet can qualify and the
// count is zero.
func ZeroSalesCount(sheet *models.Sheet, asOf models.Month) (int, error) {
	current := asOf.String()
	if !sheet.HasMonth(current) {
		return 0, errors.DataShape(fmt.Sprintf("%s has no %s column", sheet.Name, current))
	}

	window := ZeroSalesWindow(sheet, asOf)
	count := 0
	for _, o := range sheet.Outlets {
		if IsZeroSalesOutlet(o, current, window) {
			count++
		}
	}
	return count, nil
}
