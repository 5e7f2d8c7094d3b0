package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// TrendPoint is one month of an outlet's sales series. Unrecorded months
// carry Amount 0 with Recorded false.
type TrendPoint struct {
	Month    string  `json:"month"`
	Amount   float64 `json:"amount"`
	Recorded bool    `json:"recorded"`
}

// Percent is a growth figure that may be undefined (zero previous period).
type Percent struct {
	Value float64
	Valid bool
}

func (p Percent) String() string {
	if !p.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", p.Value)
}

func (p Percent) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(p.Value)
}

// Growth compares a current amount against the same period one year earlier.
type Growth struct {
	Period   string  `json:"period"`
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
	Percent  Percent `json:"percent"`
}

// YTDGrowth is the growth of a summed month range. Partial is set when any
// month in either range has no column, so the sums may understate the year.
type YTDGrowth struct {
	Months        []string `json:"months"`
	Current       float64  `json:"current"`
	Previous      float64  `json:"previous"`
	Percent       Percent  `json:"percent"`
	Partial       bool     `json:"partial"`
	MissingMonths []string `json:"missing_months,omitempty"`
}

// OutletReport is the metrics bundle for one resolved outlet row.
type OutletReport struct {
	Category    string       `json:"category"`
	Outlet      Outlet       `json:"outlet"`
	BranchCount *int         `json:"branch_count,omitempty"`
	Trend       []TrendPoint `json:"trend"`
	Chart       *ChartSeries `json:"chart,omitempty"`
	MonthGrowth *Growth      `json:"month_growth,omitempty"`
	YTDGrowth   *YTDGrowth   `json:"ytd_growth,omitempty"`
	Warnings    []string     `json:"warnings,omitempty"`
}

// ChartSeries is the outlet's trend in the reference chart category.
type ChartSeries struct {
	Category string       `json:"category"`
	Points   []TrendPoint `json:"points"`
}

// CategorySummary is one row of the category table. ZeroSales is always
// computed when the category has the reporting month; growth fields are set
// only when the queried outlet appears in the category.
type CategorySummary struct {
	Category    string     `json:"category"`
	Month       string     `json:"month"`
	MonthGrowth *Growth    `json:"month_growth,omitempty"`
	YTDGrowth   *YTDGrowth `json:"ytd_growth,omitempty"`
	ZeroSales   *int       `json:"zero_sales_outlets,omitempty"`
	Warnings    []string   `json:"warnings,omitempty"`
}

// Report is the response to a single query.
type Report struct {
	Query       string            `json:"query"`
	Month       string            `json:"month"`
	Found       bool              `json:"found"`
	Category    string            `json:"category,omitempty"`
	Message     string            `json:"message,omitempty"`
	Outlets     []OutletReport    `json:"outlets,omitempty"`
	Summaries   []CategorySummary `json:"summaries"`
	GeneratedAt time.Time         `json:"generated_at"`
}
