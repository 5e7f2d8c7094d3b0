package llm

import (
	"encoding/csv"
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"outlet-dashboard/internal/models"
)

// OutletContext renders the outlet attributes the model is given.
func OutletContext(o models.Outlet) string {
	return fmt.Sprintf("Outlet: %s | Channel: %s | Segment: %s | Warehouse: %s",
		orNA(o.Name), orNA(o.Channel), orNA(o.Segment), orNA(o.Warehouse))
}

// SalesCSV renders the trend as a Month,Sales table with whole,
// thousands-separated amounts.
func SalesCSV(points []models.TrendPoint) string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write([]string{"Month", "Sales"})
	for _, p := range points {
		_ = w.Write([]string{p.Month, FormatAmount(p.Amount)})
	}
	w.Flush()
	return b.String()
}

// FormatAmount rounds to a whole number with thousands separators.
func FormatAmount(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

// BuildPrompt assembles the single user message sent to the model.
func BuildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("You are a smart sales data analyst.\n")
	fmt.Fprintf(&b, "Outlet Details: %s\n", req.Context)
	fmt.Fprintf(&b, "Sales Data:\n%s\n", req.SalesCSV)
	fmt.Fprintf(&b, "Question: %s\n", req.Question)
	b.WriteString("Answer in clear, structured format.")
	return b.String()
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
