package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"outlet-dashboard/internal/llm"
	"outlet-dashboard/internal/models"
	"outlet-dashboard/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testSettings() Settings {
	return Settings{AsOf: func() models.Month { return models.Month{Year: 2025, Month: 6} }}
}

func createTestDashboard() *services.Dashboard {
	d := services.NewDashboard(services.Options{ChartCategory: "LRB", Logger: testLogger()})
	d.SetWorkbook(&models.Workbook{Sheets: []*models.Sheet{
		{
			Name:    "LRB",
			Columns: []string{models.ColOutletID, models.ColOutletName, "2024-06", "2025-06"},
			Months:  []string{"2024-06", "2025-06"},
			Outlets: []models.Outlet{{
				ID:      "1001",
				Name:    "Store A",
				Channel: "Modern Trade",
				Sales:   map[string]float64{"2024-06": 100, "2025-06": 150},
			}},
		},
	}})
	return d
}

// fakeSummarizer records requests and returns a canned answer or error.
type fakeSummarizer struct {
	mu       sync.Mutex
	answer   string
	err      error
	requests []llm.Request
}

func (f *fakeSummarizer) Summarize(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

var errUpstream = fmt.Errorf("upstream timeout")
