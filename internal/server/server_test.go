package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"outlet-dashboard/internal/config"
	"outlet-dashboard/internal/handlers"
	"outlet-dashboard/internal/llm"
	"outlet-dashboard/internal/models"
	"outlet-dashboard/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer() *Server {
	d := services.NewDashboard(services.Options{ChartCategory: "LRB", Logger: testLogger()})
	d.SetWorkbook(&models.Workbook{Sheets: []*models.Sheet{{
		Name:    "LRB",
		Columns: []string{models.ColOutletID, models.ColOutletName, "2024-06", "2025-06"},
		Months:  []string{"2024-06", "2025-06"},
		Outlets: []models.Outlet{{ID: "1001", Name: "Store A", Sales: map[string]float64{"2024-06": 100, "2025-06": 150}}},
	}}})
	settings := handlers.Settings{AsOf: func() models.Month { return models.Month{Year: 2025, Month: 6} }}
	return NewServer(d, llm.Disabled{}, settings, testLogger())
}

func TestServer_Routes(t *testing.T) {
	srv := newTestServer()

	tests := []struct {
		method         string
		path           string
		expectedStatus int
		contentType    string
	}{
		{http.MethodGet, "/", http.StatusOK, "text/html"},
		{http.MethodGet, "/health", http.StatusOK, "application/json"},
		{http.MethodGet, "/admin/stats", http.StatusOK, "application/json"},
		{http.MethodGet, "/api/report?q=1001", http.StatusOK, "application/json"},
		{http.MethodGet, "/api/categories", http.StatusOK, "application/json"},
		{http.MethodGet, "/api/report?q=1001&month=bad", http.StatusBadRequest, "application/json"},
		{http.MethodGet, "/nope", http.StatusNotFound, "text/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.expectedStatus)
			}
			if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, tt.contentType) {
				t.Errorf("content-type = %q, want %q", ct, tt.contentType)
			}
			if tt.contentType == "application/json" {
				var result any
				if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
					t.Errorf("invalid json: %v", err)
				}
			}
		})
	}
}

func TestServer_AskRequiresPost(t *testing.T) {
	srv := newTestServer()

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ask", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

func TestServer_SSESearch(t *testing.T) {
	srv := newTestServer()

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, `/sse/search?datastar=%7B%22query%22%3A%221001%22%7D`, nil))

	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("content-type = %q, want text/event-stream", ct)
	}
	if !strings.Contains(w.Body.String(), "Store A") {
		t.Error("search should stream the outlet panel")
	}
}

func TestGracefulServer_Serve(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	gs := NewGracefulServer(&http.Server{Handler: http.NotFoundHandler()}, testLogger(), config.ServerConfig{ShutdownTimeout: 5 * time.Second})

	var hooks atomic.Int32
	gs.RegisterShutdownHook(func(ctx context.Context) error {
		hooks.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gs.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	if hooks.Load() != 1 {
		t.Errorf("hooks run = %d, want 1", hooks.Load())
	}
}

func TestGracefulServer_HookError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	gs := NewGracefulServer(&http.Server{Handler: http.NotFoundHandler()}, testLogger(), config.ServerConfig{ShutdownTimeout: 5 * time.Second})
	boom := errors.New("boom")
	gs.RegisterShutdownHook(func(ctx context.Context) error { return boom })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := gs.Serve(ctx, ln); !errors.Is(err, boom) {
		t.Errorf("Serve error = %v, want %v", err, boom)
	}
}
