package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"outlet-dashboard/internal/errors"
	"outlet-dashboard/internal/llm"
	"outlet-dashboard/internal/observability"
	"outlet-dashboard/internal/services"
)

type APIHandlers struct {
	dashboard *services.Dashboard
	assistant *services.Assistant
	settings  Settings
	logger    *slog.Logger
}

func NewAPIHandlers(dashboard *services.Dashboard, summarizer llm.Summarizer, settings Settings, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		dashboard: dashboard,
		assistant: services.NewAssistant(dashboard, summarizer, settings.AskTimeout),
		settings:  settings,
		logger:    logger,
	}
}

// HandleReport answers GET /api/report?q=&month=. An unmatched query is a
// successful response with found=false so the category summaries survive.
func (h *APIHandlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	asOf, err := h.settings.monthFromQuery(r.URL.Query())
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	report, err := h.dashboard.Report(r.Context(), r.URL.Query().Get("q"), asOf)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	errors.WriteSuccess(w, report)
}

func (h *APIHandlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	asOf, err := h.settings.monthFromQuery(r.URL.Query())
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	summaries, err := h.dashboard.Summaries(r.Context(), asOf)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	errors.WriteSuccess(w, summaries)
}

type askRequest struct {
	Query    string `json:"query"`
	Question string `json:"question"`
	Month    string `json:"month"`
}

type askResponse struct {
	Query    string `json:"query"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (h *APIHandlers) HandleAsk(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	var req askRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		errors.WriteError(w, h.logger, errors.BadRequest("invalid JSON body"), requestID)
		return
	}

	asOf, err := h.settings.month(req.Month)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	answer, err := h.assistant.Ask(r.Context(), req.Query, req.Question, asOf)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	errors.WriteSuccess(w, askResponse{Query: req.Query, Question: req.Question, Answer: answer})
}

func (h *APIHandlers) HandleReload(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	if err := h.dashboard.Reload(r.Context()); err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	errors.WriteSuccess(w, h.dashboard.Stats())
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if h.dashboard.Workbook() == nil {
		status = "degraded"
	}

	errors.WriteSuccess(w, map[string]string{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.dashboard.Stats())
}
