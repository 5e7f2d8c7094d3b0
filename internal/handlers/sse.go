package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"outlet-dashboard/internal/errors"
	"outlet-dashboard/internal/llm"
	"outlet-dashboard/internal/services"
	"outlet-dashboard/internal/ui"
)

const maxTranscriptEntries = 20

// signals mirrors the page's datastar signal store.
type signals struct {
	Query    string `json:"query"`
	Question string `json:"question"`
	Month    string `json:"month"`
}

type SSEHandlers struct {
	dashboard  *services.Dashboard
	assistant  *services.Assistant
	transcript *Transcript
	settings   Settings
	logger     *slog.Logger
}

func NewSSEHandlers(dashboard *services.Dashboard, summarizer llm.Summarizer, transcript *Transcript, settings Settings, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		dashboard:  dashboard,
		assistant:  services.NewAssistant(dashboard, summarizer, settings.AskTimeout),
		transcript: transcript,
		settings:   settings,
		logger:     logger,
	}
}

func (h *SSEHandlers) patch(sse *datastar.ServerSentEventGenerator, r *http.Request, c templ.Component) {
	html, err := ui.Render(r.Context(), c)
	if err != nil {
		h.logger.Error("render fragment", "error", err)
		return
	}
	if err := sse.PatchElements(html); err != nil {
		h.logger.Warn("patch elements", "error", err)
	}
}

func (h *SSEHandlers) status(sse *datastar.ServerSentEventGenerator, r *http.Request, kind, message string) {
	h.patch(sse, r, ui.Notice(ui.StatusContentID, kind, message))
}

// HandleSearch resolves the query signal and patches the outlet panel and
// category table. A load failure replaces the status line and nothing else.
func (h *SSEHandlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var s signals
	if err := datastar.ReadSignals(r, &s); err != nil {
		errors.WriteError(w, h.logger, errors.BadRequest("invalid signals"), "")
		return
	}

	sse := datastar.NewSSE(w, r)

	asOf, err := h.settings.month(s.Month)
	if err != nil {
		h.status(sse, r, "error", errors.UserMessage(err))
		return
	}

	report, err := h.dashboard.Report(r.Context(), s.Query, asOf)
	if err != nil {
		h.status(sse, r, "error", errors.UserMessage(err))
		return
	}

	h.status(sse, r, "info", "Data as of "+report.Month)
	h.patch(sse, r, ui.OutletPanel(report))
	h.patch(sse, r, ui.SummaryTable(report.Month, report.Summaries))

	state, err := json.Marshal(map[string]any{
		"found":    report.Found,
		"category": report.Category,
		"month":    report.Month,
	})
	if err != nil {
		h.logger.Error("marshal search signals", "error", err)
		return
	}
	if err := sse.PatchSignals(state); err != nil {
		h.logger.Warn("patch signals", "error", err)
	}
}

// HandleAsk sends the question to the summarizer and appends the exchange,
// answer or error, to the transcript. The outlet panel is left untouched.
func (h *SSEHandlers) HandleAsk(w http.ResponseWriter, r *http.Request) {
	var s signals
	if err := datastar.ReadSignals(r, &s); err != nil {
		errors.WriteError(w, h.logger, errors.BadRequest("invalid signals"), "")
		return
	}

	sse := datastar.NewSSE(w, r)

	entry := ui.Exchange{Query: s.Query, Question: s.Question}
	asOf, err := h.settings.month(s.Month)
	if err == nil {
		entry.Answer, err = h.assistant.Ask(r.Context(), s.Query, s.Question, asOf)
	}
	if err != nil {
		h.logger.Warn("ask failed", "query", s.Query, "error_code", errors.CodeOf(err), "error", err)
		entry.Error = errors.UserMessage(err)
	}

	h.transcript.Append(entry)
	h.patch(sse, r, ui.Transcript(h.transcript.Last(maxTranscriptEntries)))

	if err := sse.PatchSignals([]byte(`{"question":""}`)); err != nil {
		h.logger.Warn("patch signals", "error", err)
	}
}

// HandleReload re-reads the workbook on explicit request.
func (h *SSEHandlers) HandleReload(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	if err := h.dashboard.Reload(r.Context()); err != nil {
		h.status(sse, r, "error", errors.UserMessage(err))
		return
	}

	h.status(sse, r, "info", "Workbook reloaded")
}
