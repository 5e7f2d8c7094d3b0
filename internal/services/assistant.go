package services

import (
	"context"
	"strings"
	"time"

	"outlet-dashboard/internal/errors"
	"outlet-dashboard/internal/llm"
	"outlet-dashboard/internal/models"
)

const defaultAskTimeout = 30 * time.Second

// Assistant runs the question flow: resolve the outlet, then hand its
// context and trend to the summarizer under a bounded timeout.
type Assistant struct {
	dashboard  *Dashboard
	summarizer llm.Summarizer
	timeout    time.Duration
}

// NewAssistant returns an Assistant. A non-positive timeout means 30s.
func NewAssistant(dashboard *Dashboard, summarizer llm.Summarizer, timeout time.Duration) *Assistant {
	if timeout <= 0 {
		timeout = defaultAskTimeout
	}
	return &Assistant{dashboard: dashboard, summarizer: summarizer, timeout: timeout}
}

// Ask answers question about the first outlet query resolves to. Errors are
// BAD_REQUEST for an empty question, NOT_FOUND for an unmatched query and
// EXTERNAL_SERVICE for any summarizer failure.
func (a *Assistant) Ask(ctx context.Context, query, question string, asOf models.Month) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", errors.BadRequest("Ask a question about this outlet.")
	}

	report, err := a.dashboard.Report(ctx, query, asOf)
	if err != nil {
		return "", err
	}
	if !report.Found {
		return "", errors.NotFound(report.Message)
	}

	outlet := report.Outlets[0]
	req := llm.Request{
		Context:  llm.OutletContext(outlet.Outlet),
		SalesCSV: llm.SalesCSV(outlet.Trend),
		Question: question,
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	answer, err := a.summarizer.Summarize(callCtx, req)
	if err != nil {
		return "", errors.ExternalService(err, "OpenAI API Error")
	}
	return answer, nil
}
