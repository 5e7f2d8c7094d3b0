package handlers

import (
	"net/url"
	"strings"
	"sync"
	"time"

	"outlet-dashboard/internal/errors"
	"outlet-dashboard/internal/models"
	"outlet-dashboard/internal/ui"
)

// Settings are the request defaults shared by the API and SSE handlers.
type Settings struct {
	// AsOf supplies the reporting month when a request names none.
	AsOf func() models.Month
	// AskTimeout bounds each summarization call.
	AskTimeout time.Duration
}

func (s Settings) month(raw string) (models.Month, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if s.AsOf != nil {
			return s.AsOf(), nil
		}
		now := time.Now()
		return models.Month{Year: now.Year(), Month: int(now.Month())}, nil
	}
	m, err := models.ParseMonth(raw)
	if err != nil {
		return models.Month{}, errors.BadRequest("month must be YYYY-MM")
	}
	return m, nil
}

// monthFromQuery reads the optional month parameter.
func (s Settings) monthFromQuery(values url.Values) (models.Month, error) {
	return s.month(values.Get("month"))
}

// Transcript is the append-only chat log shown under the ask form.
type Transcript struct {
	mu      sync.RWMutex
	entries []ui.Exchange
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

func (t *Transcript) Append(e ui.Exchange) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, e)
}

// Last returns up to n entries, oldest first.
func (t *Transcript) Last(n int) []ui.Exchange {
	t.mu.RLock()
	defer t.mu.RUnlock()

	start := 0
	if n > 0 && len(t.entries) > n {
		start = len(t.entries) - n
	}
	out := make([]ui.Exchange, len(t.entries)-start)
	copy(out, t.entries[start:])
	return out
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
