// Package llm sends outlet context and sales rows to a language model and
// returns its free-text answer. Nothing in the answer is parsed.
package llm

import (
	"context"
	stderrors "errors"
)

// ErrNotConfigured is returned when no API key was supplied.
var ErrNotConfigured = stderrors.New("summarization is not configured: set OPENAI_API_KEY")

// Summarizer answers a question about one outlet.
type Summarizer interface {
	Summarize(ctx context.Context, req Request) (string, error)
}

// Request is everything the model sees for one question.
type Request struct {
	// Context is the one-line outlet description, see OutletContext.
	Context string
	// SalesCSV is the Month,Sales table, see SalesCSV.
	SalesCSV string
	Question string
}

// Config selects and tunes the chat-completions backend.
type Config struct {
	APIKey            string
	Model             string
	BaseURL           string
	Temperature       float64
	RequestsPerMinute int
}

// Disabled stands in when no credential is available.
type Disabled struct{}

func (Disabled) Summarize(context.Context, Request) (string, error) {
	return "", ErrNotConfigured
}

// New returns an OpenAI-backed summarizer, or Disabled when cfg has no key.
func New(cfg Config) Summarizer {
	if cfg.APIKey == "" {
		return Disabled{}
	}
	c, err := newOpenAIClient(cfg)
	if err != nil {
		return Disabled{}
	}
	return c
}
