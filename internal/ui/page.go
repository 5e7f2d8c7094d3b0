package ui

import (
	"context"
	"encoding/json"
	"html/template"
	"io"

	"github.com/a-h/templ"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

var page = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Sales AI Agent</title>
<script type="module" src="{{.Script}}"></script>
<style>
body{font-family:system-ui,sans-serif;margin:2rem;max-width:1100px}
.modern-table{border-collapse:collapse;width:100%;margin:.5rem 0}
.modern-table th,.modern-table td{border-bottom:1px solid #ddd;padding:.3rem .6rem;text-align:left}
.unrecorded td{color:#999}
.notice{padding:.5rem;margin:.5rem 0;border-radius:4px}
.notice-warning{background:#fff4e5}.notice-error{background:#fdecea}.notice-info{background:#e8f4fd}
.outlet-attrs{display:grid;grid-template-columns:max-content auto;gap:.2rem 1rem}
.trend-chart{width:100%;max-height:220px}
</style>
</head>
<body data-signals="{{.Signals}}">
<h2>Sales AI Agent Chat</h2>
<p>Enter Outlet ID or Name</p>
<form data-on:submit__prevent="@get('/sse/search')">
<input type="text" data-bind:query placeholder="Outlet ID or Name">
<input type="month" data-bind:month>
<button type="submit">Search</button>
<button type="button" data-on:click="@post('/sse/reload')">Reload data</button>
</form>
<div id="{{.StatusID}}"></div>
<div id="{{.OutletID}}"></div>
<div id="{{.SummaryID}}"></div>
<form data-on:submit__prevent="@post('/sse/ask')">
<input type="text" data-bind:question placeholder="Ask a question about this outlet">
<button type="submit">Get AI Answer</button>
</form>
<div id="{{.AnswerID}}"></div>
</body>
</html>`))

// Dashboard is the full page. Search and ask are wired to the SSE endpoints
// through datastar signals: query, month and question.
func Dashboard(month string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		signals, err := json.Marshal(map[string]string{"query": "", "question": "", "month": month})
		if err != nil {
			return err
		}
		return page.Execute(w, struct {
			Script    string
			Signals   string
			StatusID  string
			OutletID  string
			SummaryID string
			AnswerID  string
		}{datastarScript, string(signals), StatusContentID, OutletContentID, SummaryContentID, AnswerContentID})
	})
}
