package httpapi

import (
	"html/template"
	"net/http"
	"time"

	"github.com/fomalhaut/cclogs/internal/store"
)

// TemplateRenderer renders the HTML views. It is an external collaborator:
// a real deployment is expected to supply a richer implementation (themed
// layout, static assets); DefaultRenderer is a minimal stand-in so the HTML
// routes are functional without one.
type TemplateRenderer interface {
	RenderDay(w http.ResponseWriter, date time.Time, rows []store.MessageRow) error
	RenderSearch(w http.ResponseWriter, rawQuery string, rows []store.MessageRow) error
	RenderError(w http.ResponseWriter, status int, message string) error
}

// DefaultRenderer is a bare-bones html/template implementation, used when no
// richer TemplateRenderer is configured.
type DefaultRenderer struct {
	day    *template.Template
	search *template.Template
	errTpl *template.Template
}

// NewDefaultRenderer parses the built-in templates.
func NewDefaultRenderer() *DefaultRenderer {
	return &DefaultRenderer{
		day:    template.Must(template.New("day").Parse(dayTemplateSource)),
		search: template.Must(template.New("search").Parse(searchTemplateSource)),
		errTpl: template.Must(template.New("error").Parse(errorTemplateSource)),
	}
}

type dayView struct {
	Date string
	Rows []store.MessageRow
}

func (d *DefaultRenderer) RenderDay(w http.ResponseWriter, date time.Time, rows []store.MessageRow) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return d.day.Execute(w, dayView{Date: date.Format("2006-01-02"), Rows: rows})
}

type searchView struct {
	Query string
	Rows  []store.MessageRow
}

func (d *DefaultRenderer) RenderSearch(w http.ResponseWriter, rawQuery string, rows []store.MessageRow) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return d.search.Execute(w, searchView{Query: rawQuery, Rows: rows})
}

type errorView struct {
	Status  int
	Message string
}

// RenderError renders the error template rather than a bare status code,
// per the HTML error-handling policy.
func (d *DefaultRenderer) RenderError(w http.ResponseWriter, status int, message string) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	return d.errTpl.Execute(w, errorView{Status: status, Message: message})
}

const dayTemplateSource = `<!DOCTYPE html>
<html><head><title>{{.Date}}</title></head><body>
<h1>{{.Date}}</h1>
<ul>
{{range .Rows}}<li><code>[{{.Timestamp.Format "15:04:05"}}]</code> <b>{{.Author}}</b> {{.Body}}</li>
{{end}}
</ul>
</body></html>`

const searchTemplateSource = `<!DOCTYPE html>
<html><head><title>search: {{.Query}}</title></head><body>
<h1>search: {{.Query}}</h1>
<ul>
{{range .Rows}}<li><code>[{{.Timestamp.Format "2006-01-02 15:04:05"}}]</code> <b>{{.Author}}</b> {{.Body}}</li>
{{end}}
</ul>
</body></html>`

const errorTemplateSource = `<!DOCTYPE html>
<html><head><title>error {{.Status}}</title></head><body>
<h1>{{.Status}}</h1>
<p>{{.Message}}</p>
</body></html>`
