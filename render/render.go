// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/danielhkuo/ku-polls/middleware"
	"github.com/danielhkuo/ku-polls/models"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page names
const (
	PageIndex       = "index.html"
	PageDetail      = "detail.html"
	PageResults     = "results.html"
	PageLogin       = "login.html"
	PageSignup      = "signup.html"
	PageError       = "error.html"
	PageAdminIndex  = "admin_index.html"
	PageAdminForm   = "admin_question_form.html"
	PageAdminDelete = "admin_question_delete.html"
)

var pages = []string{
	PageIndex, PageDetail, PageResults, PageLogin, PageSignup, PageError,
	PageAdminIndex, PageAdminForm, PageAdminDelete,
}

// Page is the value every template executes with
type Page struct {
	User     *models.User
	Messages []models.Message
	Data     any
}

// ErrorData fills the error page
type ErrorData struct {
	Title   string
	Message string
}

type Renderer struct {
	pages   map[string]*template.Template
	flashes *middleware.Flashes
}

// New parses every page together with the base layout.
// Times are displayed in loc.
func New(loc *time.Location, flashes *middleware.Flashes) (*Renderer, error) {
	funcs := Funcs(loc)

	parsed := make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/base.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		parsed[name] = t
	}

	return &Renderer{pages: parsed, flashes: flashes}, nil
}

// Funcs returns the template helpers
func Funcs(loc *time.Location) template.FuncMap {
	if loc == nil {
		loc = time.UTC
	}
	return template.FuncMap{
		"naturaltime": func(t time.Time) string {
			return humanize.Time(t)
		},
		"datetime": func(t time.Time) string {
			return t.In(loc).Format("Jan 2, 2006, 15:04 MST")
		},
		"plural": func(n int, singular string) string {
			return english.Plural(n, singular, "")
		},
		"percent": Percent,
	}
}

// LocalLayout is the datetime-local input format
const LocalLayout = "2006-01-02T15:04"

// FormatLocal formats t for a datetime-local input in loc
func FormatLocal(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(LocalLayout)
}

// Percent returns part as a whole-number share of total
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return part * 100 / total
}

// HTML renders a page with the current user and pending flash messages.
// Output is buffered so a template error still yields a clean 500.
func (rd *Renderer) HTML(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	t, ok := rd.pages[name]
	if !ok {
		slog.Error("unknown template", "name", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	page := Page{Data: data}
	if rd.flashes != nil {
		page.Messages = rd.flashes.Pop(w, r)
	}
	if u, ok := middleware.UserFromContext(r.Context()); ok {
		page.User = u
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", &page); err != nil {
		slog.Error("failed to render template", "name", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// Error renders the error page with the status text as title
func (rd *Renderer) Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	rd.HTML(w, r, status, PageError, ErrorData{
		Title:   http.StatusText(status),
		Message: message,
	})
}

// NotFound renders a 404 page
func (rd *Renderer) NotFound(w http.ResponseWriter, r *http.Request) {
	rd.Error(w, r, http.StatusNotFound, "")
}

// Forbidden renders a 403 page
func (rd *Renderer) Forbidden(w http.ResponseWriter, r *http.Request) {
	rd.Error(w, r, http.StatusForbidden, "You don't have permission to view this page.")
}

// ServerError logs err and renders a 500 page
func (rd *Renderer) ServerError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	rd.Error(w, r, http.StatusInternalServerError, "")
}

// Static serves the embedded stylesheet under /static/
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServerFS(sub))
}
