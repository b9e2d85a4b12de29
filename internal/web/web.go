// Package web serves the login and dashboard pages.
package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/rs/zerolog"

	"scribeai/internal/auth"
	"scribeai/internal/logger"
	"scribeai/pkg/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type pageData struct {
	Title       string
	User        *models.User
	MaxUploadMB int64
}

// Sessions resolves the session of a page request.
type Sessions func(r *http.Request) *auth.Session

// Pages renders the HTML pages.
type Pages struct {
	sessions    Sessions
	maxUploadMB int64
	log         zerolog.Logger
}

// NewPages builds the page handler. sessions may be nil, in which case pages
// render without a user.
func NewPages(sessions Sessions, maxUploadBytes int64) *Pages {
	return &Pages{
		sessions:    sessions,
		maxUploadMB: maxUploadBytes / (1024 * 1024),
		log:         logger.WithComponent("web"),
	}
}

// ServeHTTP routes page requests.
func (p *Pages) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	switch r.URL.Path {
	case "/":
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	case "/login":
		p.render(w, "login.html", pageData{Title: "Sign in"})
	case "/dashboard":
		data := pageData{Title: "Dashboard", MaxUploadMB: p.maxUploadMB}
		if p.sessions != nil {
			data.User = p.sessions(r).User
		}
		p.render(w, "dashboard.html", data)
	default:
		http.NotFound(w, r)
	}
}

func (p *Pages) render(w http.ResponseWriter, name string, data pageData) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		p.log.Error().Err(err).Str("template", name).Msg("Failed to render page")
		http.Error(w, "An unexpected error occurred", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
