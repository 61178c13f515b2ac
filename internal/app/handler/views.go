package handler

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// InterstitialDelay is the number of seconds the interstitial page waits
// before following the destination.
const InterstitialDelay = 5

// Views renders the HTML pages.
type Views struct {
	tmpl   *template.Template
	logger *zap.Logger
}

func NewViews(logger *zap.Logger) *Views {
	return &Views{
		tmpl:   template.Must(template.ParseFS(templateFS, "templates/*.html")),
		logger: logger,
	}
}

// Render executes the named page into a buffer first, so a template error
// never leaves a half-written response behind.
func (v *Views) Render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := v.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		v.logger.Error("cannot render page", zap.String("page", name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
