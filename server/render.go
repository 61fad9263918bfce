package server

import (
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"beatstore/logger"
)

// viewData carries per-page template data. The renderer adds CurrentUser and
// Flashes before executing.
type viewData map[string]interface{}

// Renderer holds the parsed view templates. Each page is parsed together
// with the shared base layout at startup.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses every page template in dir against base.html.
func NewRenderer(dir string) (*Renderer, error) {
	base := filepath.Join(dir, "base.html")
	if _, err := os.Stat(base); err != nil {
		return nil, fmt.Errorf("missing base template: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read template directory %s: %w", dir, err)
	}

	templates := make(map[string]*template.Template)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == "base.html" || !strings.HasSuffix(name, ".html") {
			continue
		}
		t, err := template.ParseFiles(base, filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		templates[name] = t
	}

	if len(templates) == 0 {
		return nil, fmt.Errorf("no page templates found in %s", dir)
	}
	return &Renderer{templates: templates}, nil
}

// Execute renders the named page template into w.
func (r *Renderer) Execute(w http.ResponseWriter, page string, data viewData) error {
	t, ok := r.templates[page]
	if !ok {
		return fmt.Errorf("unknown template %q", page)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return t.ExecuteTemplate(w, "base", data)
}

// render executes a page with the current user and any pending flash notices
// merged into the view data.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, page string, data viewData) {
	if data == nil {
		data = viewData{}
	}
	data["CurrentUser"] = userFromContext(r.Context())

	flashes, err := h.sessions.Flashes(r.Context(), r)
	if err != nil {
		logger.Warn("Failed to load flash notices", logger.ErrorField(err))
	}
	data["Flashes"] = flashes

	if err := h.renderer.Execute(w, page, data); err != nil {
		logger.Error("Failed to render template", logger.String("page", page), logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// flashAndRedirect queues a notice and redirects, the standard way request
// errors surface to the user.
func (h *Handler) flashAndRedirect(w http.ResponseWriter, r *http.Request, message, url string) {
	if err := h.sessions.Flash(r.Context(), w, r, message); err != nil {
		logger.Warn("Failed to queue flash notice", logger.ErrorField(err))
	}
	http.Redirect(w, r, url, http.StatusFound)
}
