package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/cinex/internal/formatter"
	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/services"
	"github.com/desertthunder/cinex/internal/shared"
)

var playerPage = template.Must(template.New("player").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>{{.Title}} · cinex</title>
    <style>
        body { margin: 0; background: #0b0b0f; color: #e5e5e5;
               font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; }
        header { padding: 1rem 2rem; }
        h1 { margin: 0; font-size: 1.5rem; }
        p { color: #9a9a9a; margin: 0.25rem 0 0 0; }
        .player { position: relative; width: 100%; padding-top: 56.25%; }
        .player iframe { position: absolute; inset: 0; width: 100%; height: 100%; border: 0; }
    </style>
</head>
<body>
    <header>
        <h1>{{.Title}}</h1>
        {{if .Subtitle}}<p>{{.Subtitle}}</p>{{end}}
    </header>
    <div class="player">
        <iframe src="{{.EmbedURL}}" allowfullscreen referrerpolicy="origin"></iframe>
    </div>
</body>
</html>
`))

type playerData struct {
	Title    string
	Subtitle string
	EmbedURL string
}

// PlayerHandler serves GET /watch/{movie|tv}/{id}, a page embedding the configured video player,
// and GET /healthz.
type PlayerHandler struct {
	embedBaseURL string
	metadata     services.MetadataProvider
	logger       *log.Logger
}

// NewPlayerHandler creates a [PlayerHandler]. metadata is optional and only used for the page title.
func NewPlayerHandler(embedBaseURL string, metadata services.MetadataProvider, logger *log.Logger) *PlayerHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &PlayerHandler{
		embedBaseURL: strings.TrimRight(embedBaseURL, "/"),
		metadata:     metadata,
		logger:       shared.WithLogger(logger, "handler", "player"),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *PlayerHandler) Routes() []string {
	return []string{"GET /watch/{kind}/{id}", "GET /healthz"}
}

// EmbedURL returns the third-party player URL for kind/id.
func (h *PlayerHandler) EmbedURL(kind models.Kind, id int) string {
	return fmt.Sprintf("%s/%s/%d", h.embedBaseURL, kind, id)
}

func (h *PlayerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/healthz" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, "ok")
		return
	}

	kind, id, err := parseWatchPath(r.URL.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	data := playerData{Title: fmt.Sprintf("%s %d", kind, id), EmbedURL: h.EmbedURL(kind, id)}
	if h.metadata != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		content, err := h.metadata.Details(ctx, kind, id)
		cancel()
		if err != nil {
			h.logger.Warn("failed to load title for player", "kind", kind, "id", id, "error", err)
		} else {
			data.Title = formatter.Title(content)
			data.Subtitle = formatter.Subtitle(content)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := playerPage.Execute(w, data); err != nil {
		h.logger.Error("failed to render player", "error", err)
	}
}

// parseWatchPath extracts kind and id from /watch/{kind}/{id}.
func parseWatchPath(path string) (models.Kind, int, error) {
	rest, ok := strings.CutPrefix(path, "/watch/")
	if !ok {
		return "", 0, fmt.Errorf("%w: %s", shared.ErrContentNotFound, path)
	}

	kindPart, idPart, ok := strings.Cut(strings.Trim(rest, "/"), "/")
	if !ok {
		return "", 0, fmt.Errorf("%w: %s", shared.ErrContentNotFound, path)
	}

	kind := models.Kind(kindPart)
	if !kind.Valid() {
		return "", 0, fmt.Errorf("%w: %q", shared.ErrInvalidKind, kindPart)
	}

	id, err := strconv.Atoi(idPart)
	if err != nil || id <= 0 {
		return "", 0, fmt.Errorf("%w: id %q", shared.ErrInvalidArgument, idPart)
	}
	return kind, id, nil
}

// NewPlayerRouter wires a [PlayerHandler] behind the recover and logging middleware.
func NewPlayerRouter(handler *PlayerHandler, logger *log.Logger) *BasicRouter {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	router := NewBasicRouter()
	router.Use(RecoverMiddleware(logger), LoggingMiddleware(logger))
	router.Handler(handler)
	return router
}
