package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"smssync-site/internal/site"
	"smssync-site/internal/types"
	"smssync-site/internal/websocket"
)

// Options configures the HTTP surface
type Options struct {
	// CacheMaxAge is the max-age, in seconds, sent with every asset
	CacheMaxAge int
	// Hub serves /ws when set
	Hub *websocket.Hub
}

// NewMux wires the site's routes. Everything but /healthz and /ws goes
// straight to the static handler, which clamps ".." itself; http.ServeMux
// would answer such paths with a redirect instead.
func NewMux(s *site.Site, opts Options) http.Handler {
	static := StaticHandler(s, opts.CacheMaxAge)
	health := HealthHandler(opts.Hub != nil)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/healthz":
			health(w, r)
		case r.URL.Path == "/ws" && opts.Hub != nil:
			opts.Hub.Handler(w, r)
		default:
			static.ServeHTTP(w, r)
		}
	})
}

// StaticHandler serves the document and its assets unmodified
func StaticHandler(s *site.Site, cacheMaxAge int) http.Handler {
	assetCache := fmt.Sprintf("public, max-age=%d", cacheMaxAge)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		content, err := s.Serve(r.URL.Path)
		if err != nil {
			serveError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", content.ContentType)
		w.Header().Set("ETag", content.ETag)
		if content.IsDocument() {
			w.Header().Set("Cache-Control", "no-cache")
		} else {
			w.Header().Set("Cache-Control", assetCache)
		}

		// ServeContent handles HEAD, Range and conditional requests.
		http.ServeContent(w, r, content.Path, content.ModTime, bytes.NewReader(content.Data))
	})
}

// serveError maps site errors onto status codes
func serveError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, site.ErrNotFound):
		logrus.WithFields(logrus.Fields{
			"path":  r.URL.Path,
			"error": err.Error(),
		}).Debug("Path not found")
		http.Error(w, "404 page not found", http.StatusNotFound)
	default:
		logrus.WithFields(logrus.Fields{
			"path":  r.URL.Path,
			"error": err.Error(),
		}).Error("Failed to serve file")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// HealthHandler reports that the process is serving and whether /ws is open
func HealthHandler(liveReload bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(types.HealthResponse{
			Response:   types.Response{Success: true, Message: "ok"},
			LiveReload: liveReload,
		})
	}
}

// sendError sends an error response
func sendError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(types.Response{
		Success: false,
		Message: message,
	})
}
