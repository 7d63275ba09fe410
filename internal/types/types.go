package types

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Response represents a JSON API response
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HealthResponse is the /healthz body
type HealthResponse struct {
	Response
	LiveReload bool `json:"liveReload"`
}

// WSMessage represents a message pushed to live-reload clients
type WSMessage struct {
	Type    string   `json:"type"` // "hello" or "reload"
	Message string   `json:"message,omitempty"`
	Changed []string `json:"changed,omitempty"`
}

// WSClient represents a WebSocket client connection
type WSClient struct {
	Conn *websocket.Conn
	Mu   sync.Mutex
}

// ManifestEntry describes one deployed file
type ManifestEntry struct {
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}

// Manifest lists every deployed file, sorted by path
type Manifest []ManifestEntry

// Equal reports whether two manifests describe the same deployment
func (m Manifest) Equal(other Manifest) bool {
	if len(m) != len(other) {
		return false
	}
	for i, e := range m {
		o := other[i]
		if e.Path != o.Path || e.Size != o.Size || !e.ModTime.Equal(o.ModTime) {
			return false
		}
	}
	return true
}

// Diff returns the paths added, removed or modified between m and next
func (m Manifest) Diff(next Manifest) []string {
	prev := make(map[string]ManifestEntry, len(m))
	for _, e := range m {
		prev[e.Path] = e
	}

	var changed []string
	for _, e := range next {
		old, ok := prev[e.Path]
		if !ok || old.Size != e.Size || !old.ModTime.Equal(e.ModTime) {
			changed = append(changed, e.Path)
		}
		delete(prev, e.Path)
	}
	for _, e := range m {
		if _, gone := prev[e.Path]; gone {
			changed = append(changed, e.Path)
		}
	}
	return changed
}
