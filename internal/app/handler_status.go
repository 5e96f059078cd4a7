package app

import (
	"encoding/json"
	"net/http"

	"github.com/vigil-sh/vigil/internal/version"
)

// statusHandler serves the read-only status surface: administrative state,
// health status, the active option snapshot and probe counters.
func (a *Application) statusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := map[string]any{
		"daemon":  version.Name,
		"version": version.Version,
		"status":  a.registry.Snapshot(),
		"stats":   a.monitor.Stats().Snapshot(),
	}
	_ = json.NewEncoder(w).Encode(response)
}
