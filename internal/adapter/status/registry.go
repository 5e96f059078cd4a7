package status

import (
	"github.com/puzpuzpuz/xsync/v4"
)

// Registry is the in-memory status surface: the daemon mirrors its
// externally visible keys here ("Status", "HealthStatus", the active option
// snapshot) the way the host platform's show-daemon output expects them.
// Written by the monitor goroutine, read concurrently by the status endpoint.
type Registry struct {
	entries *xsync.Map[string, string]
}

func NewRegistry() *Registry {
	return &Registry{
		entries: xsync.NewMap[string, string](),
	}
}

func (r *Registry) Set(key, value string) {
	r.entries.Store(key, value)
}

func (r *Registry) Delete(key string) {
	r.entries.Delete(key)
}

// Snapshot copies the current status keys.
func (r *Registry) Snapshot() map[string]string {
	snapshot := make(map[string]string)
	r.entries.Range(func(key, value string) bool {
		snapshot[key] = value
		return true
	})
	return snapshot
}
