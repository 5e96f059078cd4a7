package ports

import (
	"context"

	"github.com/vigil-sh/vigil/internal/core/domain"
)

// Prober performs one HTTP(S) request against the target and normalises every
// failure mode into a CheckOutcome. It never returns an error; the outcome is
// the error channel.
type Prober interface {
	Probe(ctx context.Context, target domain.Target) domain.CheckOutcome
}

// CommandSink submits one fully-qualified configuration command to the
// platform's config-apply channel. The sink guarantees configuration-mode
// entry, so callers never send enable/configure preambles.
type CommandSink interface {
	Apply(ctx context.Context, command string) error
}

// StatusReporter mirrors the daemon's externally visible status keys, the way
// the host platform's "show daemon" surface expects them.
type StatusReporter interface {
	Set(key, value string)
	Delete(key string)
	Snapshot() map[string]string
}
