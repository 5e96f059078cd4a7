package remediate

import (
	"context"
	"fmt"

	"github.com/vigil-sh/vigil/internal/core/domain"
	"github.com/vigil-sh/vigil/internal/core/ports"
	"github.com/vigil-sh/vigil/internal/logger"
)

// CommandRemediator applies the snippet command list for a transition, one
// command at a time, in file order. The first sink error aborts the rest of
// the list; there is no retry and no rollback of already-applied commands.
type CommandRemediator struct {
	sink     ports.CommandSink
	snippets *SnippetStore
	logger   *logger.StyledLogger
}

func NewCommandRemediator(sink ports.CommandSink, snippets *SnippetStore, log *logger.StyledLogger) *CommandRemediator {
	return &CommandRemediator{
		sink:     sink,
		snippets: snippets,
		logger:   log,
	}
}

// ApplyTransition runs the fail list on a down-transition and the recover
// list on an up-transition.
func (r *CommandRemediator) ApplyTransition(ctx context.Context, event domain.TransitionEvent) error {
	commands := r.snippets.Commands(event)
	if len(commands) == 0 {
		r.logger.Warn("No remediation commands configured", "phase", "remediate",
			"transition", event.String())
		return nil
	}

	for i, command := range commands {
		if err := r.sink.Apply(ctx, command); err != nil {
			r.logger.Error("Config apply failed, aborting remaining commands",
				"phase", "remediate",
				"transition", event.String(),
				"command", command,
				"applied", i,
				"skipped", len(commands)-i-1,
				"error", err)
			return fmt.Errorf("apply command %d of %d (%q): %w", i+1, len(commands), command, err)
		}
		r.logger.Info("Applied config command", "command", command,
			"transition", event.String())
	}

	r.logger.InfoWithCount("Remediation complete", len(commands),
		"transition", event.String())
	return nil
}
