package logger

import (
	"fmt"
	"log/slog"

	"github.com/pterm/pterm"

	"github.com/vigil-sh/vigil/internal/core/domain"
	"github.com/vigil-sh/vigil/theme"
)

// StyledLogger wraps slog.Logger with Theme-aware formatting
type StyledLogger struct {
	logger *slog.Logger
	Theme  *theme.Theme
}

func NewStyledLogger(logger *slog.Logger, appTheme *theme.Theme) *StyledLogger {
	if appTheme == nil {
		appTheme = theme.Default()
	}
	return &StyledLogger{
		logger: logger,
		Theme:  appTheme,
	}
}

func (sl *StyledLogger) Debug(msg string, args ...any) {
	sl.logger.Debug(msg, args...)
}

func (sl *StyledLogger) Info(msg string, args ...any) {
	sl.logger.Info(msg, args...)
}

func (sl *StyledLogger) Warn(msg string, args ...any) {
	sl.logger.Warn(msg, args...)
}

func (sl *StyledLogger) Error(msg string, args ...any) {
	sl.logger.Error(msg, args...)
}

func (sl *StyledLogger) InfoWithTarget(msg string, target string, args ...any) {
	styledMsg := fmt.Sprintf("%s %s", msg, pterm.Style{sl.Theme.Target}.Sprint(target))
	sl.logger.Info(styledMsg, args...)
}

func (sl *StyledLogger) WarnWithTarget(msg string, target string, args ...any) {
	styledMsg := fmt.Sprintf("%s %s", msg, pterm.Style{sl.Theme.Target}.Sprint(target))
	sl.logger.Warn(styledMsg, args...)
}

func (sl *StyledLogger) ErrorWithTarget(msg string, target string, args ...any) {
	styledMsg := fmt.Sprintf("%s %s", msg, pterm.Style{sl.Theme.Target}.Sprint(target))
	sl.logger.Error(styledMsg, args...)
}

func (sl *StyledLogger) InfoWithCount(msg string, count int, args ...any) {
	styledMsg := fmt.Sprintf("%s %s", msg, pterm.Style{sl.Theme.Counts}.Sprint("(", count, ")"))
	sl.logger.Info(styledMsg, args...)
}

// InfoHealthStatus renders "<msg> <target> is UP/DOWN" with status colouring.
func (sl *StyledLogger) InfoHealthStatus(msg string, target string, status domain.HealthStatus, args ...any) {
	var statusColor pterm.Color

	switch status {
	case domain.StatusUp:
		statusColor = sl.Theme.HealthUp
	case domain.StatusDown:
		statusColor = sl.Theme.HealthDown
	default:
		statusColor = sl.Theme.HealthUnknown
	}
	styledMsg := fmt.Sprintf("%s %s is %s", msg,
		pterm.Style{sl.Theme.Target}.Sprint(target),
		pterm.Style{statusColor}.Sprint(status.String()))
	sl.logger.Info(styledMsg, args...)
}

func (sl *StyledLogger) GetUnderlying() *slog.Logger {
	return sl.logger
}

func (sl *StyledLogger) With(args ...any) *StyledLogger {
	return &StyledLogger{
		logger: sl.logger.With(args...),
		Theme:  sl.Theme,
	}
}
