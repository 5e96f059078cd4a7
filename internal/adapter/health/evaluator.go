package health

import (
	"regexp"

	"github.com/vigil-sh/vigil/internal/core/domain"
)

// Evaluate classifies a probe outcome against the configured content pattern.
// Only a transport success whose body matches the pattern passes; an HTTP
// error status with a matching body still passes, because the status code is
// not a health signal for these targets. Pure function, no retained state.
func Evaluate(outcome domain.CheckOutcome, pattern *regexp.Regexp) domain.ProbeVerdict {
	if outcome.Kind != domain.OutcomeSuccess {
		return domain.VerdictFail
	}
	if outcome.Body == "" {
		return domain.VerdictFail
	}
	if pattern.MatchString(outcome.Body) {
		return domain.VerdictPass
	}
	return domain.VerdictFail
}
