package health

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vigil-sh/vigil/internal/core/domain"
)

func TestEvaluate(t *testing.T) {
	pattern := regexp.MustCompile("Arista")

	tests := []struct {
		name    string
		outcome domain.CheckOutcome
		want    domain.ProbeVerdict
	}{
		{
			name:    "matching body passes",
			outcome: domain.CheckOutcome{Kind: domain.OutcomeSuccess, Body: "Arista eAPI explorer", StatusCode: 200},
			want:    domain.VerdictPass,
		},
		{
			name:    "match anywhere in body",
			outcome: domain.CheckOutcome{Kind: domain.OutcomeSuccess, Body: "<html>\n...powered by Arista...\n</html>", StatusCode: 200},
			want:    domain.VerdictPass,
		},
		{
			name:    "error status with matching body still passes",
			outcome: domain.CheckOutcome{Kind: domain.OutcomeSuccess, Body: "Arista maintenance page", StatusCode: 503},
			want:    domain.VerdictPass,
		},
		{
			name:    "non-matching body fails",
			outcome: domain.CheckOutcome{Kind: domain.OutcomeSuccess, Body: "nginx default page", StatusCode: 200},
			want:    domain.VerdictFail,
		},
		{
			name:    "empty body fails",
			outcome: domain.CheckOutcome{Kind: domain.OutcomeSuccess, Body: "", StatusCode: 200},
			want:    domain.VerdictFail,
		},
		{
			name:    "timeout fails",
			outcome: domain.CheckOutcome{Kind: domain.OutcomeTimeout, Err: errors.New("deadline exceeded")},
			want:    domain.VerdictFail,
		},
		{
			name:    "connection error fails",
			outcome: domain.CheckOutcome{Kind: domain.OutcomeConnectionError, Err: errors.New("connection refused")},
			want:    domain.VerdictFail,
		},
		{
			name:    "http transport error fails",
			outcome: domain.CheckOutcome{Kind: domain.OutcomeHTTPError, Err: errors.New("malformed response")},
			want:    domain.VerdictFail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.outcome, pattern))
		})
	}
}

func TestEvaluate_EmptyPatternMatchesNonEmptyBody(t *testing.T) {
	// An empty pattern matches everything except an empty body, which always
	// fails first.
	pattern := regexp.MustCompile("")

	pass := domain.CheckOutcome{Kind: domain.OutcomeSuccess, Body: "anything"}
	assert.Equal(t, domain.VerdictPass, Evaluate(pass, pattern))

	empty := domain.CheckOutcome{Kind: domain.OutcomeSuccess, Body: ""}
	assert.Equal(t, domain.VerdictFail, Evaluate(empty, pattern))
}
