package domain

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	StatusStringUp      = "UP"
	StatusStringDown    = "DOWN"
	StatusStringUnknown = "Unknown"
)

// HealthStatus is the monitored target's health as seen by the watchdog.
type HealthStatus string

const (
	StatusUp      HealthStatus = StatusStringUp
	StatusDown    HealthStatus = StatusStringDown
	StatusUnknown HealthStatus = StatusStringUnknown
)

func (s HealthStatus) String() string {
	return string(s)
}

// ProbeVerdict classifies a single probe cycle.
type ProbeVerdict int

const (
	VerdictFail ProbeVerdict = iota
	VerdictPass
)

func (v ProbeVerdict) String() string {
	if v == VerdictPass {
		return "PASS"
	}
	return "FAIL"
}

// OutcomeKind distinguishes the ways a probe can end.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeTimeout
	OutcomeConnectionError
	OutcomeHTTPError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeConnectionError:
		return "connection_error"
	case OutcomeHTTPError:
		return "http_error"
	default:
		return "unknown"
	}
}

// CheckOutcome is the normalised result of one probe. Transport failures never
// escape the prober as errors; they arrive here as a non-success Kind.
type CheckOutcome struct {
	Err        error
	Body       string
	Kind       OutcomeKind
	StatusCode int
	Latency    time.Duration
}

// TransitionEvent fires when the target's health status changes.
type TransitionEvent int

const (
	TransitionNone TransitionEvent = iota
	TransitionDown
	TransitionUp
)

func (e TransitionEvent) String() string {
	switch e {
	case TransitionDown:
		return "down"
	case TransitionUp:
		return "up"
	default:
		return "none"
	}
}

// HealthState is the watchdog's bookkeeping for the single monitored target.
// It is owned by the monitor goroutine; nothing else mutates it.
type HealthState struct {
	Status              HealthStatus
	ConsecutiveFailures int
	LastVerdict         ProbeVerdict
	LastChecked         time.Time
}

// NewHealthState returns the initial state: the target is assumed up with a
// clean failure counter until probes say otherwise.
func NewHealthState() HealthState {
	return HealthState{
		Status:              StatusUp,
		ConsecutiveFailures: 0,
		LastVerdict:         VerdictPass,
	}
}

// Target is the immutable description of the endpoint a prober hits,
// snapshotted from configuration for the lifetime of a monitor cycle.
type Target struct {
	Protocol string
	Address  string
	Port     int
	Path     string
	Username string
	Password string
	VRF      string
	Timeout  time.Duration
}

// URL assembles the probe URL. The path always carries a leading slash so
// operators can configure either "explorer.html" or "/explorer.html".
func (t Target) URL() string {
	path := t.Path
	if path == "" {
		path = "/"
	} else if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := url.URL{
		Scheme: t.Protocol,
		Host:   t.Address + ":" + strconv.Itoa(t.Port),
		Path:   path,
	}
	return u.String()
}

// String is the loggable form, credentials omitted.
func (t Target) String() string {
	if t.VRF != "" {
		return fmt.Sprintf("%s (vrf %s)", t.URL(), t.VRF)
	}
	return t.URL()
}
