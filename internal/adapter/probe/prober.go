package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/vigil-sh/vigil/internal/core/domain"
	"github.com/vigil-sh/vigil/internal/logger"
)

const (
	// MaxBodyBytes caps how much of the response body is read for the
	// content match. Probed pages are status/landing pages, not payloads.
	MaxBodyBytes = 1 << 20
)

// HTTPClient interface for better testability
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPProber performs single HTTP(S) probes against the monitored target.
// Every failure mode is normalised into a domain.CheckOutcome; transport
// errors never escape as Go errors.
type HTTPProber struct {
	logger        *logger.StyledLogger
	clientFactory func(vrf string) HTTPClient
	clients       map[string]HTTPClient
	mu            sync.Mutex
}

func NewHTTPProber(log *logger.StyledLogger) *HTTPProber {
	return &HTTPProber{
		logger:        log,
		clientFactory: newVRFClient,
		clients:       make(map[string]HTTPClient),
	}
}

// newVRFClient builds an HTTP client whose sockets are bound to the named
// VRF device; an empty vrf uses the default routing context. Targets are
// probed by address, so certificate verification is disabled.
func newVRFClient(vrf string) HTTPClient {
	dialer := &net.Dialer{
		Timeout: 30 * time.Second,
		Control: vrfControl(vrf),
	}
	return &http.Client{
		Transport: &http.Transport{
			DialContext:     dialer.DialContext,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
		},
	}
}

// clientFor returns the cached client for the routing context, building it on
// first use. Clients are keyed by VRF so a reconfigured VRF picks up a fresh
// transport on the next cycle.
func (p *HTTPProber) clientFor(vrf string) HTTPClient {
	p.mu.Lock()
	defer p.mu.Unlock()

	if client, ok := p.clients[vrf]; ok {
		return client
	}
	client := p.clientFactory(vrf)
	p.clients[vrf] = client
	return client
}

// Probe issues one GET bounded by the target's timeout and classifies the
// result. Any received HTTP response is a Success regardless of status code;
// whether the target is healthy is the evaluator's call, not the transport's.
func (p *HTTPProber) Probe(ctx context.Context, target domain.Target) domain.CheckOutcome {
	start := time.Now()

	probeCtx, cancel := context.WithTimeout(ctx, target.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, target.URL(), nil)
	if err != nil {
		return domain.CheckOutcome{
			Kind:    domain.OutcomeConnectionError,
			Err:     err,
			Latency: time.Since(start),
		}
	}

	if target.Username != "" {
		req.SetBasicAuth(target.Username, target.Password)
	}

	resp, err := p.clientFor(target.VRF).Do(req)
	if err != nil {
		return classifyProbeError(err, time.Since(start))
	}
	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	latency := time.Since(start)
	if err != nil {
		// Got headers but the body broke mid-stream.
		return domain.CheckOutcome{
			Kind:       domain.OutcomeHTTPError,
			StatusCode: resp.StatusCode,
			Err:        err,
			Latency:    latency,
		}
	}

	return domain.CheckOutcome{
		Kind:       domain.OutcomeSuccess,
		Body:       string(bodyBytes),
		StatusCode: resp.StatusCode,
		Latency:    latency,
	}
}

// classifyProbeError maps a transport error to an outcome kind: timeouts are
// Timeout, other network errors are ConnectionError, anything else the
// transport reports (malformed responses and the like) is HTTPError.
func classifyProbeError(err error, latency time.Duration) domain.CheckOutcome {
	outcome := domain.CheckOutcome{
		Err:     err,
		Latency: latency,
	}

	if errors.Is(err, context.DeadlineExceeded) {
		outcome.Kind = domain.OutcomeTimeout
		return outcome
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			outcome.Kind = domain.OutcomeTimeout
		} else {
			outcome.Kind = domain.OutcomeConnectionError
		}
		return outcome
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		outcome.Kind = domain.OutcomeConnectionError
		return outcome
	}

	outcome.Kind = domain.OutcomeHTTPError
	return outcome
}
