package remediate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"

	"github.com/vigil-sh/vigil/internal/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	eapiRequestTimeout  = 30 * time.Second
	eapiMaxResponseSize = 1 << 20
)

type eapiParams struct {
	Cmds    []string `json:"cmds"`
	Format  string   `json:"format"`
	Version int      `json:"version"`
}

type eapiRequest struct {
	Jsonrpc string     `json:"jsonrpc"`
	Method  string     `json:"method"`
	ID      string     `json:"id"`
	Params  eapiParams `json:"params"`
}

// EAPISink submits configuration commands over the platform's command-api
// unix socket as JSON-RPC runCmds calls. The collaborator enters
// configuration mode itself, so commands go through exactly as written.
type EAPISink struct {
	client   *http.Client
	endpoint string
	logger   *logger.StyledLogger
	seq      atomic.Uint64
}

func NewEAPISink(socketPath string, log *logger.StyledLogger) *EAPISink {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, address string) (net.Conn, error) {
			var dialer net.Dialer
			return dialer.DialContext(ctx, "unix", socketPath)
		},
	}

	return &EAPISink{
		client: &http.Client{
			Transport: transport,
			Timeout:   eapiRequestTimeout,
		},
		// host is ignored for unix transports but must parse
		endpoint: "http://localhost/command-api",
		logger:   log,
	}
}

// Apply submits one fully-qualified command and surfaces any JSON-RPC error
// the platform reports for it.
func (s *EAPISink) Apply(ctx context.Context, command string) error {
	payload := eapiRequest{
		Jsonrpc: "2.0",
		Method:  "runCmds",
		ID:      fmt.Sprintf("vigil-%d", s.seq.Add(1)),
		Params: eapiParams{
			Version: 1,
			Cmds:    []string{command},
			Format:  "json",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode runCmds request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build runCmds request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("config-apply channel unavailable: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, eapiMaxResponseSize))
	if err != nil {
		return fmt.Errorf("read runCmds response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("config-apply channel returned status %d", resp.StatusCode)
	}

	if errMsg := gjson.GetBytes(respBody, "error.message"); errMsg.Exists() {
		if detail := gjson.GetBytes(respBody, "error.data.0.errors.0"); detail.Exists() {
			return fmt.Errorf("command rejected: %s (%s)", errMsg.String(), detail.String())
		}
		return fmt.Errorf("command rejected: %s", errMsg.String())
	}

	s.logger.Debug("runCmds accepted", "command", command, "id", payload.ID)
	return nil
}
