package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/doorward/gatekeeper/internal/gatekeeper/schedule"
	"github.com/doorward/gatekeeper/internal/gatekeeper/types"
)

// maxResponseBody caps the authority response size.  A response carrying a
// full week of windows for a credential stays well under this.
const maxResponseBody = 64 << 10

const defaultTimeout = 3 * time.Second

// Status is the three-way outcome of an authority query.
type Status int

const (
	StatusUnreachable Status = iota
	StatusAllowed
	StatusDenied
)

func (s Status) String() string {
	switch s {
	case StatusAllowed:
		return "allowed"
	case StatusDenied:
		return "denied"
	default:
		return "unreachable"
	}
}

// Definitive reports whether the authority actually answered.
func (s Status) Definitive() bool {
	return s == StatusAllowed || s == StatusDenied
}

// Result is what a Check returns.  Reason carries the authority's deny
// reason, or a short transport failure summary when unreachable.
// Windows is only populated on definitive answers.
type Result struct {
	Status  Status
	Reason  string
	Windows []schedule.Window
}

func unreachable(reason string) Result {
	return Result{Status: StatusUnreachable, Reason: reason}
}

type Config struct {
	BaseURL  string
	ModuleID string

	// Timeout bounds the whole exchange.  A human is standing at the
	// door, so exceeding it classifies as unreachable rather than
	// waiting any longer.  Defaults to 3s.
	Timeout time.Duration
}

// Client talks to the membership authority over HTTP.  It performs no
// retries; retry policy belongs to the orchestrator so the total
// decision time stays bounded.
type Client struct {
	baseURL  string
	moduleID string
	timeout  time.Duration
	httpc    *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		moduleID: cfg.ModuleID,
		timeout:  timeout,
		httpc:    &http.Client{},
	}
}

// Check asks the authority whether cardID may enter right now.  Every
// transport-layer failure — refused connection, timeout, bad status,
// unparseable body — folds into StatusUnreachable, because the caller's
// fallback behavior is the same for all of them.
func (c *Client) Check(ctx context.Context, cardID string) Result {
	reqBody := types.AccessRequest{
		ModuleID:    c.moduleID,
		CardID:      cardID,
		RequestedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}

	var resp types.AccessResponse
	status, err := c.post(ctx, "/v1/access_request", reqBody, &resp)
	if err != nil {
		return unreachable(err.Error())
	}

	// The authority answers 200 for normal decisions and 403 when it
	// refuses the module itself.  Both carry a definitive body; anything
	// else is not an answer.
	if status != http.StatusOK && status != http.StatusForbidden {
		return unreachable(fmt.Sprintf("unexpected status %d", status))
	}

	windows, err := windowsFromWire(resp.Windows)
	if err != nil {
		// A schedule we cannot parse means we cannot trust the rest of
		// the payload either.
		return unreachable(fmt.Sprintf("malformed response: %v", err))
	}

	res := Result{Reason: resp.Reason, Windows: windows}
	if resp.Granted {
		res.Status = StatusAllowed
	} else {
		res.Status = StatusDenied
	}
	return res
}

// Heartbeat reports the module's liveness to the authority.  Unlike
// Check, failures surface as plain errors — the caller just logs them.
func (c *Client) Heartbeat(ctx context.Context, req types.HeartbeatRequest) (types.HeartbeatResponse, error) {
	var resp types.HeartbeatResponse
	status, err := c.post(ctx, "/v1/heartbeat", req, &resp)
	if err != nil {
		return types.HeartbeatResponse{}, err
	}
	if status != http.StatusOK {
		return types.HeartbeatResponse{}, fmt.Errorf("heartbeat: unexpected status %d", status)
	}
	return resp, nil
}

// post sends one JSON request and decodes the JSON response into out.
// Returns the HTTP status, or an error for anything transport-level.
func (c *Client) post(ctx context.Context, path string, in, out any) (int, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}
