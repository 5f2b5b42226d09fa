package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
)

const defaultCallTimeout = 30 * time.Second

// ClientConfig holds configuration for a collector client
type ClientConfig struct {
	SocketPath string
	// Timeout bounds one call, dial included. Zero means 30s.
	Timeout time.Duration
}

// Client talks to a result collector. Each call uses its own connection:
// a worker submits once and exits, so there is nothing to keep open.
type Client struct {
	config ClientConfig
}

// NewClient creates a collector client
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultCallTimeout
	}
	return &Client{config: cfg}
}

// Call sends one request and decodes the response into result (may be nil).
// A collector-side failure is returned as *RPCError.
func (c *Client) Call(ctx context.Context, method string, params, result any) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", c.config.SocketPath)
	if err != nil {
		return fmt.Errorf("failed to reach collector at %s: %w", c.config.SocketPath, err)
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return fmt.Errorf("failed to set deadline: %w", err)
		}
	}

	id := uuid.NewString()
	req, err := NewRequest(id, method, params)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return fmt.Errorf("failed to send %s: %w", method, err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", method, err)
	}

	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", method, err)
	}
	if resp.ID != id {
		return fmt.Errorf("response id mismatch: sent %s, got %s", id, resp.ID)
	}
	if resp.Error != nil {
		return resp.Error
	}

	if result != nil && resp.Result != nil {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}
	return nil
}

// GetStatus reports how many results the collector has accepted
func (c *Client) GetStatus(ctx context.Context) (*StatusResponse, error) {
	var status StatusResponse
	if err := c.Call(ctx, MethodStatusGet, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// SubmitResult sends one worker's partial result to the collector
func (c *Client) SubmitResult(ctx context.Context, params *SubmitParams) (*SubmitResponse, error) {
	var resp SubmitResponse
	if err := c.Call(ctx, MethodResultSubmit, params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
