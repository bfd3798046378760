package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/npratt/intervals/internal/controller"
	"github.com/npratt/intervals/internal/timer"
)

const (
	// DefaultClientTimeout is the default timeout for client operations.
	DefaultClientTimeout = 5 * time.Second
)

// ErrNotRunning is wrapped by client errors when no daemon answers on the
// socket.
var ErrNotRunning = errors.New("daemon not running")

// Client connects to the daemon via Unix socket.
type Client struct {
	sockPath string
	timeout  time.Duration
}

// NewClient creates a new daemon client.
func NewClient(sockPath string) *Client {
	return &Client{
		sockPath: sockPath,
		timeout:  DefaultClientTimeout,
	}
}

// SetTimeout sets the timeout for client operations.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

// call sends a JSON-RPC request to the daemon and decodes its result into
// result, which may be nil.
func (c *Client) call(method string, params, result any) error {
	req := Request{Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("marshal params: %w", err)
		}
		req.Params = raw
	}

	conn, err := net.DialTimeout("unix", c.sockPath, c.timeout)
	if err != nil {
		return c.wrapConnError(err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return fmt.Errorf("send request: %w", err)
	}

	var resp struct {
		Result json.RawMessage `json:"result,omitempty"`
		Error  string          `json:"error,omitempty"`
	}
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return errors.New("daemon request timed out")
		}
		return fmt.Errorf("read response: %w", err)
	}

	if resp.Error != "" {
		return fmt.Errorf("daemon error: %s", resp.Error)
	}

	if result == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return fmt.Errorf("unmarshal %s result: %w", method, err)
	}
	return nil
}

// wrapConnError converts connection errors to user-friendly messages.
func (c *Client) wrapConnError(err error) error {
	var sysErr syscall.Errno
	if errors.As(err, &sysErr) {
		switch sysErr {
		case syscall.ENOENT:
			return fmt.Errorf("%w (socket not found)", ErrNotRunning)
		case syscall.ECONNREFUSED:
			return fmt.Errorf("%w (connection refused)", ErrNotRunning)
		}
	}

	if os.IsNotExist(err) {
		return fmt.Errorf("%w (socket not found)", ErrNotRunning)
	}

	if errors.Is(err, os.ErrDeadlineExceeded) {
		return errors.New("daemon request timed out")
	}

	return fmt.Errorf("connect to daemon: %w", err)
}

// Status returns the daemon and timer status.
func (c *Client) Status() (*StatusResponse, error) {
	var status StatusResponse
	if err := c.call(MethodStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Outline returns the program being run.
func (c *Client) Outline() ([]controller.Step, error) {
	var steps []controller.Step
	if err := c.call(MethodOutline, nil, &steps); err != nil {
		return nil, err
	}
	return steps, nil
}

// Send applies one timer input and returns its output.
func (c *Client) Send(in timer.Input) (*OutputResponse, error) {
	var out OutputResponse
	if err := c.call(in.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Shutdown asks the daemon to stop. If force is true the listener closes
// without delay.
func (c *Client) Shutdown(force bool) error {
	return c.call(MethodShutdown, ShutdownParams{Force: force}, nil)
}

// IsRunning checks if the daemon is running by attempting to connect.
func (c *Client) IsRunning() bool {
	conn, err := net.DialTimeout("unix", c.sockPath, time.Second)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
