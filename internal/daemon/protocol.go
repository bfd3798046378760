package daemon

import (
	"encoding/json"

	"github.com/npratt/intervals/internal/controller"
	"github.com/npratt/intervals/internal/timer"
)

// Methods served besides the timer inputs. Every timer.Input is also a
// method, named after the input ("start", "pause", "input", ...).
const (
	MethodStatus   = "status"
	MethodOutline  = "outline"
	MethodShutdown = "shutdown"
)

// Request represents a JSON-RPC request from a client.
type Request struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
	ID     int             `json:"id,omitempty"`
}

// Response represents a JSON-RPC response to a client.
type Response struct {
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
	ID     int    `json:"id,omitempty"`
}

// StatusResponse contains daemon and timer status.
type StatusResponse struct {
	Daemon    string            `json:"daemon"`
	Uptime    string            `json:"uptime"`
	StartTime string            `json:"start_time"`
	Timer     controller.Status `json:"timer"`
}

// OutputResponse is the result of a timer input.
type OutputResponse struct {
	Input  timer.Input       `json:"input"`
	Output timer.Output      `json:"output"`
	Timer  controller.Status `json:"timer"`
}

// ShutdownParams contains parameters for the shutdown method.
type ShutdownParams struct {
	Force bool `json:"force,omitempty"`
}
