package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/npratt/intervals/internal/timer"
)

// handleRequest dispatches the request to the appropriate handler.
func (d *Daemon) handleRequest(ctx context.Context, req *Request) Response {
	switch req.Method {
	case MethodStatus:
		return d.handleStatus()
	case MethodOutline:
		return d.handleOutline()
	case MethodShutdown:
		return d.handleShutdown(req)
	}

	in, err := timer.ParseInput(req.Method)
	if err != nil {
		return Response{Error: fmt.Sprintf("unknown method: %s", req.Method)}
	}
	return d.handleInput(ctx, in)
}

// handleStatus returns the daemon and timer status.
func (d *Daemon) handleStatus() Response {
	if d.controller == nil {
		return Response{Error: "no controller available"}
	}

	d.mu.RLock()
	startTime := d.startTime
	running := d.running
	d.mu.RUnlock()

	status := "stopped"
	if running {
		status = "running"
	}

	return Response{
		Result: StatusResponse{
			Daemon:    status,
			Uptime:    time.Since(startTime).Truncate(time.Second).String(),
			StartTime: startTime.Format(time.RFC3339),
			Timer:     d.controller.Snapshot(),
		},
	}
}

func (d *Daemon) handleOutline() Response {
	if d.controller == nil {
		return Response{Error: "no controller available"}
	}
	return Response{Result: d.controller.Outline()}
}

// handleInput applies one timer input and waits for its output.
func (d *Daemon) handleInput(ctx context.Context, in timer.Input) Response {
	if d.controller == nil {
		return Response{Error: "no controller available"}
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	out, err := d.controller.Apply(ctx, in)
	if err != nil {
		return Response{Error: fmt.Sprintf("%s: %v", in, err)}
	}

	d.logger.Debug("rpc input applied", "input", in, "output", out.String())
	return Response{
		Result: OutputResponse{
			Input:  in,
			Output: out,
			Timer:  d.controller.Snapshot(),
		},
	}
}

// handleShutdown stops the controller and schedules daemon shutdown.
func (d *Daemon) handleShutdown(req *Request) Response {
	var params ShutdownParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return Response{Error: fmt.Sprintf("invalid params: %v", err)}
		}
	}

	if d.controller != nil {
		d.controller.Stop()
	}

	delay := 100 * time.Millisecond
	if params.Force {
		delay = 0
	}
	// Let the response reach the client before the listener closes.
	time.AfterFunc(delay, d.requestShutdown)

	return Response{Result: "shutting down"}
}
