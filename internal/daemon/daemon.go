// Package daemon runs a controller in the background and accepts timer
// inputs over a Unix socket.
package daemon

import (
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/npratt/intervals/internal/config"
	"github.com/npratt/intervals/internal/controller"
)

// DefaultRequestTimeout bounds how long one RPC waits for the controller.
const DefaultRequestTimeout = 5 * time.Second

// Daemon serves RPCs for one controller.
type Daemon struct {
	config     *config.Config
	controller *controller.Controller
	sockPath   string
	timeout    time.Duration
	startTime  time.Time
	logger     *slog.Logger

	listener     net.Listener
	shutdown     chan struct{}
	shutdownOnce sync.Once

	running bool
	mu      sync.RWMutex
}

// New creates a new Daemon with the given configuration and controller.
func New(cfg *config.Config, ctrl *controller.Controller, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	return &Daemon{
		config:     cfg,
		controller: ctrl,
		sockPath:   cfg.Paths.Socket,
		timeout:    DefaultRequestTimeout,
		logger:     logger,
		shutdown:   make(chan struct{}),
	}
}

// Running returns whether the daemon is currently running.
func (d *Daemon) Running() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

// Controller returns the underlying controller.
func (d *Daemon) Controller() *controller.Controller {
	return d.controller
}

// StartTime returns when the daemon was started.
func (d *Daemon) StartTime() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.startTime
}

// SocketPath returns the Unix socket path.
func (d *Daemon) SocketPath() string {
	return d.sockPath
}

// Shutdown is closed once a client has requested shutdown.
func (d *Daemon) Shutdown() <-chan struct{} {
	return d.shutdown
}

func (d *Daemon) requestShutdown() {
	d.shutdownOnce.Do(func() { close(d.shutdown) })
}
