// Package webhub streams controller events to browsers over a websocket and
// accepts timer inputs back from them.
package webhub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/npratt/intervals/internal/controller"
	"github.com/npratt/intervals/internal/events"
	"github.com/npratt/intervals/internal/timer"
)

// Controller is the part of controller.Controller the hub needs.
type Controller interface {
	Post(in timer.Input) bool
	Snapshot() controller.Status
}

// StatusMessage is sent to each client when it connects.
type StatusMessage struct {
	Type   string            `json:"type"`
	Status controller.Status `json:"status"`
}

// ErrorMessage is sent to a client whose command was rejected.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Command is what clients send: {"input":"pause"}.
type Command struct {
	Input string `json:"input"`
}

const (
	messageStatus = "status"
	messageError  = "error"
)

// Hub tracks connected clients and fans events out to them.
type Hub struct {
	ctrl   Controller
	logger *slog.Logger

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
}

// NewHub creates a hub that posts client inputs to ctrl.
func NewHub(ctrl Controller, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		ctrl:       ctrl,
		logger:     logger,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run broadcasts every event from src until ctx is cancelled or src closes.
func (h *Hub) Run(ctx context.Context, src <-chan events.Event) {
	defer close(h.done)
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("web hub shutting down")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Info("web client connected", "remote", client.remote)
			h.greet(client)
		case client := <-h.unregister:
			h.drop(client)
		case event, ok := <-src:
			if !ok {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("marshal event for web clients", "type", event.Type(), "error", err)
				continue
			}
			h.broadcast(payload)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) greet(c *Client) {
	payload, err := json.Marshal(StatusMessage{Type: messageStatus, Status: h.ctrl.Snapshot()})
	if err != nil {
		h.logger.Error("marshal status", "error", err)
		return
	}
	h.sendTo(c, payload)
}

func (h *Hub) broadcast(payload []byte) {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.sendTo(c, payload)
	}
}

// sendTo queues payload for c, dropping a client that has fallen behind.
func (h *Hub) sendTo(c *Client, payload []byte) {
	select {
	case c.send <- payload:
	default:
		h.logger.Warn("web client too slow; disconnecting", "remote", c.remote)
		h.drop(c)
	}
}

func (h *Hub) drop(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		h.logger.Info("web client disconnected", "remote", c.remote)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// handleCommand posts a client's input to the controller.
func (h *Hub) handleCommand(c *Client, raw []byte) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		h.reject(c, "invalid command: "+err.Error())
		return
	}
	in, err := timer.ParseInput(cmd.Input)
	if err != nil {
		h.reject(c, err.Error())
		return
	}
	if !h.ctrl.Post(in) {
		h.reject(c, "input dropped: "+in.String())
		return
	}
	h.logger.Debug("web input", "input", in, "remote", c.remote)
}

// reject replies to a single client. It runs on the client's read goroutine,
// so it goes through the hub's lock like every other send.
func (h *Hub) reject(c *Client, msg string) {
	h.logger.Warn("web command rejected", "remote", c.remote, "reason", msg)
	payload, err := json.Marshal(ErrorMessage{Type: messageError, Message: msg})
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[c] {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}
