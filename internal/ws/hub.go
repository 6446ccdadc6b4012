// Package ws implements the live change feed: a WebSocket hub that fans
// project and backlog events out to subscribed clients.
package ws

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/backlog/internal/metrics"
)

// Hub channel buffer sizes.
const (
	broadcastBuffer = 256
	registerBuffer  = 64
)

// Connection limits.
const (
	maxClients           = 1000
	maxClientsPerProject = 100
)

// projectBroadcast is sent through the broadcast channel to the Run goroutine.
type projectBroadcast struct {
	project string
	msg     []byte
}

// Hub manages active WebSocket clients and broadcasts messages.
// All client map mutations happen exclusively in the Run goroutine.
type Hub struct {
	clients      map[*Client]bool
	projectCount map[string]int
	register     chan *Client
	unregister   chan *Client
	broadcast    chan projectBroadcast
	shutdown     chan struct{}
	done         chan struct{}
	count        atomic.Int64
	log          *logrus.Logger
	buffer       *EventBuffer
}

// NewHub creates a new Hub instance.
func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		clients:      make(map[*Client]bool),
		projectCount: make(map[string]int),
		register:     make(chan *Client, registerBuffer),
		unregister:   make(chan *Client, registerBuffer),
		broadcast:    make(chan projectBroadcast, broadcastBuffer),
		shutdown:     make(chan struct{}),
		done:         make(chan struct{}),
		log:          log,
		buffer:       NewEventBuffer(defaultBufferMaxLen, defaultBufferMaxAge),
	}
}

// drainTimeout is how long the hub waits for clients to flush after shutdown.
const drainTimeout = 3 * time.Second

// Run starts the hub event loop. It exits when Shutdown is called or the
// context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.drainClients()

			return
		case <-h.shutdown:
			h.drainClients()

			return

		case client := <-h.register:
			h.add(client)

		case client := <-h.unregister:
			if h.clients[client] {
				h.remove(client)
			}
			h.updateCount()
			h.log.WithField("total", len(h.clients)).Debug("client unregistered")

		case b := <-h.broadcast:
			for client := range h.clients {
				if !matches(client.Project, b.project) {
					continue
				}
				select {
				case client.send <- b.msg:
				default:
					h.remove(client)
				}
			}
			h.updateCount()
		}
	}
}

func (h *Hub) add(client *Client) {
	if len(h.clients) >= maxClients {
		h.log.Warn("global connection limit reached, dropping client")
		client.closeSend()

		return
	}

	if h.projectCount[client.Project] >= maxClientsPerProject {
		h.log.WithField("project", client.Project).Warn("per-project connection limit reached, dropping client")
		client.closeSend()

		return
	}

	h.clients[client] = true
	h.projectCount[client.Project]++
	h.updateCount()
	h.log.WithFields(logrus.Fields{
		"project": client.Project,
		"total":   len(h.clients),
	}).Debug("client registered")
}

func (h *Hub) remove(client *Client) {
	delete(h.clients, client)
	client.closeSend()

	h.projectCount[client.Project]--
	if h.projectCount[client.Project] <= 0 {
		delete(h.projectCount, client.Project)
	}
}

func (h *Hub) updateCount() {
	h.count.Store(int64(len(h.clients)))
	metrics.WSConnections.Set(float64(len(h.clients)))
}

// maxBroadcastPayload is the maximum allowed event size (64 KB).
const maxBroadcastPayload = 64 << 10

// broadcastToProject queues msg for every client following project.
// Oversized payloads are dropped with a warning.
func (h *Hub) broadcastToProject(project string, msg []byte) {
	if len(msg) > maxBroadcastPayload {
		h.log.WithFields(logrus.Fields{
			"project":      project,
			"payload_size": len(msg),
			"max_size":     maxBroadcastPayload,
		}).Warn("dropping oversized broadcast payload")

		return
	}

	select {
	case h.broadcast <- projectBroadcast{project: project, msg: msg}:
	default:
		h.log.Warn("broadcast channel full, dropping message")
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	default:
		h.log.Warn("register channel full, dropping client")
		c.closeSend()
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	default:
		// Run loop already exited; client cleanup happened in Run shutdown.
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// BroadcastEvent assigns a sequence ID, stores the event for replay, and
// sends it to every client following project. data is encoded as JSON.
func (h *Hub) BroadcastEvent(eventType, project string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		h.log.WithError(err).WithField("type", eventType).Error("failed to marshal event data")

		return
	}

	evt := Event{
		Type:    eventType,
		Project: project,
		Data:    raw,
		Time:    time.Now(),
	}

	h.buffer.Append(&evt)

	msg, err := json.Marshal(evt)
	if err != nil {
		h.log.WithError(err).Error("failed to marshal event")

		return
	}

	h.broadcastToProject(project, msg)
}

// Shutdown sends a shutdown frame to every connected client, waits for their
// write pumps to flush, then closes all connections. It blocks until the
// drain is complete or the timeout expires.
func (h *Hub) Shutdown() {
	select {
	case <-h.shutdown:
	default:
		close(h.shutdown)
	}
	<-h.done
}

// drainClients sends a close frame to every client and waits for buffers to flush.
func (h *Hub) drainClients() {
	if len(h.clients) == 0 {
		return
	}

	h.log.WithField("clients", len(h.clients)).Info("draining WebSocket clients")

	shutdownMsg := []byte(`{"type":"shutdown","message":"server shutting down"}`)
	for client := range h.clients {
		select {
		case client.send <- shutdownMsg:
		default:
		}
	}

	deadline := time.After(drainTimeout)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

wait:
	for {
		drained := true
		for client := range h.clients {
			if len(client.send) > 0 {
				drained = false

				break
			}
		}

		if drained {
			break
		}

		select {
		case <-deadline:
			h.log.Warn("WebSocket drain timeout, closing remaining clients")

			break wait
		case <-ticker.C:
		}
	}

	for client := range h.clients {
		client.closeSend()
		delete(h.clients, client)
	}

	h.projectCount = make(map[string]int)
	h.updateCount()
}

// ReplayEvents sends buffered events after lastEventID to the client.
// It returns false if the requested ID is no longer buffered.
func (h *Hub) ReplayEvents(client *Client, lastEventID uint64) bool {
	oldest := h.buffer.OldestID()
	if oldest > 0 && lastEventID > 0 && lastEventID < oldest-1 {
		return false
	}

	for _, evt := range h.buffer.Since(client.Project, lastEventID) {
		msg, err := json.Marshal(evt)
		if err != nil {
			continue
		}

		select {
		case client.send <- msg:
		default:
			return true
		}
	}

	return true
}
