// Package proxylink keeps one websocket per backend server. Each binary
// frame is a wire message whose leading Channel field names the bus channel
// the rest of the frame belongs to.
package proxylink

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"network-leveling/internal/adapters/metrics"
	"network-leveling/internal/core/domain"
	"network-leveling/internal/wire"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// SessionChannel carries {Event, UUID} frames about players joining and
	// leaving the sending server.
	SessionChannel  = "ProgressionSession"
	EventConnect    = "Connect"
	EventDisconnect = "Disconnect"

	channelField = "Channel"
	sendBuffer   = 256
	writeWait    = 10 * time.Second
)

var ErrServerNotLinked = errors.New("server not linked")

type (
	FrameHandler   = func(server, channel string, payload []byte)
	SessionHandler = func(server string, joined bool, player uuid.UUID)
	ServerHandler  = func(server string, linked bool)
)

type link struct {
	server string
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
}

func (l *link) close() {
	l.once.Do(func() {
		close(l.done)
		l.conn.Close()
	})
}

type Hub struct {
	upgrader websocket.Upgrader

	mu     sync.RWMutex
	links  map[string]*link
	closed bool

	onFrame   FrameHandler
	onSession SessionHandler
	onServer  ServerHandler
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096},
		links:    make(map[string]*link),
	}
}

func (h *Hub) OnFrame(fn FrameHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onFrame = fn
}

func (h *Hub) OnSession(fn SessionHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onSession = fn
}

func (h *Hub) OnServer(fn ServerHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onServer = fn
}

// ServeHTTP upgrades /link?server=<name>. A second link under the same name
// replaces the first.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	server := r.URL.Query().Get("server")
	if server == "" {
		http.Error(w, "missing server parameter", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Link upgrade failed", "server", server, "error", err)
		return
	}

	l := &link{server: server, conn: conn, send: make(chan []byte, sendBuffer), done: make(chan struct{})}
	if !h.attach(l) {
		l.close()
		return
	}
	slog.Info("Backend server linked", "server", server, "remote", r.RemoteAddr)

	go h.writer(l)
	h.reader(l)
}

func (h *Hub) attach(l *link) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	old := h.links[l.server]
	h.links[l.server] = l
	metrics.LinkedServers.Set(float64(len(h.links)))
	onServer := h.onServer
	h.mu.Unlock()

	if old != nil {
		slog.Warn("Replacing existing link", "server", l.server)
		old.close()
	}
	if onServer != nil && old == nil {
		onServer(l.server, true)
	}
	return true
}

func (h *Hub) detach(l *link) {
	h.mu.Lock()
	current := h.links[l.server] == l
	if current {
		delete(h.links, l.server)
	}
	metrics.LinkedServers.Set(float64(len(h.links)))
	onServer := h.onServer
	h.mu.Unlock()

	if current {
		slog.Info("Backend server unlinked", "server", l.server)
		if onServer != nil {
			onServer(l.server, false)
		}
	}
}

func (h *Hub) reader(l *link) {
	defer func() {
		l.close()
		h.detach(l)
	}()

	for {
		kind, data, err := l.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("Link read ended", "server", l.server, "error", err)
			}
			return
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		h.handleFrame(l.server, data)
	}
}

func (h *Hub) handleFrame(server string, data []byte) {
	name, channel, payload, err := wire.SplitLeading(data)
	if err != nil || name != channelField {
		slog.Warn("Dropping frame without channel", "server", server, "field", name, "error", err)
		return
	}

	h.mu.RLock()
	onFrame, onSession := h.onFrame, h.onSession
	h.mu.RUnlock()

	if channel != SessionChannel {
		if onFrame != nil {
			onFrame(server, channel, payload)
		}
		return
	}

	joined, player, err := parseSession(payload)
	if err != nil {
		slog.Warn("Dropping session frame", "server", server, "error", err)
		return
	}
	if onSession != nil {
		onSession(server, joined, player)
	}
}

func parseSession(payload []byte) (bool, uuid.UUID, error) {
	msg, err := wire.Decode(payload, nil)
	if err != nil {
		return false, uuid.Nil, err
	}
	id, ok := msg.GetUUID()
	if !ok {
		return false, uuid.Nil, fmt.Errorf("%w: session frame without UUID", domain.ErrMalformedMessage)
	}
	event, _ := msg.GetString("Event")
	switch event {
	case EventConnect:
		return true, id, nil
	case EventDisconnect:
		return false, id, nil
	default:
		return false, uuid.Nil, fmt.Errorf("%w: unknown session event %q", domain.ErrMalformedMessage, event)
	}
}

func (h *Hub) writer(l *link) {
	for {
		select {
		case <-l.done:
			return
		case frame := <-l.send:
			l.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := l.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				slog.Warn("Link write failed", "server", l.server, "error", err)
				l.close()
				return
			}
		}
	}
}

// Send queues payload for server on channel. It fails when the server is not
// linked or its send buffer is full.
func (h *Hub) Send(server, channel string, payload []byte) error {
	frame, err := wire.Prepend(channelField, channel, payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	l, ok := h.links[server]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrServerNotLinked, server)
	}

	select {
	case <-l.done:
		return fmt.Errorf("%w: %s", ErrServerNotLinked, server)
	case l.send <- frame:
		return nil
	default:
		return fmt.Errorf("send buffer full for %s", server)
	}
}

func (h *Hub) HasServer(name string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.links[name]
	return ok
}

func (h *Hub) Servers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.links))
	for name := range h.links {
		names = append(names, name)
	}
	return names
}

// Close drops every link and refuses new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	links := make([]*link, 0, len(h.links))
	for _, l := range h.links {
		links = append(links, l)
	}
	h.mu.Unlock()

	for _, l := range links {
		l.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "proxy shutting down"),
			time.Now().Add(time.Second))
		l.close()
	}
	return nil
}
