// Package direct carries bus channels over the proxy's own links to backend
// servers. Messages are addressed, so a backend only sees what was sent to it.
package direct

import (
	"context"
	"log/slog"

	"network-leveling/internal/adapters/metrics"
	"network-leveling/internal/adapters/transport"
	"network-leveling/internal/core/ports"
)

const backendName = "direct"

// Link is the connection set the transport rides on.
type Link interface {
	OnFrame(fn func(server, channel string, payload []byte))
	Send(server, channel string, payload []byte) error
}

type DirectTransport struct {
	link      Link
	listeners *transport.Registry
}

func NewDirectTransport(link Link) *DirectTransport {
	t := &DirectTransport{link: link, listeners: transport.NewRegistry()}
	link.OnFrame(t.receive)
	return t
}

func (t *DirectTransport) RegisterChannel(ctx context.Context, name string) error {
	t.listeners.Register(name)
	return nil
}

func (t *DirectTransport) AddListener(channel string, h ports.Handler) error {
	return t.listeners.AddListener(channel, h)
}

func (t *DirectTransport) receive(server, channel string, payload []byte) {
	if !t.listeners.Dispatch(channel, payload) {
		metrics.TransportMessages.WithLabelValues(backendName, "in", "unregistered").Inc()
		slog.Debug("Ignoring frame on unregistered channel", "server", server, "channel", channel)
		return
	}
	metrics.TransportMessages.WithLabelValues(backendName, "in", "ok").Inc()
}

func (t *DirectTransport) SendData(ctx context.Context, target, channel string, data []byte) bool {
	if err := t.link.Send(target, channel, data); err != nil {
		metrics.TransportMessages.WithLabelValues(backendName, "out", "error").Inc()
		slog.Warn("Failed to send to backend server", "server", target, "channel", channel, "error", err)
		return false
	}
	metrics.TransportMessages.WithLabelValues(backendName, "out", "ok").Inc()
	return true
}

// Close is a no-op; the links belong to whoever created them.
func (t *DirectTransport) Close() error {
	return nil
}
