package progression

import (
	"context"
	"fmt"
	"log/slog"

	"network-leveling/internal/adapters/metrics"
	"network-leveling/internal/core/domain"
	"network-leveling/internal/wire"

	"github.com/google/uuid"
)

// notify sends n to the player's current server, or queues it until the
// player connects. The presence check and the enqueue happen under the
// player's delivery lock, which PlayerConnected holds while draining, so a
// player connecting in between always finds the notification queued.
func (m *Manager) notify(ctx context.Context, id uuid.UUID, n domain.Notification) {
	unlock := m.delivery.Lock(id)
	defer unlock()

	server, online := m.players.ServerOf(id)
	switch {
	case !online:
		m.deferNotification(id, n)
		slog.Debug("Player offline, notification deferred", "player", id, "kind", n.Kind)
	case m.pending.Len(id) > 0:
		// Older notifications still waiting for a drain go out first.
		m.deferNotification(id, n)
		slog.Debug("Notification queued behind pending ones", "player", id, "kind", n.Kind)
	default:
		if err := m.deliver(ctx, id, server, n); err != nil {
			m.deferNotification(id, n)
			slog.Warn("Notification delivery failed, deferred", "player", id, "kind", n.Kind, "error", err)
		}
	}
}

func (m *Manager) deferNotification(id uuid.UUID, n domain.Notification) {
	m.pending.Push(id, n)
	metrics.NotificationsDeferred.Inc()
}

func (m *Manager) deliver(ctx context.Context, id uuid.UUID, server string, n domain.Notification) error {
	text, err := m.render(n)
	if err != nil {
		metrics.NotificationsDelivered.WithLabelValues(string(n.Kind), "error").Inc()
		return err
	}

	data, err := wire.NewMessage().UUID(id).String("Message", text).Encode()
	if err != nil {
		metrics.NotificationsDelivered.WithLabelValues(string(n.Kind), "error").Inc()
		return fmt.Errorf("encode notification: %w", err)
	}
	if !m.transport.SendData(ctx, server, ChannelMessage, data) {
		metrics.NotificationsDelivered.WithLabelValues(string(n.Kind), "failed").Inc()
		return fmt.Errorf("%w: notification to %s", domain.ErrTransportSend, server)
	}
	metrics.NotificationsDelivered.WithLabelValues(string(n.Kind), "ok").Inc()
	return nil
}

// render fills the template for n with the settings current at delivery
// time and translates '&' color codes.
func (m *Manager) render(n domain.Notification) (string, error) {
	msgs := m.Settings().Messages
	var tmpl string
	switch n.Kind {
	case domain.NotifyAddExperience:
		tmpl = msgs.AddExperience
	case domain.NotifyLevelUp:
		tmpl = msgs.LevelUp
	case domain.NotifySetLevel:
		tmpl = msgs.SetLevel
	default:
		return "", fmt.Errorf("unknown notification kind %q", n.Kind)
	}
	return domain.TranslateColorCodes('&', fmt.Sprintf(tmpl, n.Args...)), nil
}

// PlayerConnected delivers everything queued for the player in order and
// then pushes the player's progress to the server they joined. Anything that
// fails to go out stays queued for the next connect.
func (m *Manager) PlayerConnected(ctx context.Context, id uuid.UUID, server string) {
	m.drain(ctx, id, server)

	rec := m.load(ctx, id)
	data, err := wire.NewMessage().
		UUID(id).
		Int32("Level", int32(rec.Level)).
		Int64("Experience", rec.Experience).
		Encode()
	if err != nil {
		slog.Error("Failed to encode progression metadata", "player", id, "error", err)
		return
	}
	if !m.transport.SendData(ctx, server, ChannelMetadata, data) {
		slog.Warn("Failed to push progression metadata", "player", id, "server", server)
	}
}

func (m *Manager) drain(ctx context.Context, id uuid.UUID, server string) {
	unlock := m.delivery.Lock(id)
	defer unlock()

	queued := m.pending.Take(id)
	for i, n := range queued {
		if err := m.deliver(ctx, id, server, n); err != nil {
			m.pending.Requeue(id, queued[i:])
			slog.Warn("Deferred delivery interrupted", "player", id, "server", server, "remaining", len(queued)-i, "error", err)
			return
		}
	}
}

// Pending reports how many notifications are waiting for the player.
func (m *Manager) Pending(id uuid.UUID) int {
	return m.pending.Len(id)
}
