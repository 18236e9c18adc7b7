package progression

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"network-leveling/internal/adapters/metrics"
	"network-leveling/internal/core/domain"
	"network-leveling/internal/wire"

	"github.com/google/uuid"
)

const (
	SubGetLevel      = "GetLevel"
	SubSetLevel      = "SetLevel"
	SubAddExperience = "AddExperience"
	SubGetExperience = "GetExperience"
)

func (m *Manager) onRequest(data []byte) {
	if err := m.HandleRequest(context.Background(), data); err != nil {
		switch {
		case errors.Is(err, domain.ErrMalformedMessage):
			slog.Warn("Dropping malformed progression request", "error", err)
		case errors.Is(err, domain.ErrUnresolvedTarget):
			slog.Warn("Dropping progression request with no reachable source", "error", err)
		default:
			slog.Error("Failed to handle progression request", "error", err)
		}
	}
}

// HandleRequest decodes and executes one request from the Progression channel.
func (m *Manager) HandleRequest(ctx context.Context, data []byte) error {
	msg, err := wire.Decode(data, wire.DefaultSchema)
	if err != nil {
		metrics.ProgressionRequests.WithLabelValues("unknown", "malformed").Inc()
		return err
	}

	sub, ok := msg.GetString("SubChannel")
	if !ok {
		metrics.ProgressionRequests.WithLabelValues("unknown", "malformed").Inc()
		return fmt.Errorf("%w: SubChannel not found", domain.ErrMalformedMessage)
	}
	id, ok := msg.GetUUID()
	if !ok {
		metrics.ProgressionRequests.WithLabelValues(sub, "malformed").Inc()
		return fmt.Errorf("%w: UUID not found", domain.ErrMalformedMessage)
	}

	server, err := m.resolveSource(msg, id)
	if err != nil {
		metrics.ProgressionRequests.WithLabelValues(sub, "unresolved").Inc()
		return err
	}

	err = m.dispatch(ctx, sub, id, server, msg)
	status := "ok"
	if err != nil {
		status = "error"
		if errors.Is(err, domain.ErrMalformedMessage) {
			status = "malformed"
		}
	}
	metrics.ProgressionRequests.WithLabelValues(sub, status).Inc()
	return err
}

func (m *Manager) dispatch(ctx context.Context, sub string, id uuid.UUID, server string, msg *wire.Message) error {
	switch sub {
	case SubGetLevel:
		level := m.Level(ctx, id)
		return m.reply(ctx, server, wire.NewMessage().
			String("SubChannel", SubGetLevel).
			UUID(id).
			Int32("Level", int32(level)))

	case SubSetLevel:
		level, ok := msg.GetInt32("Level")
		if !ok {
			return fmt.Errorf("%w: SetLevel without Level", domain.ErrMalformedMessage)
		}
		return m.SetLevel(ctx, id, int(level), "")

	case SubAddExperience:
		exp, ok := msg.GetInt64("Experience")
		if !ok {
			return fmt.Errorf("%w: AddExperience without Experience", domain.ErrMalformedMessage)
		}
		_, err := m.AddExperience(ctx, id, exp, "")
		return err

	case SubGetExperience:
		exp := m.Experience(ctx, id)
		return m.reply(ctx, server, wire.NewMessage().
			String("SubChannel", SubGetExperience).
			UUID(id).
			Int64("GetExperience", exp))

	default:
		return fmt.Errorf("%w: unknown SubChannel %q", domain.ErrMalformedMessage, sub)
	}
}

// resolveSource picks the server a reply would go to: the declared
// ServerSource if the proxy knows it, otherwise the player's current server.
func (m *Manager) resolveSource(msg *wire.Message, id uuid.UUID) (string, error) {
	if src, ok := msg.GetString("ServerSource"); ok && m.players.HasServer(src) {
		return src, nil
	}
	if server, online := m.players.ServerOf(id); online {
		return server, nil
	}
	return "", fmt.Errorf("%w: player %s", domain.ErrUnresolvedTarget, id)
}

func (m *Manager) reply(ctx context.Context, server string, msg *wire.Message) error {
	data, err := msg.Encode()
	if err != nil {
		return fmt.Errorf("encode reply: %w", err)
	}
	if !m.transport.SendData(ctx, server, ChannelReturn, data) {
		return fmt.Errorf("%w: reply to %s", domain.ErrTransportSend, server)
	}
	return nil
}
