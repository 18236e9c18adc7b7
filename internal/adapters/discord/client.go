package discord

import (
	"context"
	"fmt"
	"log/slog"

	"network-leveling/internal/adapters/discord/formatting"
	"network-leveling/internal/adapters/metrics"
	"network-leveling/internal/config"
	"network-leveling/internal/core/domain"

	"github.com/bwmarrin/discordgo"
)

type DiscordSession interface {
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Adapter posts level-ups to a text channel of one guild.
type Adapter struct {
	session DiscordSession
	guildID string
	channel string
	cache   *channelCache
}

func NewAdapter(session DiscordSession, cfg *config.Config) *Adapter {
	return &Adapter{
		session: session,
		guildID: cfg.DiscordGuildID,
		channel: cfg.DiscordChannelLevel,
		cache:   newChannelCache(),
	}
}

func (a *Adapter) AnnounceLevelUp(ctx context.Context, levelUp domain.LevelUp) error {
	content := formatting.MsgLevelUp(levelUp.Player, levelUp.OldLevel, levelUp.NewLevel, levelUp.Group.Name)
	return a.SendMessage(ctx, a.channel, content)
}

func (a *Adapter) SendMessage(ctx context.Context, channelName, message string) error {
	channelID, err := a.resolveChannelID(ctx, channelName)
	if err != nil {
		slog.Error("Failed to get channel ID", "guild_id", a.guildID, "channel_name", channelName, "error", err)
		metrics.DiscordMessagesSent.WithLabelValues("failure").Inc()
		return err
	}

	if _, err := a.session.ChannelMessageSend(channelID, message, discordgo.WithContext(ctx)); err != nil {
		slog.Error("Failed to send message", "channel_id", channelID, "error", err)
		a.cache.Invalidate(channelName)
		metrics.DiscordMessagesSent.WithLabelValues("failure").Inc()
		return err
	}

	metrics.DiscordMessagesSent.WithLabelValues("success").Inc()
	return nil
}

func (a *Adapter) resolveChannelID(ctx context.Context, channelName string) (string, error) {
	if id, ok := a.cache.Get(channelName); ok {
		return id, nil
	}

	id, err := a.fetchChannelID(ctx, channelName)
	if err != nil {
		return "", err
	}

	a.cache.Set(channelName, id)
	return id, nil
}

func (a *Adapter) fetchChannelID(ctx context.Context, channelName string) (string, error) {
	channels, err := a.session.GuildChannels(a.guildID, discordgo.WithContext(ctx))
	if err != nil {
		slog.Error("Failed to fetch guild channels", "guild_id", a.guildID, "error", err)
		return "", err
	}

	for _, ch := range channels {
		if ch.Name == channelName && ch.Type == discordgo.ChannelTypeGuildText {
			return ch.ID, nil
		}
	}

	return "", fmt.Errorf("channel %s not found", channelName)
}
