package discord

import (
	"log/slog"

	"network-leveling/internal/config"

	"github.com/bwmarrin/discordgo"
)

// NewSession builds a bot session that only needs guild metadata to find
// the announcement channel.
func NewSession(cfg *config.Config) (*discordgo.Session, error) {
	discord, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		slog.Error("Failed to create discord session", "error", err)
		return nil, err
	}

	discord.Identify.Intents = discordgo.IntentsGuilds

	return discord, nil
}
