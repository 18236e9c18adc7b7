package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	LedgerMongo    = "mongodb"
	LedgerPostgres = "postgres"
	LedgerFlatFile = "flatfile"

	TransportDirect = "direct"
	TransportRedis  = "redis"
)

type Config struct {
	LogLevel     string
	LogFormat    string
	LogAddSource bool

	LedgerBackend      string
	DatabaseURL        string
	MongoURI           string
	MongoDatabase      string
	LedgerTable        string
	DataDir            string
	PoolMinConns       int
	PoolMaxConns       int
	PoolAcquireTimeout time.Duration

	TransportBackend string
	RedisAddr        string
	RedisPassword    string
	RedisPoolSize    int
	RedisPoolTimeout time.Duration

	LinkAddr    string
	MetricsAddr string

	ProgressionFile string

	DiscordToken        string
	DiscordGuildID      string
	DiscordChannelLevel string

	Progression *Progression
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:     envString("LOG_LEVEL", "info"),
		LogFormat:    envString("LOG_FORMAT", "text"),
		LogAddSource: envBool("LOG_ADD_SOURCE", false),

		LedgerBackend:      strings.ToLower(envString("LEDGER_BACKEND", LedgerFlatFile)),
		DatabaseURL:        secretOrEnv("database_url", "DATABASE_URL"),
		MongoURI:           secretOrEnv("mongo_uri", "MONGO_URI"),
		MongoDatabase:      envString("MONGO_DATABASE", "network"),
		LedgerTable:        envString("LEDGER_TABLE", "network_levels"),
		DataDir:            envString("DATA_DIR", "data"),
		PoolMinConns:       envInt("POOL_MIN_CONNS", 4),
		PoolMaxConns:       envInt("POOL_MAX_CONNS", 12),
		PoolAcquireTimeout: envDuration("POOL_ACQUIRE_TIMEOUT", 5*time.Second),

		TransportBackend: strings.ToLower(envString("TRANSPORT_BACKEND", TransportDirect)),
		RedisAddr:        envString("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    secretOrEnv("redis_password", "REDIS_PASSWORD"),
		RedisPoolSize:    envInt("REDIS_POOL_SIZE", 8),
		RedisPoolTimeout: envDuration("REDIS_POOL_TIMEOUT", 5*time.Second),

		LinkAddr:    envString("LINK_ADDR", ":8090"),
		MetricsAddr: envString("METRICS_ADDR", ":2112"),

		ProgressionFile: envString("PROGRESSION_FILE", "progression.yml"),

		DiscordToken:        secretOrEnv("discord_token", "DISCORD_TOKEN"),
		DiscordGuildID:      envString("DISCORD_GUILD_ID", ""),
		DiscordChannelLevel: envString("DISCORD_CHANNEL_LEVEL", "level-feed"),
	}

	progression, err := LoadProgression(cfg.ProgressionFile)
	if err != nil {
		return nil, fmt.Errorf("load progression file: %w", err)
	}
	cfg.Progression = progression

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DiscordEnabled reports whether level-up announcements should be posted.
func (c *Config) DiscordEnabled() bool {
	return c.DiscordToken != "" && c.DiscordGuildID != ""
}

var secretsDir = "/run/secrets/"

func readSecret(name string) string {
	data, err := os.ReadFile(secretsDir + name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func secretOrEnv(secret, key string) string {
	if v := readSecret(secret); v != "" {
		return v
	}
	return os.Getenv(key)
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
