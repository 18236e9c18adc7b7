package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	minPoolConns = 1
	maxPoolConns = 100

	minAcquireTimeout = 100 * time.Millisecond
	maxAcquireTimeout = 2 * time.Minute

	maxMultiplier = 1000.0
)

// Validate checks every setting and returns all failures at once.
func (c *Config) Validate() error {
	var errs []error

	if err := c.validateLedger(); err != nil {
		errs = append(errs, err)
	}

	if err := c.validateTransport(); err != nil {
		errs = append(errs, err)
	}

	if err := c.validatePool(); err != nil {
		errs = append(errs, err)
	}

	if c.Progression == nil {
		errs = append(errs, fmt.Errorf("progression settings are missing"))
	} else if err := c.Progression.Validate(); err != nil {
		errs = append(errs, err)
	}

	if c.DiscordToken != "" && c.DiscordGuildID == "" {
		errs = append(errs, fmt.Errorf("DISCORD_GUILD_ID is required when DISCORD_TOKEN is set"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  %w", errors.Join(errs...))
	}

	return nil
}

func (c *Config) validateLedger() error {
	switch c.LedgerBackend {
	case LedgerPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for LEDGER_BACKEND=%s", c.LedgerBackend)
		}
	case LedgerMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for LEDGER_BACKEND=%s", c.LedgerBackend)
		}
	case LedgerFlatFile:
		if strings.TrimSpace(c.DataDir) == "" {
			return fmt.Errorf("DATA_DIR cannot be empty for LEDGER_BACKEND=%s", c.LedgerBackend)
		}
		return nil
	default:
		return fmt.Errorf("LEDGER_BACKEND must be one of %s, %s, %s, got %q",
			LedgerMongo, LedgerPostgres, LedgerFlatFile, c.LedgerBackend)
	}

	if c.LedgerTable == "" {
		return fmt.Errorf("LEDGER_TABLE cannot be empty")
	}
	return nil
}

func (c *Config) validateTransport() error {
	switch c.TransportBackend {
	case TransportDirect:
		if c.LinkAddr == "" {
			return fmt.Errorf("LINK_ADDR is required for TRANSPORT_BACKEND=%s", c.TransportBackend)
		}
	case TransportRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for TRANSPORT_BACKEND=%s", c.TransportBackend)
		}
		if c.RedisPoolSize < minPoolConns || c.RedisPoolSize > maxPoolConns {
			return fmt.Errorf("REDIS_POOL_SIZE must be between %d and %d, got %d",
				minPoolConns, maxPoolConns, c.RedisPoolSize)
		}
	default:
		return fmt.Errorf("TRANSPORT_BACKEND must be one of %s, %s, got %q",
			TransportDirect, TransportRedis, c.TransportBackend)
	}
	return nil
}

func (c *Config) validatePool() error {
	var errs []error

	if c.PoolMaxConns < minPoolConns || c.PoolMaxConns > maxPoolConns {
		errs = append(errs, fmt.Errorf("POOL_MAX_CONNS must be between %d and %d, got %d",
			minPoolConns, maxPoolConns, c.PoolMaxConns))
	}

	if c.PoolMinConns < 0 || c.PoolMinConns > c.PoolMaxConns {
		errs = append(errs, fmt.Errorf("POOL_MIN_CONNS must be between 0 and POOL_MAX_CONNS (%d), got %d",
			c.PoolMaxConns, c.PoolMinConns))
	}

	if c.PoolAcquireTimeout < minAcquireTimeout || c.PoolAcquireTimeout > maxAcquireTimeout {
		errs = append(errs, fmt.Errorf("POOL_ACQUIRE_TIMEOUT must be between %v and %v, got %v",
			minAcquireTimeout, maxAcquireTimeout, c.PoolAcquireTimeout))
	}

	return errors.Join(errs...)
}

// Validate checks the reloadable settings on their own so a bad reload can be
// rejected without touching the running configuration.
func (p *Progression) Validate() error {
	var errs []error

	if math.IsNaN(p.Multiplier) || p.Multiplier < 0 || p.Multiplier > maxMultiplier {
		errs = append(errs, fmt.Errorf("xp-multiplier must be between 0 and %v, got %v", maxMultiplier, p.Multiplier))
	}

	if p.Messages.AddExperience == "" || p.Messages.LevelUp == "" || p.Messages.SetLevel == "" {
		errs = append(errs, fmt.Errorf("messages add-experience, level-up and set-level cannot be empty"))
	}

	for _, g := range p.LevelGroups {
		if g.Min >= g.Max {
			errs = append(errs, fmt.Errorf("level group %q: min (%d) must be below max (%d)", g.Key, g.Min, g.Max))
		}
	}

	return errors.Join(errs...)
}
