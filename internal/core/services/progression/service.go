// Package progression is the proxy-side authority for player levels and
// experience. It answers requests arriving over the transport, applies
// experience with the level-up rules and delivers player notifications,
// holding them back while a player is offline.
package progression

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"network-leveling/internal/catalog"
	"network-leveling/internal/config"
	"network-leveling/internal/core/ports"
)

const (
	ChannelRequests = "Progression"
	ChannelReturn   = "ProgressionReturn"
	ChannelMetadata = "ProgressionMetadata"
	ChannelMessage  = "ProgressionMessage"
)

// Ledger field names shared by every backend.
const (
	fieldUUID       = "uuid"
	fieldLevel      = "level"
	fieldExperience = "experience"
)

// Level-up announcements run off the request path, at most
// maxAnnouncements at a time, each bounded by announceTimeout.
const (
	maxAnnouncements = 8
	announceTimeout  = 10 * time.Second
)

// KeyField is the ledger field every progress record is keyed on.
const KeyField = fieldUUID

type Dependencies struct {
	Ledger      ports.Ledger
	Transport   ports.Transport
	Players     ports.PlayerDirectory
	Catalog     *catalog.Catalog
	Announcer   ports.Announcer
	Progression *config.Progression
}

type Manager struct {
	ledger    ports.Ledger
	transport ports.Transport
	players   ports.PlayerDirectory
	catalog   *catalog.Catalog
	announcer ports.Announcer

	settings atomic.Pointer[config.Progression]
	locks    *playerLocks
	delivery *playerLocks
	pending  *pendingQueue

	announceSlots chan struct{}
	announcing    sync.WaitGroup
}

func NewManager(deps Dependencies) *Manager {
	cat := deps.Catalog
	if cat == nil {
		cat = catalog.New(nil)
	}
	m := &Manager{
		ledger:    deps.Ledger,
		transport: deps.Transport,
		players:   deps.Players,
		catalog:   cat,
		announcer: deps.Announcer,
		locks:     newPlayerLocks(),
		delivery:  newPlayerLocks(),
		pending:   newPendingQueue(),

		announceSlots: make(chan struct{}, maxAnnouncements),
	}
	progression := deps.Progression
	if progression == nil {
		progression = config.DefaultProgression()
	}
	m.Reload(progression)
	return m
}

// Reload swaps multiplier, templates and level groups. Updates already in
// flight finish with the settings they started with.
func (m *Manager) Reload(p *config.Progression) {
	m.settings.Store(p)
	m.catalog.Reload(p.LevelGroups)
	slog.Info("Progression settings loaded", "multiplier", p.Multiplier, "level_groups", len(p.LevelGroups))
}

func (m *Manager) Settings() *config.Progression {
	return m.settings.Load()
}

// Wait blocks until every level-up announcement already started has
// finished.
func (m *Manager) Wait() {
	m.announcing.Wait()
}

func (m *Manager) Catalog() *catalog.Catalog {
	return m.catalog
}

// RegisterMessaging declares the progression channels and starts listening
// for requests. It must run before any backend server can reach the proxy.
func (m *Manager) RegisterMessaging(ctx context.Context) error {
	for _, ch := range []string{ChannelRequests, ChannelMetadata, ChannelReturn, ChannelMessage} {
		if err := m.transport.RegisterChannel(ctx, ch); err != nil {
			return fmt.Errorf("register channel %s: %w", ch, err)
		}
	}
	if err := m.transport.AddListener(ChannelRequests, m.onRequest); err != nil {
		return fmt.Errorf("listen on %s: %w", ChannelRequests, err)
	}
	return nil
}
