// Package sessions tracks which backend servers are linked and which server
// each online player is on.
package sessions

import (
	"context"
	"log/slog"
	"sync"

	"network-leveling/internal/adapters/metrics"

	"github.com/google/uuid"
)

// ConnectHook runs after a player is recorded as connected to server.
type ConnectHook func(ctx context.Context, player uuid.UUID, server string)

type Registry struct {
	mu      sync.RWMutex
	players map[uuid.UUID]string
	servers map[string]struct{}
	hooks   []ConnectHook
}

func NewRegistry() *Registry {
	return &Registry{
		players: make(map[uuid.UUID]string),
		servers: make(map[string]struct{}),
	}
}

func (r *Registry) OnConnect(hook ConnectHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, hook)
}

func (r *Registry) ServerOf(player uuid.UUID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.players[player]
	return s, ok
}

func (r *Registry) HasServer(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.servers[name]
	return ok
}

func (r *Registry) Online() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// ServerLinked adds or removes a backend server. Removing one also forgets
// every player that was on it.
func (r *Registry) ServerLinked(server string, linked bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if linked {
		r.servers[server] = struct{}{}
		return
	}

	delete(r.servers, server)
	dropped := 0
	for id, s := range r.players {
		if s == server {
			delete(r.players, id)
			dropped++
		}
	}
	metrics.OnlinePlayers.Set(float64(len(r.players)))
	if dropped > 0 {
		slog.Info("Forgot players of unlinked server", "server", server, "players", dropped)
	}
}

// Connect records player on server and then runs the connect hooks in
// registration order. A player switching servers is simply moved.
func (r *Registry) Connect(ctx context.Context, player uuid.UUID, server string) {
	r.mu.Lock()
	r.players[player] = server
	r.servers[server] = struct{}{}
	metrics.OnlinePlayers.Set(float64(len(r.players)))
	hooks := append([]ConnectHook(nil), r.hooks...)
	r.mu.Unlock()

	slog.Debug("Player connected", "player", player, "server", server)
	for _, hook := range hooks {
		hook(ctx, player, server)
	}
}

// Disconnect forgets player unless they have already moved to another
// server.
func (r *Registry) Disconnect(player uuid.UUID, server string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.players[player]; ok && current == server {
		delete(r.players, player)
		metrics.OnlinePlayers.Set(float64(len(r.players)))
		slog.Debug("Player disconnected", "player", player, "server", server)
	}
}

// HandleSession adapts link session events to Connect and Disconnect.
func (r *Registry) HandleSession(ctx context.Context) func(server string, joined bool, player uuid.UUID) {
	return func(server string, joined bool, player uuid.UUID) {
		if joined {
			r.Connect(ctx, player, server)
			return
		}
		r.Disconnect(player, server)
	}
}
