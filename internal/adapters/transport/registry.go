// Package transport holds the listener bookkeeping shared by every bus
// backend.
package transport

import (
	"fmt"
	"sync"

	"network-leveling/internal/core/domain"
	"network-leveling/internal/core/ports"
)

// Registry maps registered channels to their handlers.
type Registry struct {
	mu       sync.RWMutex
	channels map[string][]ports.Handler
}

func NewRegistry() *Registry {
	return &Registry{channels: make(map[string][]ports.Handler)}
}

// Register declares a channel. It reports false if it already existed.
func (r *Registry) Register(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.channels[name]; ok {
		return false
	}
	r.channels[name] = nil
	return true
}

func (r *Registry) Registered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.channels[name]
	return ok
}

func (r *Registry) AddListener(channel string, h ports.Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	handlers, ok := r.channels[channel]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrChannelNotRegistered, channel)
	}
	r.channels[channel] = append(handlers, h)
	return nil
}

// Dispatch calls every handler of channel with data on the caller's
// goroutine. It reports false when the channel is not registered.
func (r *Registry) Dispatch(channel string, data []byte) bool {
	r.mu.RLock()
	handlers, ok := r.channels[channel]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	for _, h := range handlers {
		h(data)
	}
	return true
}
