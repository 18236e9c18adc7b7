package discord

import "sync"

// channelCache remembers resolved channel IDs by channel name for the
// adapter's guild.
type channelCache struct {
	mu  sync.RWMutex
	ids map[string]string
}

func newChannelCache() *channelCache {
	return &channelCache{ids: make(map[string]string)}
}

func (c *channelCache) Get(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.ids[name]
	return id, ok
}

func (c *channelCache) Set(name, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids[name] = id
}

func (c *channelCache) Invalidate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.ids, name)
}
