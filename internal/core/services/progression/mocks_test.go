package progression

import (
	"context"
	"sync"

	"network-leveling/internal/core/domain"
	"network-leveling/internal/core/ports"
	"network-leveling/internal/wire"

	"github.com/google/uuid"
)

// memLedger is an auto-creating in-memory ledger keyed on the uuid field.
type memLedger struct {
	mu      sync.Mutex
	docs    map[string]domain.Document
	findErr error
	updates int

	updateFunc func(ctx context.Context, key string, value any, fields []wire.Field) (bool, error)
}

func newMemLedger() *memLedger {
	return &memLedger{docs: make(map[string]domain.Document)}
}

func (l *memLedger) Find(ctx context.Context, key string, value any) ([]domain.Document, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.findErr != nil {
		return nil, l.findErr
	}
	doc, ok := l.docs[value.(string)]
	if !ok {
		return nil, nil
	}
	out := domain.Document{}
	for k, v := range doc {
		out[k] = v
	}
	return []domain.Document{out}, nil
}

func (l *memLedger) Update(ctx context.Context, key string, value any, fields []wire.Field) (bool, error) {
	if l.updateFunc != nil {
		return l.updateFunc(ctx, key, value, fields)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.updates++
	doc, ok := l.docs[value.(string)]
	if !ok {
		doc = domain.Document{key: value}
		l.docs[value.(string)] = doc
	}
	for _, f := range fields {
		doc[f.Name] = f.Value
	}
	return true, nil
}

func (l *memLedger) Close() error { return nil }

func (l *memLedger) set(id uuid.UUID, level int32, exp int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.docs[id.String()] = domain.Document{"uuid": id.String(), "level": level, "experience": exp}
}

type sent struct {
	target  string
	channel string
	msg     *wire.Message
}

type mockTransport struct {
	mu         sync.Mutex
	registered []string
	listeners  map[string]ports.Handler
	sent       []sent
	fail       bool

	sendFunc func(target, channel string) bool
}

func newMockTransport() *mockTransport {
	return &mockTransport{listeners: make(map[string]ports.Handler)}
}

func (t *mockTransport) RegisterChannel(ctx context.Context, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.registered = append(t.registered, name)
	return nil
}

func (t *mockTransport) AddListener(channel string, h ports.Handler) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range t.registered {
		if r == channel {
			t.listeners[channel] = h
			return nil
		}
	}
	return domain.ErrChannelNotRegistered
}

func (t *mockTransport) SendData(ctx context.Context, target, channel string, data []byte) bool {
	if t.sendFunc != nil && !t.sendFunc(target, channel) {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fail {
		return false
	}
	msg, err := wire.Decode(data, nil)
	if err != nil {
		return false
	}
	t.sent = append(t.sent, sent{target: target, channel: channel, msg: msg})
	return true
}

func (t *mockTransport) Close() error { return nil }

func (t *mockTransport) on(channel string) []sent {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []sent
	for _, s := range t.sent {
		if s.channel == channel {
			out = append(out, s)
		}
	}
	return out
}

// chatLines returns the text of every ProgressionMessage sent so far.
func (t *mockTransport) chatLines() []string {
	var lines []string
	for _, s := range t.on(ChannelMessage) {
		text, _ := s.msg.GetString("Message")
		lines = append(lines, text)
	}
	return lines
}

type mockPlayers struct {
	mu      sync.Mutex
	online  map[uuid.UUID]string
	servers map[string]bool
}

func newMockPlayers(servers ...string) *mockPlayers {
	p := &mockPlayers{online: make(map[uuid.UUID]string), servers: make(map[string]bool)}
	for _, s := range servers {
		p.servers[s] = true
	}
	return p
}

func (p *mockPlayers) ServerOf(id uuid.UUID) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.online[id]
	return s, ok
}

func (p *mockPlayers) HasServer(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.servers[name]
}

func (p *mockPlayers) join(id uuid.UUID, server string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online[id] = server
	p.servers[server] = true
}

type mockAnnouncer struct {
	mu        sync.Mutex
	announced []domain.LevelUp
	err       error
}

func (a *mockAnnouncer) AnnounceLevelUp(ctx context.Context, levelUp domain.LevelUp) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.announced = append(a.announced, levelUp)
	return a.err
}
