// Package flatfile keeps one JSON file per player under a data directory.
// It can only be queried by player id.
package flatfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"network-leveling/internal/adapters/metrics"
	"network-leveling/internal/core/domain"
	"network-leveling/internal/wire"

	"github.com/google/uuid"
)

const (
	backendName = "flatfile"
	keyField    = "uuid"
)

type FlatFileLedger struct {
	dir string
	mu  sync.Mutex
}

func NewFlatFileLedger(dir string) (*FlatFileLedger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &FlatFileLedger{dir: dir}, nil
}

func (l *FlatFileLedger) Close() error {
	return nil
}

func (l *FlatFileLedger) Find(ctx context.Context, key string, value any) (docs []domain.Document, err error) {
	start := time.Now()
	defer func() { metrics.ObserveLedger(backendName, "find", start, err) }()

	id, err := playerKey(key, value)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	doc, err := l.read(id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return []domain.Document{doc}, nil
}

// Update merges fields into the player's file, creating it if needed.
func (l *FlatFileLedger) Update(ctx context.Context, keyWhere string, valueWhere any, fields []wire.Field) (ok bool, err error) {
	start := time.Now()
	defer func() { metrics.ObserveLedger(backendName, "update", start, err) }()

	id, err := playerKey(keyWhere, valueWhere)
	if err != nil {
		return false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	doc, err := l.read(id)
	if err != nil {
		return false, err
	}
	if doc == nil {
		doc = domain.Document{keyField: id.String()}
	}
	for _, f := range fields {
		doc[f.Name] = f.Value
	}

	if err := l.write(id, doc); err != nil {
		return false, err
	}
	return true, nil
}

func (l *FlatFileLedger) path(id uuid.UUID) string {
	return filepath.Join(l.dir, id.String()+".json")
}

// read returns nil without error when the player has no file.
func (l *FlatFileLedger) read(id uuid.UUID) (domain.Document, error) {
	data, err := os.ReadFile(l.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrLedgerUnavailable, id, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrLedgerUnavailable, id, err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s does not hold a JSON object", domain.ErrLedgerUnavailable, id)
	}
	return domain.Document(obj), nil
}

func (l *FlatFileLedger) write(id uuid.UUID, doc domain.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", domain.ErrLedgerUnavailable, id, err)
	}

	tmp, err := os.CreateTemp(l.dir, id.String()+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: write %s: %v", domain.ErrLedgerUnavailable, id, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %v", domain.ErrLedgerUnavailable, id, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: sync %s: %v", domain.ErrLedgerUnavailable, id, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", domain.ErrLedgerUnavailable, id, err)
	}
	if err := os.Rename(tmp.Name(), l.path(id)); err != nil {
		return fmt.Errorf("%w: replace %s: %v", domain.ErrLedgerUnavailable, id, err)
	}
	return nil
}

// playerKey accepts only the player id field with a string UUID value.
func playerKey(key string, value any) (uuid.UUID, error) {
	if !strings.EqualFold(key, keyField) {
		return uuid.Nil, fmt.Errorf("%w: flat files are keyed by %s, not %q", domain.ErrUnsupportedQuery, keyField, key)
	}
	s, ok := value.(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: %s value must be a string, got %T", domain.ErrUnsupportedQuery, keyField, value)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q is not a player id", domain.ErrUnsupportedQuery, s)
	}
	return id, nil
}
