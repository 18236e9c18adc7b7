package ports

import (
	"context"

	"network-leveling/internal/core/domain"
	"network-leveling/internal/wire"

	"github.com/google/uuid"
)

// Ledger stores progress records. Update reports (false, nil) when the
// backend matched nothing and does not create records on write; the document
// and flat-file backends always create, the relational backend never does.
type Ledger interface {
	Find(ctx context.Context, key string, value any) ([]domain.Document, error)
	Update(ctx context.Context, keyWhere string, valueWhere any, fields []wire.Field) (bool, error)
	Close() error
}

// Handler receives one raw payload. It may run concurrently with other handlers.
type Handler func(data []byte)

type Transport interface {
	RegisterChannel(ctx context.Context, name string) error
	AddListener(channel string, h Handler) error
	SendData(ctx context.Context, target, channel string, data []byte) bool
	Close() error
}

// PlayerDirectory is the proxy's view of connected players and known servers.
type PlayerDirectory interface {
	ServerOf(player uuid.UUID) (string, bool)
	HasServer(name string) bool
}

type Announcer interface {
	AnnounceLevelUp(ctx context.Context, levelUp domain.LevelUp) error
}
