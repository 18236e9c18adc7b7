package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// MockDB implements DBTX
type MockDB struct {
	ExecFunc  func(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	QueryFunc func(ctx context.Context, sql string, arguments ...interface{}) (pgx.Rows, error)
}

func (m *MockDB) Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error) {
	if m.ExecFunc != nil {
		return m.ExecFunc(ctx, sql, arguments...)
	}
	return pgconn.CommandTag{}, nil
}

func (m *MockDB) Query(ctx context.Context, sql string, arguments ...interface{}) (pgx.Rows, error) {
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, sql, arguments...)
	}
	return &MockRows{}, nil
}

// MockRows implements pgx.Rows over an in-memory result set.
type MockRows struct {
	Columns []string
	Data    [][]any
	ErrFunc func() error

	pos    int
	closed bool
}

func (m *MockRows) Close() {
	m.closed = true
}

func (m *MockRows) Err() error {
	if m.ErrFunc != nil {
		return m.ErrFunc()
	}
	return nil
}

func (m *MockRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (m *MockRows) FieldDescriptions() []pgconn.FieldDescription {
	fds := make([]pgconn.FieldDescription, len(m.Columns))
	for i, c := range m.Columns {
		fds[i] = pgconn.FieldDescription{Name: c}
	}
	return fds
}

func (m *MockRows) Next() bool {
	if m.closed || m.pos >= len(m.Data) {
		return false
	}
	m.pos++
	return true
}

func (m *MockRows) Scan(dest ...interface{}) error {
	if len(dest) == 1 {
		if rs, ok := dest[0].(pgx.RowScanner); ok {
			return rs.ScanRow(m)
		}
	}
	return nil
}

func (m *MockRows) Values() ([]any, error) {
	return m.Data[m.pos-1], nil
}

func (m *MockRows) RawValues() [][]byte { return nil }

func (m *MockRows) Conn() *pgx.Conn { return nil }
