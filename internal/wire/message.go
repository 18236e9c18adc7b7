package wire

import "github.com/google/uuid"

// Message is an ordered field sequence with by-name lookup. When a name
// repeats, lookups see the first occurrence.
type Message struct {
	fields []Field
	index  map[string]int
}

func NewMessage() *Message {
	return &Message{index: make(map[string]int)}
}

func (m *Message) add(name string, v any) *Message {
	if _, exists := m.index[name]; !exists {
		m.index[name] = len(m.fields)
	}
	m.fields = append(m.fields, Field{Name: name, Value: v})
	return m
}

func (m *Message) String(name, v string) *Message {
	return m.add(name, v)
}

func (m *Message) Int32(name string, v int32) *Message {
	return m.add(name, v)
}

func (m *Message) Int64(name string, v int64) *Message {
	return m.add(name, v)
}

// UUID appends the conventional "UUID" field.
func (m *Message) UUID(id uuid.UUID) *Message {
	return m.add("UUID", id)
}

func (m *Message) Fields() []Field {
	return append([]Field(nil), m.fields...)
}

func (m *Message) Encode() ([]byte, error) {
	return Encode(m.fields)
}

func (m *Message) Has(name string) bool {
	_, ok := m.index[name]
	return ok
}

func (m *Message) GetString(name string) (string, bool) {
	v, ok := m.lookup(name).(string)
	return v, ok
}

func (m *Message) GetInt32(name string) (int32, bool) {
	v, ok := m.lookup(name).(int32)
	return v, ok
}

func (m *Message) GetInt64(name string) (int64, bool) {
	v, ok := m.lookup(name).(int64)
	return v, ok
}

func (m *Message) GetUUID() (uuid.UUID, bool) {
	v, ok := m.lookup("UUID").(uuid.UUID)
	return v, ok
}

func (m *Message) lookup(name string) any {
	i, ok := m.index[name]
	if !ok {
		return nil
	}
	return m.fields[i].Value
}
