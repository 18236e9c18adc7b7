// Package wire implements the flat binary message format spoken between the
// proxy and backend servers. A message is a sequence of name/value pairs with
// no type tags: names and strings are uint16 length-prefixed modified UTF-8
// (the DataOutput.writeUTF encoding backends use), integers are fixed-width
// big-endian and a UUID is two int64 halves.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"network-leveling/internal/core/domain"

	"github.com/google/uuid"
)

type Kind uint8

const (
	KindString Kind = iota
	KindInt32
	KindInt64
	KindUUID
)

// Field is one named value. Value must be a string, int32, int64 or uuid.UUID
// to be encodable.
type Field struct {
	Name  string
	Value any
}

// Schema tells the decoder how to read the value that follows a name.
// Names missing from the schema are read as strings.
type Schema map[string]Kind

// DefaultSchema covers every field of the progression protocol.
var DefaultSchema = Schema{
	"UUID":          KindUUID,
	"Level":         KindInt32,
	"Experience":    KindInt64,
	"GetExperience": KindInt64,
}

func (s Schema) kindOf(name string) Kind {
	if k, ok := s[name]; ok {
		return k
	}
	return KindString
}

func Encode(fields []Field) ([]byte, error) {
	var buf bytes.Buffer
	for _, f := range fields {
		if err := writeString(&buf, f.Name); err != nil {
			return nil, fmt.Errorf("encode field name: %w", err)
		}
		if err := writeValue(&buf, f.Value); err != nil {
			return nil, fmt.Errorf("encode field %q: %w", f.Name, err)
		}
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case string:
		return writeString(buf, val)
	case int32:
		return binary.Write(buf, binary.BigEndian, val)
	case int64:
		return binary.Write(buf, binary.BigEndian, val)
	case uuid.UUID:
		buf.Write(val[:])
		return nil
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
}

func writeString(buf *bytes.Buffer, s string) error {
	b := appendModifiedUTF8(make([]byte, 0, len(s)), s)
	if len(b) > math.MaxUint16 {
		return fmt.Errorf("string too long: %d encoded bytes", len(b))
	}
	var n [2]byte
	binary.BigEndian.PutUint16(n[:], uint16(len(b)))
	buf.Write(n[:])
	buf.Write(b)
	return nil
}

// Decode reads fields until data is exhausted. A stream that ends inside a
// field yields domain.ErrMalformedMessage.
func Decode(data []byte, schema Schema) (*Message, error) {
	if schema == nil {
		schema = DefaultSchema
	}
	r := bytes.NewReader(data)
	msg := NewMessage()
	for r.Len() > 0 {
		name, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("%w: field name: %v", domain.ErrMalformedMessage, err)
		}
		v, err := readValue(r, schema.kindOf(name))
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", domain.ErrMalformedMessage, name, err)
		}
		msg.add(name, v)
	}
	return msg, nil
}

func readValue(r *bytes.Reader, kind Kind) (any, error) {
	switch kind {
	case KindInt32:
		var v int32
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return nil, err
		}
		return v, nil
	case KindInt64:
		var v int64
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return nil, err
		}
		return v, nil
	case KindUUID:
		var id uuid.UUID
		if _, err := io.ReadFull(r, id[:]); err != nil {
			return nil, err
		}
		return id, nil
	default:
		return readString(r)
	}
}

func readString(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return decodeModifiedUTF8(b)
}
