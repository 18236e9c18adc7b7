package wire

import (
	"bytes"
	"fmt"

	"network-leveling/internal/core/domain"
)

// Prepend returns data preceded by one string field. Decoding the result
// yields the new field followed by the fields of data.
func Prepend(name, value string, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeString(&buf, name); err != nil {
		return nil, err
	}
	if err := writeString(&buf, value); err != nil {
		return nil, err
	}
	buf.Write(data)
	return buf.Bytes(), nil
}

// SplitLeading reads the first field of data as a string field and returns
// it with the undecoded remainder.
func SplitLeading(data []byte) (name, value string, rest []byte, err error) {
	r := bytes.NewReader(data)
	if name, err = readString(r); err != nil {
		return "", "", nil, fmt.Errorf("%w: leading field name: %v", domain.ErrMalformedMessage, err)
	}
	if value, err = readString(r); err != nil {
		return "", "", nil, fmt.Errorf("%w: leading field %q: %v", domain.ErrMalformedMessage, name, err)
	}
	return name, value, data[len(data)-r.Len():], nil
}
