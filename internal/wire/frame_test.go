package wire

import (
	"bytes"
	"errors"
	"testing"

	"network-leveling/internal/core/domain"

	"github.com/google/uuid"
)

func TestPrepend(t *testing.T) {
	id := uuid.New()
	body, err := NewMessage().String("SubChannel", "GetLevel").UUID(id).Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	framed, err := Prepend("ServerTarget", "lobby", body)
	if err != nil {
		t.Fatalf("Prepend: %v", err)
	}

	msg, err := Decode(framed, nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	fields := msg.Fields()
	if len(fields) != 3 || fields[0].Name != "ServerTarget" || fields[0].Value != "lobby" {
		t.Fatalf("unexpected fields: %+v", fields)
	}
	if got, _ := msg.GetUUID(); got != id {
		t.Errorf("expected uuid %s, got %s", id, got)
	}
}

func TestSplitLeading(t *testing.T) {
	payload := []byte{1, 2, 3}
	framed, err := Prepend("Channel", "Progression", payload)
	if err != nil {
		t.Fatalf("Prepend: %v", err)
	}

	name, value, rest, err := SplitLeading(framed)
	if err != nil {
		t.Fatalf("SplitLeading: %v", err)
	}
	if name != "Channel" || value != "Progression" {
		t.Errorf("unexpected leading field %s=%s", name, value)
	}
	if !bytes.Equal(rest, payload) {
		t.Errorf("expected rest %v, got %v", payload, rest)
	}

	_, _, rest, err = SplitLeading(framed[:len(framed)-len(payload)])
	if err != nil || len(rest) != 0 {
		t.Errorf("expected empty rest, got %v (err %v)", rest, err)
	}
}

func TestSplitLeading_Truncated(t *testing.T) {
	framed, _ := Prepend("Channel", "Progression", nil)

	for _, cut := range []int{1, 5, len(framed) - 1} {
		if _, _, _, err := SplitLeading(framed[:cut]); !errors.Is(err, domain.ErrMalformedMessage) {
			t.Errorf("cut %d: expected ErrMalformedMessage, got %v", cut, err)
		}
	}
}
