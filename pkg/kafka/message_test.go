package kafka

import (
	"testing"
)

func TestMessageBuilder_Build(t *testing.T) {
	msg, err := NewMessage().
		WithKey("e1:2024-06-01:10:00").
		WithValue(map[string]string{"new_state": "reserved"}).
		WithEventType("slot.reserved").
		WithSource("reservations-a").
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if msg.GetEventID() == "" {
		t.Error("expected generated event id")
	}
	if msg.Headers[HeaderTimestamp] == "" {
		t.Error("expected timestamp header")
	}
	if msg.GetSource() != "reservations-a" {
		t.Errorf("expected source header, got %q", msg.GetSource())
	}

	var decoded map[string]string
	if err := msg.DecodeValue(&decoded); err != nil {
		t.Fatalf("DecodeValue() error = %v", err)
	}
	if decoded["new_state"] != "reserved" {
		t.Errorf("unexpected payload: %v", decoded)
	}
}

func TestMessageBuilder_EncodingError(t *testing.T) {
	_, err := NewMessage().WithKey("k").WithValue(make(chan int)).Build()
	if err == nil {
		t.Fatal("expected encoding error")
	}
}

func TestKafkaMessageConversion(t *testing.T) {
	msg, err := NewMessage().WithKey("k").WithValue("v").WithHeader("x", "y").Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	back := fromKafkaMessage(toKafkaMessage(msg))
	if back.Key != "k" || string(back.Value) != `"v"` || back.Headers["x"] != "y" {
		t.Errorf("conversion lost data: %+v", back)
	}
}
