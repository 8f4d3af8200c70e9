package session

import (
	"testing"
)

func TestCommandRoundTrip(t *testing.T) {
	data, err := EncodeCommand(CmdRegister, Register{User: "amy"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	cmd, err := DecodeCommand(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cmd.Type != CmdRegister {
		t.Fatalf("unexpected type %q", cmd.Type)
	}
	var reg Register
	if err := cmd.Body(&reg); err != nil {
		t.Fatalf("body: %v", err)
	}
	if reg.User != "amy" {
		t.Fatalf("unexpected user %q", reg.User)
	}
}

func TestDecodeCommandRejectsUnknownType(t *testing.T) {
	if _, err := DecodeCommand([]byte(`{"type":"teleport"}`)); err == nil {
		t.Fatalf("expected error for unknown command type")
	}
	if _, err := DecodeCommand([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for malformed command")
	}
}

func TestRacePayloadInput(t *testing.T) {
	data, err := EncodeInput('é')
	if err != nil {
		t.Fatalf("encode input: %v", err)
	}
	payload, err := DecodePayload(data)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	ch, err := payload.Input()
	if err != nil {
		t.Fatalf("input: %v", err)
	}
	if ch != 'é' {
		t.Fatalf("unexpected rune %q", ch)
	}
}

func TestRacePayloadForfeit(t *testing.T) {
	data, err := EncodeForfeit()
	if err != nil {
		t.Fatalf("encode forfeit: %v", err)
	}
	payload, err := DecodePayload(data)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Type != PayloadForfeit {
		t.Fatalf("unexpected type %q", payload.Type)
	}
	if _, err := payload.Input(); err == nil {
		t.Fatalf("expected error extracting rune from forfeit")
	}
}

func TestDecodePayloadRejectsUnknownType(t *testing.T) {
	if _, err := DecodePayload([]byte(`{"type":"emote"}`)); err == nil {
		t.Fatalf("expected error for unknown payload type")
	}
}
