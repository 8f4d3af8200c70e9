// Package session implements the peer coordination protocol: discovery,
// registration, start-time negotiation, and in-race message relay over an
// opaque pub/sub network.
package session

import (
	"encoding/json"
	"fmt"
)

// CommandType tags the wire-level command union.
type CommandType string

// Wire commands exchanged on the session topic.
const (
	CmdRegister CommandType = "register"
	CmdLock     CommandType = "lock_session"
	CmdPush     CommandType = "push"
	CmdEnd      CommandType = "end_session"
)

// Command is the serialized envelope for one session command.
type Command struct {
	Type CommandType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Register announces participation to the session host.
type Register struct {
	User string `json:"user"`
}

// Lock is issued by the host to close registrations and schedule the race.
// SessionStart is RFC 3339 with nanoseconds, UTC.
type Lock struct {
	RegisteredUsers map[string]string `json:"registered_users"`
	SessionStart    string            `json:"session_start"`
}

// Push carries an application-level payload; only meaningful once a Lock
// has been observed locally.
type Push struct {
	Payload []byte `json:"payload"`
}

// EncodeCommand serializes a command envelope with its typed body.
func EncodeCommand(t CommandType, body any) ([]byte, error) {
	var data json.RawMessage
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode command body: %w", err)
		}
		data = b
	}
	return json.Marshal(Command{Type: t, Data: data})
}

// DecodeCommand parses a command envelope.
func DecodeCommand(b []byte) (*Command, error) {
	var cmd Command
	if err := json.Unmarshal(b, &cmd); err != nil {
		return nil, fmt.Errorf("failed to decode command: %w", err)
	}
	switch cmd.Type {
	case CmdRegister, CmdLock, CmdPush, CmdEnd:
	default:
		return nil, fmt.Errorf("unknown command type %q", cmd.Type)
	}
	return &cmd, nil
}

// Body decodes the envelope's body into the given command struct.
func (c *Command) Body(v any) error {
	if err := json.Unmarshal(c.Data, v); err != nil {
		return fmt.Errorf("failed to decode %s body: %w", c.Type, err)
	}
	return nil
}

// PayloadType tags the nested race-level payload union inside a Push.
type PayloadType string

// Race payloads.
const (
	PayloadInput   PayloadType = "input"
	PayloadForfeit PayloadType = "forfeit"
)

// RacePayload is the application payload relayed through Push commands.
type RacePayload struct {
	Type PayloadType `json:"type"`
	Char string      `json:"char,omitempty"`
}

// Input returns the payload's rune for an input payload.
func (p *RacePayload) Input() (rune, error) {
	runes := []rune(p.Char)
	if p.Type != PayloadInput || len(runes) != 1 {
		return 0, fmt.Errorf("payload carries no input rune")
	}
	return runes[0], nil
}

// EncodeInput serializes a character-input race payload.
func EncodeInput(ch rune) ([]byte, error) {
	return json.Marshal(RacePayload{Type: PayloadInput, Char: string(ch)})
}

// EncodeForfeit serializes a forfeit race payload.
func EncodeForfeit() ([]byte, error) {
	return json.Marshal(RacePayload{Type: PayloadForfeit})
}

// DecodePayload parses a race payload.
func DecodePayload(b []byte) (*RacePayload, error) {
	var p RacePayload
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("failed to decode race payload: %w", err)
	}
	switch p.Type {
	case PayloadInput, PayloadForfeit:
	default:
		return nil, fmt.Errorf("unknown payload type %q", p.Type)
	}
	return &p, nil
}
