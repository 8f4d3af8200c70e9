package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Data is the discovery record a host publishes under its advertised name:
// the topic joiners subscribe to plus application metadata.
type Data struct {
	SessionID string `json:"session_id"`
	Metadata  []byte `json:"metadata"`
}

// Metadata is the application payload of a discovery record: the target
// text and a syntax hint for highlighting.
type Metadata struct {
	Text   string `json:"text"`
	Syntax string `json:"syntax,omitempty"`
}

// NewSessionID generates a random topic name for one session.
func NewSessionID() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return "race-" + hex.EncodeToString(b[:]), nil
}

// EncodeMetadata serializes the application metadata of a discovery record.
func EncodeMetadata(m Metadata) ([]byte, error) {
	return json.Marshal(m)
}

// DecodeMetadata parses the application metadata of a discovery record.
func DecodeMetadata(b []byte) (Metadata, error) {
	var m Metadata
	if err := json.Unmarshal(b, &m); err != nil {
		return Metadata{}, fmt.Errorf("failed to decode session metadata: %w", err)
	}
	return m, nil
}

// EncodeData serializes a discovery record.
func EncodeData(d Data) ([]byte, error) {
	return json.Marshal(d)
}

// DecodeData parses a discovery record.
func DecodeData(b []byte) (Data, error) {
	var d Data
	if err := json.Unmarshal(b, &d); err != nil {
		return Data{}, fmt.Errorf("failed to decode session data: %w", err)
	}
	return d, nil
}

// StartTimeIn formats a start time the given interval in the future.
func StartTimeIn(d time.Duration) (time.Time, string) {
	at := time.Now().UTC().Add(d)
	return at, at.Format(time.RFC3339Nano)
}

// ParseStartTime parses a broadcast start time.
func ParseStartTime(s string) (time.Time, error) {
	at, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse session start %q: %w", s, err)
	}
	return at, nil
}

// WaitUntil blocks until the wall clock reaches at, as a single scheduled
// wake-up. It returns early if the context is cancelled.
func WaitUntil(ctx context.Context, at time.Time) error {
	delay := time.Until(at)
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
