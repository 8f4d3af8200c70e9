// Package p2p provides the peer-to-peer pub/sub and record service the
// session protocol is built on. The session layer consumes the Network
// interface and never touches transport details.
package p2p

import (
	"context"
	"errors"
)

var (
	// ErrChannelClosed reports an operation against a closed network handle.
	ErrChannelClosed = errors.New("p2p channel closed")
	// ErrRecordNotFound reports a missing discovery record.
	ErrRecordNotFound = errors.New("record not found")
)

// Message is one inbound topic message with its attributed sender.
type Message struct {
	From  string
	Topic string
	Data  []byte
}

// Network is the opaque publish/subscribe plus key/value record service.
// Implementations deliver only messages published by other peers; a peer
// never receives its own publishes.
type Network interface {
	// ID returns the local peer identity string.
	ID() string
	// Subscribe joins a topic and returns its inbound message stream. The
	// stream closes when the topic is unsubscribed or the network shuts
	// down.
	Subscribe(ctx context.Context, topic string) (<-chan Message, error)
	// Unsubscribe leaves a topic.
	Unsubscribe(ctx context.Context, topic string) error
	// Publish sends a payload on a topic.
	Publish(ctx context.Context, topic string, data []byte) error
	// PutRecord stores a value under a key in the shared record store.
	PutRecord(ctx context.Context, key string, value []byte) error
	// GetRecord fetches the value stored under a key.
	GetRecord(ctx context.Context, key string) ([]byte, error)
	// RemoveRecord deletes the local copy of a stored record.
	RemoveRecord(ctx context.Context, key string) error
	// Close shuts the service down; subsequent operations fail with
	// ErrChannelClosed.
	Close() error
}
