package p2p

import (
	"context"
	"fmt"
	"sync"
)

// MemoryHub is an in-process Network fabric. Every node attached to the
// same hub shares one topic space and one record store. It backs tests and
// offline play with the exact semantics the libp2p service provides:
// publishers never receive their own messages.
type MemoryHub struct {
	mu      sync.Mutex
	records map[string][]byte
	topics  map[string]map[*MemoryNode]chan Message
}

// NewMemoryHub creates an empty hub.
func NewMemoryHub() *MemoryHub {
	return &MemoryHub{
		records: map[string][]byte{},
		topics:  map[string]map[*MemoryNode]chan Message{},
	}
}

// Node attaches a new peer with the given identity to the hub.
func (h *MemoryHub) Node(id string) *MemoryNode {
	return &MemoryNode{hub: h, id: id}
}

// MemoryNode is one peer's handle onto a MemoryHub.
type MemoryNode struct {
	hub    *MemoryHub
	id     string
	mu     sync.Mutex
	closed bool
}

// ID implements Network.
func (n *MemoryNode) ID() string {
	return n.id
}

func (n *MemoryNode) isClosed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.closed
}

// Subscribe implements Network.
func (n *MemoryNode) Subscribe(_ context.Context, topic string) (<-chan Message, error) {
	if n.isClosed() {
		return nil, ErrChannelClosed
	}
	n.hub.mu.Lock()
	defer n.hub.mu.Unlock()
	subs, ok := n.hub.topics[topic]
	if !ok {
		subs = map[*MemoryNode]chan Message{}
		n.hub.topics[topic] = subs
	}
	if _, ok := subs[n]; ok {
		return nil, fmt.Errorf("already subscribed to topic %q", topic)
	}
	ch := make(chan Message, 64)
	subs[n] = ch
	return ch, nil
}

// Unsubscribe implements Network.
func (n *MemoryNode) Unsubscribe(_ context.Context, topic string) error {
	if n.isClosed() {
		return ErrChannelClosed
	}
	n.hub.mu.Lock()
	defer n.hub.mu.Unlock()
	if ch, ok := n.hub.topics[topic][n]; ok {
		delete(n.hub.topics[topic], n)
		close(ch)
	}
	return nil
}

// Publish implements Network. Delivery is synchronous to every other
// subscriber's buffered channel.
func (n *MemoryNode) Publish(_ context.Context, topic string, data []byte) error {
	if n.isClosed() {
		return ErrChannelClosed
	}
	n.hub.mu.Lock()
	defer n.hub.mu.Unlock()
	for sub, ch := range n.hub.topics[topic] {
		if sub == n {
			continue
		}
		ch <- Message{From: n.id, Topic: topic, Data: data}
	}
	return nil
}

// PutRecord implements Network.
func (n *MemoryNode) PutRecord(_ context.Context, key string, value []byte) error {
	if n.isClosed() {
		return ErrChannelClosed
	}
	n.hub.mu.Lock()
	defer n.hub.mu.Unlock()
	n.hub.records[key] = value
	return nil
}

// GetRecord implements Network.
func (n *MemoryNode) GetRecord(_ context.Context, key string) ([]byte, error) {
	if n.isClosed() {
		return nil, ErrChannelClosed
	}
	n.hub.mu.Lock()
	defer n.hub.mu.Unlock()
	value, ok := n.hub.records[key]
	if !ok || len(value) == 0 {
		return nil, ErrRecordNotFound
	}
	return value, nil
}

// RemoveRecord implements Network.
func (n *MemoryNode) RemoveRecord(_ context.Context, key string) error {
	if n.isClosed() {
		return ErrChannelClosed
	}
	n.hub.mu.Lock()
	defer n.hub.mu.Unlock()
	delete(n.hub.records, key)
	return nil
}

// Close implements Network.
func (n *MemoryNode) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	n.mu.Unlock()

	n.hub.mu.Lock()
	defer n.hub.mu.Unlock()
	for _, subs := range n.hub.topics {
		if ch, ok := subs[n]; ok {
			delete(subs, n)
			close(ch)
		}
	}
	return nil
}
