package p2p

import (
	"context"
	"fmt"
	"sync"

	"github.com/libp2p/go-libp2p"
	dht "github.com/libp2p/go-libp2p-kad-dht"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/routing"
	ma "github.com/multiformats/go-multiaddr"
	"go.uber.org/zap"
)

const recordNamespace = "tuirace"

// Service is the libp2p-backed Network: gossipsub topics for session
// traffic and the Kademlia DHT for discovery records.
type Service struct {
	log    *zap.Logger
	host   host.Host
	ps     *pubsub.PubSub
	kdht   *dht.IpfsDHT
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	topics map[string]*topicHandle
	closed bool
}

type topicHandle struct {
	topic  *pubsub.Topic
	sub    *pubsub.Subscription
	cancel context.CancelFunc
}

// NewService creates and bootstraps a libp2p host listening on the given
// TCP port, connected to the given bootstrap multiaddrs.
func NewService(ctx context.Context, log *zap.Logger, listenPort int, bootstrap []string) (*Service, error) {
	listenAddr, err := ma.NewMultiaddr(fmt.Sprintf("/ip4/0.0.0.0/tcp/%d", listenPort))
	if err != nil {
		return nil, fmt.Errorf("failed to build listen address: %w", err)
	}
	h, err := libp2p.New(libp2p.ListenAddrs(listenAddr))
	if err != nil {
		return nil, fmt.Errorf("failed to create libp2p host: %w", err)
	}

	sctx, cancel := context.WithCancel(ctx)
	kdht, err := dht.New(sctx, h,
		dht.Mode(dht.ModeServer),
		dht.NamespacedValidator(recordNamespace, sessionValidator{}),
	)
	if err != nil {
		cancel()
		if cerr := h.Close(); cerr != nil {
			// Best-effort host close.
			_ = cerr
		}
		return nil, fmt.Errorf("failed to create DHT: %w", err)
	}
	ps, err := pubsub.NewGossipSub(sctx, h)
	if err != nil {
		cancel()
		if cerr := h.Close(); cerr != nil {
			// Best-effort host close.
			_ = cerr
		}
		return nil, fmt.Errorf("failed to create pubsub: %w", err)
	}

	s := &Service{
		log:    log,
		host:   h,
		ps:     ps,
		kdht:   kdht,
		ctx:    sctx,
		cancel: cancel,
		topics: map[string]*topicHandle{},
	}

	log.Info("p2p service up", zap.String("peer", h.ID().String()))
	s.connectBootstrap(sctx, bootstrap)
	if err := kdht.Bootstrap(sctx); err != nil {
		if cerr := s.Close(); cerr != nil {
			// Best-effort shutdown.
			_ = cerr
		}
		return nil, fmt.Errorf("failed to bootstrap DHT: %w", err)
	}
	return s, nil
}

func (s *Service) connectBootstrap(ctx context.Context, addrs []string) {
	for _, addr := range addrs {
		maddr, err := ma.NewMultiaddr(addr)
		if err != nil {
			s.log.Warn("invalid bootstrap address", zap.String("addr", addr), zap.Error(err))
			continue
		}
		pi, err := peer.AddrInfoFromP2pAddr(maddr)
		if err != nil {
			s.log.Warn("invalid bootstrap peer", zap.String("addr", addr), zap.Error(err))
			continue
		}
		if err := s.host.Connect(ctx, *pi); err != nil {
			s.log.Warn("failed to connect bootstrap peer", zap.String("peer", pi.ID.String()), zap.Error(err))
		} else {
			s.log.Info("connected bootstrap peer", zap.String("peer", pi.ID.String()))
		}
	}
}

// ID implements Network.
func (s *Service) ID() string {
	return s.host.ID().String()
}

// Addrs returns the host's listen addresses for sharing with joiners.
func (s *Service) Addrs() []string {
	out := make([]string, 0, len(s.host.Addrs()))
	for _, addr := range s.host.Addrs() {
		out = append(out, fmt.Sprintf("%s/p2p/%s", addr, s.host.ID()))
	}
	return out
}

// Subscribe implements Network.
func (s *Service) Subscribe(ctx context.Context, topic string) (<-chan Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrChannelClosed
	}
	if _, ok := s.topics[topic]; ok {
		return nil, fmt.Errorf("already subscribed to topic %q", topic)
	}
	t, err := s.ps.Join(topic)
	if err != nil {
		return nil, fmt.Errorf("failed to join topic: %w", err)
	}
	sub, err := t.Subscribe()
	if err != nil {
		if cerr := t.Close(); cerr != nil {
			// Best-effort topic close.
			_ = cerr
		}
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	rctx, cancel := context.WithCancel(s.ctx)
	s.topics[topic] = &topicHandle{topic: t, sub: sub, cancel: cancel}

	out := make(chan Message, 64)
	go s.readLoop(rctx, topic, sub, out)
	return out, nil
}

func (s *Service) readLoop(ctx context.Context, topic string, sub *pubsub.Subscription, out chan<- Message) {
	defer close(out)
	self := s.host.ID()
	for {
		msg, err := sub.Next(ctx)
		if err != nil {
			if ctx.Err() == nil {
				s.log.Warn("topic read failed", zap.String("topic", topic), zap.Error(err))
			}
			return
		}
		if msg.GetFrom() == self {
			continue
		}
		m := Message{From: msg.GetFrom().String(), Topic: topic, Data: msg.Data}
		select {
		case out <- m:
		case <-ctx.Done():
			return
		}
	}
}

// Unsubscribe implements Network.
func (s *Service) Unsubscribe(_ context.Context, topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrChannelClosed
	}
	h, ok := s.topics[topic]
	if !ok {
		return nil
	}
	delete(s.topics, topic)
	h.cancel()
	h.sub.Cancel()
	if err := h.topic.Close(); err != nil {
		return fmt.Errorf("failed to close topic: %w", err)
	}
	return nil
}

// Publish implements Network.
func (s *Service) Publish(ctx context.Context, topic string, data []byte) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrChannelClosed
	}
	h, ok := s.topics[topic]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("not subscribed to topic %q", topic)
	}
	if err := h.topic.Publish(ctx, data); err != nil {
		return fmt.Errorf("failed to publish: %w", err)
	}
	return nil
}

// PutRecord implements Network.
func (s *Service) PutRecord(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrChannelClosed
	}
	s.mu.Unlock()
	if err := s.kdht.PutValue(ctx, dhtKey(key), value); err != nil {
		return fmt.Errorf("failed to put record: %w", err)
	}
	return nil
}

// GetRecord implements Network.
func (s *Service) GetRecord(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrChannelClosed
	}
	s.mu.Unlock()
	value, err := s.kdht.GetValue(ctx, dhtKey(key))
	if err != nil {
		if err == routing.ErrNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	if len(value) == 0 {
		// Removed records are overwritten with an empty value.
		return nil, ErrRecordNotFound
	}
	return value, nil
}

// RemoveRecord implements Network. The DHT offers no deletion, so removal
// overwrites the record with an empty value which readers treat as absent.
func (s *Service) RemoveRecord(ctx context.Context, key string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrChannelClosed
	}
	s.mu.Unlock()
	if err := s.kdht.PutValue(ctx, dhtKey(key), nil); err != nil {
		return fmt.Errorf("failed to remove record: %w", err)
	}
	return nil
}

// Close implements Network.
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for topic, h := range s.topics {
		h.cancel()
		h.sub.Cancel()
		if err := h.topic.Close(); err != nil {
			s.log.Warn("failed to close topic", zap.String("topic", topic), zap.Error(err))
		}
	}
	s.topics = map[string]*topicHandle{}
	s.mu.Unlock()

	s.cancel()
	if err := s.kdht.Close(); err != nil {
		if cerr := s.host.Close(); cerr != nil {
			// Best-effort host close.
			_ = cerr
		}
		return fmt.Errorf("failed to close DHT: %w", err)
	}
	if err := s.host.Close(); err != nil {
		return fmt.Errorf("failed to close host: %w", err)
	}
	return nil
}

func dhtKey(key string) string {
	return "/" + recordNamespace + "/" + key
}

// sessionValidator accepts any stored value; discovery records are opaque
// session metadata and peers are assumed non-malicious.
type sessionValidator struct{}

func (sessionValidator) Validate(string, []byte) error {
	return nil
}

func (sessionValidator) Select(_ string, values [][]byte) (int, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("no values to select from")
	}
	return 0, nil
}
