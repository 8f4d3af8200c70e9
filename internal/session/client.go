package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/tuirace/internal/p2p"
)

// RegistrationLockDelay is how far in the future the host schedules the
// race start when locking, leaving room for clock skew and propagation.
const RegistrationLockDelay = 3 * time.Second

// ErrNoSession reports an operation that needs a joined session.
var ErrNoSession = errors.New("no current session")

// ErrSessionEnded reports a session terminated before the race started.
var ErrSessionEnded = errors.New("session ended")

// Event is one decoded command from the session topic with its sender.
type Event struct {
	Peer string
	Cmd  *Command
}

// Client speaks the session protocol over an opaque network service. It is
// safe to use from the control loop only; inbound traffic arrives on the
// channel returned by Join or Host.
type Client struct {
	log       *zap.Logger
	net       p2p.Network
	sessionID string
}

// NewClient wraps a network handle.
func NewClient(log *zap.Logger, net p2p.Network) *Client {
	return &Client{log: log, net: net}
}

// PeerID returns the local peer identity.
func (c *Client) PeerID() string {
	return c.net.ID()
}

// Join subscribes to a session topic and returns the decoded event stream.
// The stream closes when the underlying subscription does; a closed stream
// means the transport channel failed or the client left the session.
func (c *Client) Join(ctx context.Context, sessionID string) (<-chan Event, error) {
	msgs, err := c.net.Subscribe(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to join session: %w", err)
	}
	c.sessionID = sessionID

	events := make(chan Event, 64)
	go func() {
		defer close(events)
		for msg := range msgs {
			cmd, err := DecodeCommand(msg.Data)
			if err != nil {
				// Malformed traffic must never take the session down.
				c.log.Warn("dropping malformed session command",
					zap.String("peer", msg.From), zap.Error(err))
				continue
			}
			events <- Event{Peer: msg.From, Cmd: cmd}
		}
	}()
	return events, nil
}

// Leave unsubscribes from the current session topic.
func (c *Client) Leave(ctx context.Context) error {
	if c.sessionID == "" {
		return ErrNoSession
	}
	sessionID := c.sessionID
	c.sessionID = ""
	if err := c.net.Unsubscribe(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to leave session: %w", err)
	}
	return nil
}

// Host joins the session topic and publishes the discovery record under
// the host's advertised name so joiners can find it.
func (c *Client) Host(ctx context.Context, hostName string, data Data) (<-chan Event, error) {
	events, err := c.Join(ctx, data.SessionID)
	if err != nil {
		return nil, err
	}
	value, err := EncodeData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session data: %w", err)
	}
	if err := c.net.PutRecord(ctx, hostName, value); err != nil {
		return nil, fmt.Errorf("failed to announce session: %w", err)
	}
	c.log.Info("hosting session",
		zap.String("host", hostName), zap.String("session", data.SessionID))
	return events, nil
}

// StopHosting removes the discovery record and leaves the session.
func (c *Client) StopHosting(ctx context.Context, hostName string) error {
	if err := c.Leave(ctx); err != nil {
		return err
	}
	if err := c.net.RemoveRecord(ctx, hostName); err != nil {
		return fmt.Errorf("failed to remove session record: %w", err)
	}
	return nil
}

// Lookup fetches a host's discovery record.
func (c *Client) Lookup(ctx context.Context, hostName string) (Data, error) {
	value, err := c.net.GetRecord(ctx, hostName)
	if err != nil {
		if errors.Is(err, p2p.ErrRecordNotFound) {
			return Data{}, fmt.Errorf("no session hosted by %q: %w", hostName, err)
		}
		return Data{}, fmt.Errorf("failed to look up session: %w", err)
	}
	return DecodeData(value)
}

// Publish sends a command on the current session topic.
func (c *Client) Publish(ctx context.Context, t CommandType, body any) error {
	if c.sessionID == "" {
		return ErrNoSession
	}
	data, err := EncodeCommand(t, body)
	if err != nil {
		return err
	}
	if err := c.net.Publish(ctx, c.sessionID, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", t, err)
	}
	return nil
}

// PublishPush sends an application payload wrapped in a Push command.
func (c *Client) PublishPush(ctx context.Context, payload []byte) error {
	return c.Publish(ctx, CmdPush, Push{Payload: payload})
}

// TakeRegistrations runs the host's registration phase: it collects
// Register commands into the roster until the trigger fires, then locks
// the roster, broadcasts the Lock with a start time a fixed interval in
// the future, and returns that start time.
func (c *Client) TakeRegistrations(ctx context.Context, events <-chan Event, roster *Roster, trigger <-chan struct{}) (time.Time, error) {
	for {
		select {
		case <-ctx.Done():
			return time.Time{}, ctx.Err()
		case <-trigger:
			start, stamp := StartTimeIn(RegistrationLockDelay)
			lock := Lock{RegisteredUsers: roster.Users(), SessionStart: stamp}
			if err := c.Publish(ctx, CmdLock, lock); err != nil {
				return time.Time{}, err
			}
			roster.Lock()
			return start, nil
		case ev, ok := <-events:
			if !ok {
				return time.Time{}, fmt.Errorf("session events: %w", p2p.ErrChannelClosed)
			}
			if ev.Cmd.Type != CmdRegister {
				continue
			}
			var reg Register
			if err := ev.Cmd.Body(&reg); err != nil {
				c.log.Warn("dropping malformed registration",
					zap.String("peer", ev.Peer), zap.Error(err))
				continue
			}
			if roster.Register(ev.Peer, reg.User) {
				c.log.Info("registered user",
					zap.String("peer", ev.Peer), zap.String("user", reg.User))
			}
		}
	}
}

// AwaitLock runs the joiner's registration phase: it publishes a Register
// and waits for the host's Lock. Push commands observed before the lock
// are returned for replay once the roster is known.
func (c *Client) AwaitLock(ctx context.Context, events <-chan Event, user string) (*Lock, []Event, error) {
	if err := c.Publish(ctx, CmdRegister, Register{User: user}); err != nil {
		return nil, nil, err
	}
	var early []Event
	for {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil, nil, fmt.Errorf("session events: %w", p2p.ErrChannelClosed)
			}
			switch ev.Cmd.Type {
			case CmdLock:
				var lock Lock
				if err := ev.Cmd.Body(&lock); err != nil {
					return nil, nil, err
				}
				return &lock, early, nil
			case CmdPush:
				// Out-of-order delivery; keep a bounded buffer for
				// replay after attribution becomes possible.
				if len(early) < 64 {
					early = append(early, ev)
				}
			case CmdEnd:
				return nil, nil, ErrSessionEnded
			}
		}
	}
}
