package game

import (
	"context"

	"github.com/verte-zerg/tuirace/internal/session"
)

// Publisher broadcasts the local participant's actions to the session.
type Publisher interface {
	Input(ctx context.Context, ch rune) error
	Forfeit(ctx context.Context) error
}

// NoopPublisher is the offline publisher used for practice races.
type NoopPublisher struct{}

// Input does nothing.
func (NoopPublisher) Input(context.Context, rune) error { return nil }

// Forfeit does nothing.
func (NoopPublisher) Forfeit(context.Context) error { return nil }

type sessionPublisher struct {
	client *session.Client
}

// NewSessionPublisher broadcasts actions as Push commands on the client's
// current session.
func NewSessionPublisher(client *session.Client) Publisher {
	return &sessionPublisher{client: client}
}

func (p *sessionPublisher) Input(ctx context.Context, ch rune) error {
	payload, err := session.EncodeInput(ch)
	if err != nil {
		return err
	}
	return p.client.PublishPush(ctx, payload)
}

func (p *sessionPublisher) Forfeit(ctx context.Context) error {
	payload, err := session.EncodeForfeit()
	if err != nil {
		return err
	}
	return p.client.PublishPush(ctx, payload)
}
