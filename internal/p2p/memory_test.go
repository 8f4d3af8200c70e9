package p2p

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryPublishSkipsSelf(t *testing.T) {
	hub := NewMemoryHub()
	a := hub.Node("peer-a")
	b := hub.Node("peer-b")
	ctx := context.Background()

	chA, err := a.Subscribe(ctx, "race")
	if err != nil {
		t.Fatalf("subscribe a: %v", err)
	}
	chB, err := b.Subscribe(ctx, "race")
	if err != nil {
		t.Fatalf("subscribe b: %v", err)
	}

	if err := a.Publish(ctx, "race", []byte("hello")); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case msg := <-chB:
		if msg.From != "peer-a" || string(msg.Data) != "hello" {
			t.Fatalf("unexpected message: %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatalf("subscriber did not receive publish")
	}
	select {
	case msg := <-chA:
		t.Fatalf("publisher received own message: %+v", msg)
	default:
	}
}

func TestMemoryRecords(t *testing.T) {
	hub := NewMemoryHub()
	a := hub.Node("peer-a")
	b := hub.Node("peer-b")
	ctx := context.Background()

	if _, err := b.GetRecord(ctx, "host"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	if err := a.PutRecord(ctx, "host", []byte("session")); err != nil {
		t.Fatalf("put record: %v", err)
	}
	value, err := b.GetRecord(ctx, "host")
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if string(value) != "session" {
		t.Fatalf("unexpected record value: %q", value)
	}
	if err := a.RemoveRecord(ctx, "host"); err != nil {
		t.Fatalf("remove record: %v", err)
	}
	if _, err := b.GetRecord(ctx, "host"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound after removal, got %v", err)
	}
}

func TestMemoryClosedNodeFailsDistinguishably(t *testing.T) {
	hub := NewMemoryHub()
	a := hub.Node("peer-a")
	ctx := context.Background()

	ch, err := a.Subscribe(ctx, "race")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, ok := <-ch; ok {
		t.Fatalf("subscription channel not closed on shutdown")
	}
	if err := a.Publish(ctx, "race", nil); !errors.Is(err, ErrChannelClosed) {
		t.Fatalf("expected ErrChannelClosed, got %v", err)
	}
	if _, err := a.Subscribe(ctx, "race"); !errors.Is(err, ErrChannelClosed) {
		t.Fatalf("expected ErrChannelClosed, got %v", err)
	}
}
