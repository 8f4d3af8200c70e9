package event

import (
	"context"
	"sort"
	"testing"
	"time"
)

func TestAggregatorMergesAndAdapts(t *testing.T) {
	agg := NewAggregator[int](8)
	bytes := make(chan byte, 3)
	words := make(chan string, 2)
	Push(agg, bytes, func(b byte) int { return int(b) })
	Push(agg, words, func(s string) int { return len(s) })

	bytes <- 1
	bytes <- 2
	words <- "abc"
	close(bytes)
	close(words)

	var got []int
	for v := range agg.Events() {
		got = append(got, v)
	}
	sort.Ints(got)
	want := []int{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("expected %d items, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestAggregatorTerminatesWhenAllSourcesClose(t *testing.T) {
	agg := NewAggregator[int](1)
	a := make(chan int)
	b := make(chan int)
	Push(agg, a, func(v int) int { return v })
	Push(agg, b, func(v int) int { return v })

	close(a)
	select {
	case _, ok := <-agg.Events():
		if !ok {
			t.Fatalf("aggregator terminated with a source still open")
		}
	case <-time.After(50 * time.Millisecond):
	}

	close(b)
	select {
	case _, ok := <-agg.Events():
		if ok {
			t.Fatalf("unexpected item after all sources closed")
		}
	case <-time.After(time.Second):
		t.Fatalf("aggregator did not terminate")
	}
}

func TestAggregatorDynamicRegistration(t *testing.T) {
	agg := NewAggregator[int](4)
	first := make(chan int, 1)
	Push(agg, first, func(v int) int { return v })
	first <- 1

	if got := <-agg.Events(); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}

	second := make(chan int, 1)
	Push(agg, second, func(v int) int { return v * 10 })
	second <- 2
	close(first)
	close(second)

	if got := <-agg.Events(); got != 20 {
		t.Fatalf("expected 20 from late source, got %d", got)
	}
}

func TestAggregatorSlowSourceDoesNotBlockOthers(t *testing.T) {
	agg := NewAggregator[int](1)
	slow := make(chan int)
	fast := make(chan int, 1)
	Push(agg, slow, func(v int) int { return v })
	Push(agg, fast, func(v int) int { return v })

	fast <- 7
	select {
	case got := <-agg.Events():
		if got != 7 {
			t.Fatalf("expected 7, got %d", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("fast source starved by idle source")
	}
	close(slow)
	close(fast)
}

func TestTickerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ticks := Ticker(ctx, time.Millisecond)

	select {
	case <-ticks:
	case <-time.After(time.Second):
		t.Fatalf("no tick delivered")
	}

	cancel()
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ticks:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("ticker channel not closed after cancel")
		}
	}
}
