// Package event provides the fan-in aggregator that merges independently
// driven asynchronous sources into the single stream consumed by the
// control loop.
package event

import "sync"

// Aggregator merges items from any number of channel sources into one
// output stream. Items are delivered in the order they become ready; there
// is no fairness guarantee beyond first ready, first out. The output
// closes when every registered source has closed; shutting sources down
// is the only cancellation mechanism.
type Aggregator[T any] struct {
	out chan T

	mu     sync.Mutex
	active int
	closed bool
}

// NewAggregator creates an aggregator with the given output buffer size.
func NewAggregator[T any](buffer int) *Aggregator[T] {
	return &Aggregator[T]{out: make(chan T, buffer)}
}

// Events returns the aggregated output stream.
func (a *Aggregator[T]) Events() <-chan T {
	return a.out
}

// Push registers a source, adapting its native item type into the
// aggregate type. Sources may be registered at any time before the
// aggregator has terminated; pushing after termination drains the source
// without delivering.
func Push[S, T any](a *Aggregator[T], src <-chan S, adapt func(S) T) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		go func() {
			for range src {
			}
		}()
		return
	}
	a.active++
	a.mu.Unlock()

	go func() {
		for item := range src {
			a.out <- adapt(item)
		}
		a.mu.Lock()
		a.active--
		if a.active == 0 {
			a.closed = true
			close(a.out)
		}
		a.mu.Unlock()
	}()
}
