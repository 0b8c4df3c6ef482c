// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package outbox decouples audit bookkeeping from the response path. Events
// are published to a bounded channel and written to a sink by a single
// background worker; publishing never blocks and never fails the caller.
package outbox

import (
	"context"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/ragkit/core"
)

const defaultBufferSize = 256

// Sink receives events off the worker. Write errors are logged, not retried.
type Sink interface {
	Write(ctx context.Context, event *core.Event) error
}

// item is either an event or a flush token.
type item struct {
	event *core.Event
	ack   chan struct{}
}

// Outbox is a bounded, non-blocking event pipe with a single worker.
type Outbox struct {
	sink   Sink
	items  chan item
	pool   *ants.Pool
	done   chan struct{}
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// Option configures an Outbox.
type Option func(*Outbox)

// WithBufferSize sets the channel capacity. Default is 256.
func WithBufferSize(size int) Option {
	return func(o *Outbox) {
		if size > 0 {
			o.items = make(chan item, size)
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Outbox) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates an outbox and starts its worker.
func New(sink Sink, opts ...Option) (*Outbox, error) {
	if sink == nil {
		return nil, ErrSinkRequired
	}

	o := &Outbox{
		sink:   sink,
		items:  make(chan item, defaultBufferSize),
		done:   make(chan struct{}),
		logger: slog.Default().With("component", "outbox"),
	}
	for _, opt := range opts {
		opt(o)
	}

	pool, err := ants.NewPool(1)
	if err != nil {
		return nil, err
	}
	o.pool = pool

	if err := pool.Submit(o.run); err != nil {
		pool.Release()
		return nil, err
	}
	return o, nil
}

func (o *Outbox) run() {
	defer close(o.done)
	for it := range o.items {
		if it.ack != nil {
			close(it.ack)
			continue
		}
		if err := o.sink.Write(context.Background(), it.event); err != nil {
			o.logger.Error("error writing event", "kind", it.event.Kind, "err", err)
		}
	}
}

// Publish enqueues an event. When the buffer is full or the outbox is closed
// the event is dropped with a warning; the caller is never blocked.
func (o *Outbox) Publish(event *core.Event) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		o.logger.Warn("event dropped, outbox closed", "kind", event.Kind)
		return
	}

	select {
	case o.items <- item{event: event}:
	default:
		o.logger.Warn("event dropped, outbox full", "kind", event.Kind)
	}
}

// Flush blocks until every event published before the call has been written.
func (o *Outbox) Flush() {
	o.mu.RLock()
	if o.closed {
		o.mu.RUnlock()
		return
	}
	ack := make(chan struct{})
	o.items <- item{ack: ack}
	o.mu.RUnlock()
	<-ack
}

// Close stops accepting events, drains the buffer, and releases the worker.
func (o *Outbox) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	close(o.items)
	o.mu.Unlock()

	<-o.done
	o.pool.Release()
	return nil
}
