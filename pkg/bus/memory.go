// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-smpc.
//
// go-smpc is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package bus

import (
	"context"
	"fmt"
	"sync"
)

// MemoryBus delivers messages between parties of one process over buffered
// channels. Messages are encoded on Send and decoded on Receive so payloads
// never share memory between parties.
type MemoryBus struct {
	mu     sync.RWMutex
	queues []chan []byte
	done   chan struct{}
	closed bool
}

var _ Bus = (*MemoryBus)(nil)

// NewMemoryBus creates a bus for numParties parties where each inbox holds up
// to capacity undelivered messages.
func NewMemoryBus(numParties, capacity int) *MemoryBus {
	queues := make([]chan []byte, numParties)
	for i := range queues {
		queues[i] = make(chan []byte, capacity)
	}
	return &MemoryBus{
		queues: queues,
		done:   make(chan struct{}),
	}
}

func (b *MemoryBus) inbox(party int) (chan []byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, ErrClosed
	}
	if party < 0 || party >= len(b.queues) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownParty, party)
	}
	return b.queues[party], nil
}

// Send implements Bus.
func (b *MemoryBus) Send(ctx context.Context, msg *Message) error {
	if _, err := b.inbox(msg.Sender); err != nil {
		return fmt.Errorf("sender: %w", err)
	}
	q, err := b.inbox(msg.Recipient)
	if err != nil {
		return err
	}

	select {
	case q <- msg.Encode():
		return nil
	case <-b.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive implements Bus.
func (b *MemoryBus) Receive(ctx context.Context, recipient int) (*Message, error) {
	q, err := b.inbox(recipient)
	if err != nil {
		return nil, err
	}

	select {
	case data := <-q:
		return Decode(data)
	case <-b.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close implements Bus. Multiple calls are safe.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.done)
	}
	return nil
}
