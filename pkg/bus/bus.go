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

// Package bus defines the transport contract between parties: opaque share
// payloads delivered point to point. Network transports live outside this
// module; MemoryBus connects parties inside one process.
package bus

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"
)

var (
	// ErrClosed is returned when using a closed bus.
	ErrClosed = errors.New("bus: closed")

	// ErrUnknownParty is returned for an out of range party index.
	ErrUnknownParty = errors.New("bus: unknown party")

	// ErrInvalidMessage is returned when a message cannot be decoded.
	ErrInvalidMessage = errors.New("bus: invalid message")
)

// Message is a unit of point to point delivery. Payload is opaque to the bus.
type Message struct {
	ID        uuid.UUID
	Study     string
	Round     int
	Sender    int
	Recipient int
	Payload   []byte
}

// NewMessage creates a message with a fresh random ID.
func NewMessage(study string, round, sender, recipient int, payload []byte) *Message {
	return &Message{
		ID:        uuid.New(),
		Study:     study,
		Round:     round,
		Sender:    sender,
		Recipient: recipient,
		Payload:   payload,
	}
}

// Bus delivers messages between parties.
type Bus interface {
	// Send queues msg for msg.Recipient.
	Send(ctx context.Context, msg *Message) error

	// Receive blocks until a message for recipient arrives or ctx is done.
	Receive(ctx context.Context, recipient int) (*Message, error)

	// Close releases the bus. Pending receivers return ErrClosed.
	Close() error
}

const (
	fieldID        protowire.Number = 1
	fieldStudy     protowire.Number = 2
	fieldRound     protowire.Number = 3
	fieldSender    protowire.Number = 4
	fieldRecipient protowire.Number = 5
	fieldPayload   protowire.Number = 6
)

// Encode serializes msg with the protobuf wire format.
func (m *Message) Encode() []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldID, protowire.BytesType)
	b = protowire.AppendBytes(b, m.ID[:])
	b = protowire.AppendTag(b, fieldStudy, protowire.BytesType)
	b = protowire.AppendString(b, m.Study)
	b = protowire.AppendTag(b, fieldRound, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Round))
	b = protowire.AppendTag(b, fieldSender, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Sender))
	b = protowire.AppendTag(b, fieldRecipient, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Recipient))
	b = protowire.AppendTag(b, fieldPayload, protowire.BytesType)
	b = protowire.AppendBytes(b, m.Payload)
	return b
}

// Decode parses a message produced by Encode.
func Decode(data []byte) (*Message, error) {
	m := &Message{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case typ == protowire.BytesType && (num == fieldID || num == fieldStudy || num == fieldPayload):
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, protowire.ParseError(n))
			}
			data = data[n:]
			switch num {
			case fieldID:
				id, err := uuid.FromBytes(v)
				if err != nil {
					return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
				}
				m.ID = id
			case fieldStudy:
				m.Study = string(v)
			case fieldPayload:
				m.Payload = append([]byte(nil), v...)
			}
		case typ == protowire.VarintType && (num == fieldRound || num == fieldSender || num == fieldRecipient):
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, protowire.ParseError(n))
			}
			data = data[n:]
			switch num {
			case fieldRound:
				m.Round = int(v)
			case fieldSender:
				m.Sender = int(v)
			case fieldRecipient:
				m.Recipient = int(v)
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	if m.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing message id", ErrInvalidMessage)
	}
	return m, nil
}
