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

package arithmetic

import (
	"encoding/json"
	"fmt"
	"math/big"

	"google.golang.org/protobuf/encoding/protowire"
)

// Wire field numbers of a serialized share.
const (
	fieldValue protowire.Number = 1
	fieldPrime protowire.Number = 2
)

// appendWire appends the protobuf wire encoding of s to b. Both integers are
// written as big-endian magnitudes, so no precision is lost.
func (s *Share) appendWire(b []byte) []byte {
	b = protowire.AppendTag(b, fieldValue, protowire.BytesType)
	b = protowire.AppendBytes(b, s.value.Bytes())
	b = protowire.AppendTag(b, fieldPrime, protowire.BytesType)
	b = protowire.AppendBytes(b, s.prime.Bytes())
	return b
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (s *Share) MarshalBinary() ([]byte, error) {
	if s == nil || s.value == nil || s.prime == nil {
		return nil, fmt.Errorf("%w: cannot marshal empty share", ErrInvalidEncoding)
	}
	return s.appendWire(nil), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *Share) UnmarshalBinary(data []byte) error {
	decoded, err := DecodeShare(data)
	if err != nil {
		return err
	}
	*s = *decoded
	return nil
}

// DecodeShare parses a share produced by MarshalBinary. Unknown fields are
// skipped.
func DecodeShare(data []byte) (*Share, error) {
	var value, prime *big.Int
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, protowire.ParseError(n))
		}
		data = data[n:]

		if typ != protowire.BytesType || (num != fieldValue && num != fieldPrime) {
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, protowire.ParseError(n))
			}
			data = data[n:]
			continue
		}

		raw, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, protowire.ParseError(n))
		}
		data = data[n:]

		switch num {
		case fieldValue:
			value = new(big.Int).SetBytes(raw)
		case fieldPrime:
			prime = new(big.Int).SetBytes(raw)
		}
	}

	if value == nil || prime == nil {
		return nil, fmt.Errorf("%w: share requires value and prime", ErrInvalidEncoding)
	}
	return NewShare(value, prime)
}

// EncodeShares serializes a share vector as a sequence of length-delimited
// share messages.
func EncodeShares(shares []*Share) ([]byte, error) {
	var b []byte
	for i, share := range shares {
		raw, err := share.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("share %d: %w", i, err)
		}
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, raw)
	}
	return b, nil
}

// DecodeShares parses the output of EncodeShares.
func DecodeShares(data []byte) ([]*Share, error) {
	var shares []*Share
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 || num != 1 || typ != protowire.BytesType {
			return nil, fmt.Errorf("%w: malformed share vector", ErrInvalidEncoding)
		}
		data = data[n:]
		raw, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, protowire.ParseError(n))
		}
		data = data[n:]
		share, err := DecodeShare(raw)
		if err != nil {
			return nil, fmt.Errorf("share %d: %w", len(shares), err)
		}
		shares = append(shares, share)
	}
	return shares, nil
}

type shareJSON struct {
	Value string `json:"value"`
	Prime string `json:"prime"`
}

// MarshalJSON renders value and prime as decimal strings.
func (s *Share) MarshalJSON() ([]byte, error) {
	if s == nil || s.value == nil || s.prime == nil {
		return []byte("null"), nil
	}
	return json.Marshal(shareJSON{
		Value: s.value.String(),
		Prime: s.prime.String(),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Share) UnmarshalJSON(data []byte) error {
	var aux shareJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	value, ok := new(big.Int).SetString(aux.Value, 10)
	if !ok {
		return fmt.Errorf("%w: invalid share value %q", ErrInvalidEncoding, aux.Value)
	}
	prime, ok := new(big.Int).SetString(aux.Prime, 10)
	if !ok {
		return fmt.Errorf("%w: invalid share modulus %q", ErrInvalidEncoding, aux.Prime)
	}
	decoded, err := NewShare(value, prime)
	if err != nil {
		return err
	}
	*s = *decoded
	return nil
}
