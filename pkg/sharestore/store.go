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

package sharestore

import (
	"fmt"
	"math/big"
	"path"
	"strconv"

	"github.com/fxamacker/cbor/v2"

	"github.com/jeremyhahn/go-smpc/pkg/arithmetic"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	opts := cbor.CoreDetEncOptions()
	opts.BigIntConvert = cbor.BigIntConvertNone

	var err error
	if encMode, err = opts.EncMode(); err != nil {
		panic(fmt.Sprintf("sharestore: cbor encoder: %v", err))
	}
	if decMode, err = (cbor.DecOptions{}).DecMode(); err != nil {
		panic(fmt.Sprintf("sharestore: cbor decoder: %v", err))
	}
}

type shareRecord struct {
	Value *big.Int `cbor:"1,keyasint"`
	Prime *big.Int `cbor:"2,keyasint"`
}

// BinRecord is the persisted state of one aggregation bin held by a party.
// A nil entry in In or Out marks an empty slot. Phase is owned by the caller.
type BinRecord struct {
	Name  string     `cbor:"1,keyasint"`
	Owner int        `cbor:"2,keyasint"`
	Prime *big.Int   `cbor:"3,keyasint"`
	Out   []*big.Int `cbor:"4,keyasint,omitempty"`
	In    []*big.Int `cbor:"5,keyasint,omitempty"`
	Phase int        `cbor:"6,keyasint,omitempty"`
}

// ShareKey returns the key of a standalone share owned by party.
func ShareKey(study string, party int, name string) string {
	return path.Join("shares", study, strconv.Itoa(party), name)
}

// BinKey returns the key of a bin owned by party.
func BinKey(study string, party int, name string) string {
	return path.Join("bins", study, strconv.Itoa(party), name)
}

// BinPrefix returns the prefix shared by all bins of party in a study.
func BinPrefix(study string, party int) string {
	return path.Join("bins", study, strconv.Itoa(party)) + "/"
}

// Store persists shares and bins on a Backend.
type Store struct {
	backend Backend
}

// New creates a Store over backend.
func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// NewMemory creates a Store over a fresh MemoryBackend.
func NewMemory() *Store {
	return New(NewMemoryBackend())
}

// Backend returns the underlying key-value backend.
func (s *Store) Backend() Backend {
	return s.backend
}

func (s *Store) put(key string, v any) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	data, err := encMode.Marshal(v)
	if err != nil {
		return fmt.Errorf("sharestore: encode %q: %w", key, err)
	}
	return s.backend.Put(key, data, DefaultOptions())
}

func (s *Store) get(key string, v any) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	data, err := s.backend.Get(key)
	if err != nil {
		return err
	}
	if err := decMode.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidRecord, key, err)
	}
	return nil
}

// PutShare stores share under key.
func (s *Store) PutShare(key string, share *arithmetic.Share) error {
	value, prime := share.Value(), share.Prime()
	if value == nil {
		return fmt.Errorf("sharestore: empty share for %q", key)
	}
	return s.put(key, &shareRecord{Value: value, Prime: prime})
}

// GetShare loads the share stored under key.
func (s *Store) GetShare(key string) (*arithmetic.Share, error) {
	var rec shareRecord
	if err := s.get(key, &rec); err != nil {
		return nil, err
	}
	if rec.Value == nil || rec.Prime == nil {
		return nil, fmt.Errorf("%w: %q: missing field", ErrInvalidRecord, key)
	}
	share, err := arithmetic.NewShare(rec.Value, rec.Prime)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidRecord, key, err)
	}
	return share, nil
}

// PutBin stores rec under key.
func (s *Store) PutBin(key string, rec *BinRecord) error {
	if rec == nil {
		return fmt.Errorf("sharestore: nil bin for %q", key)
	}
	return s.put(key, rec)
}

// GetBin loads the bin stored under key.
func (s *Store) GetBin(key string) (*BinRecord, error) {
	rec := &BinRecord{}
	if err := s.get(key, rec); err != nil {
		return nil, err
	}
	if rec.Prime == nil {
		return nil, fmt.Errorf("%w: %q: missing prime", ErrInvalidRecord, key)
	}
	return rec, nil
}

// Delete removes key.
func (s *Store) Delete(key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	return s.backend.Delete(key)
}

// List returns the keys under prefix.
func (s *Store) List(prefix string) ([]string, error) {
	return s.backend.List(prefix)
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
