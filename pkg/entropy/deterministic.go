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

package entropy

import (
	"crypto/sha256"
	"errors"
	"io"
	"sync"

	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/hkdf"
)

const deterministicInfo = "go-smpc deterministic entropy v1"

// DeterministicResolver expands a seed into a ChaCha20 keystream. Two
// resolvers created from the same seed return identical byte sequences.
type DeterministicResolver struct {
	mu     sync.Mutex
	cipher *chacha20.Cipher
}

var _ Resolver = (*DeterministicResolver)(nil)

// NewDeterministic creates a seeded resolver.
func NewDeterministic(seed []byte) (*DeterministicResolver, error) {
	if len(seed) == 0 {
		return nil, errors.New("entropy: deterministic mode requires a seed")
	}

	key := make([]byte, chacha20.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, seed, nil, []byte(deterministicInfo)), key); err != nil {
		return nil, err
	}
	c, err := chacha20.NewUnauthenticatedCipher(key, make([]byte, chacha20.NonceSize))
	if err != nil {
		return nil, err
	}
	return &DeterministicResolver{cipher: c}, nil
}

func (d *DeterministicResolver) Rand(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := d.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (d *DeterministicResolver) Read(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cipher == nil {
		return 0, ErrClosed
	}
	clear(p)
	d.cipher.XORKeyStream(p, p)
	return len(p), nil
}

func (d *DeterministicResolver) Available() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cipher != nil
}

func (d *DeterministicResolver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cipher = nil
	return nil
}
