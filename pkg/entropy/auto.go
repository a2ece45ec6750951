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

import "sync"

// autoResolver uses the first available hardware source and falls back to
// software.
type autoResolver struct {
	mu       sync.RWMutex
	resolver Resolver
}

var _ Resolver = (*autoResolver)(nil)

func newAutoResolver(cfg *Config) (Resolver, error) {
	var resolver Resolver

	if pkcs11Available() && cfg.PKCS11 != nil {
		if r, err := newPKCS11Resolver(cfg.PKCS11); err == nil {
			if r.Available() {
				resolver = r
			} else {
				_ = r.Close()
			}
		}
	}

	if resolver == nil && tpm2Available() {
		if r, err := newTPM2Resolver(cfg.TPM2); err == nil {
			if r.Available() {
				resolver = r
			} else {
				_ = r.Close()
			}
		}
	}

	if resolver == nil {
		resolver = Software()
	}
	return &autoResolver{resolver: resolver}, nil
}

func (a *autoResolver) current() Resolver {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.resolver
}

func (a *autoResolver) Rand(n int) ([]byte, error) {
	return a.current().Rand(n)
}

func (a *autoResolver) Read(p []byte) (int, error) {
	return a.current().Read(p)
}

func (a *autoResolver) Available() bool {
	return a.current().Available()
}

func (a *autoResolver) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.resolver.Close()
}

// fallbackResolver retries failed draws on a secondary source.
type fallbackResolver struct {
	primary  Resolver
	fallback Resolver
}

var _ Resolver = (*fallbackResolver)(nil)

func (f *fallbackResolver) Rand(n int) ([]byte, error) {
	out, err := f.primary.Rand(n)
	if err != nil {
		return f.fallback.Rand(n)
	}
	return out, nil
}

func (f *fallbackResolver) Read(p []byte) (int, error) {
	return readFrom(f, p)
}

func (f *fallbackResolver) Available() bool {
	return f.primary.Available() || f.fallback.Available()
}

func (f *fallbackResolver) Close() error {
	err := f.primary.Close()
	if ferr := f.fallback.Close(); err == nil {
		err = ferr
	}
	return err
}
