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

import "errors"

var (
	// ErrClosed is returned when using a closed store.
	ErrClosed = errors.New("sharestore: closed")

	// ErrNotFound is returned when a key is not present.
	ErrNotFound = errors.New("sharestore: not found")

	// ErrInvalidKey is returned for empty or unsafe keys.
	ErrInvalidKey = errors.New("sharestore: invalid key")

	// ErrInvalidRecord is returned when a stored record cannot be decoded.
	ErrInvalidRecord = errors.New("sharestore: invalid record")
)
