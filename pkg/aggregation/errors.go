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

package aggregation

import "errors"

var (
	// ErrParticipantOutOfRange is returned for a party index outside [0, N).
	ErrParticipantOutOfRange = errors.New("aggregation: participant out of range")

	// ErrIncomplete is returned when a bin is missing incoming shares.
	ErrIncomplete = errors.New("aggregation: incomplete shares")

	// ErrInvalidState is returned when an operation is not allowed in the
	// party's current phase.
	ErrInvalidState = errors.New("aggregation: invalid state")

	// ErrUnknownBin is returned for input values with no matching bin.
	ErrUnknownBin = errors.New("aggregation: unknown bin")

	// ErrMissingInput is returned when a bin has no input value.
	ErrMissingInput = errors.New("aggregation: missing input")

	// ErrPayloadMismatch is returned when a payload's share count does not
	// match the number of bins.
	ErrPayloadMismatch = errors.New("aggregation: payload does not match bins")

	// ErrResultMismatch is returned when parties disagree on a total.
	ErrResultMismatch = errors.New("aggregation: parties disagree on result")
)
