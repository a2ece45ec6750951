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

// Package arithmetic implements additive secret sharing over a prime field.
//
// A secret s is split into N shares s_1..s_N with
//
//	s_1 + s_2 + ... + s_N = s (mod p)
//
// where s_1..s_(N-1) are drawn uniformly from [0, p). All N shares are
// required to reconstruct; any N-1 of them are independent of the secret.
// This is not a threshold scheme.
//
// Shares are additively homomorphic. Given shares of a and shares of b under
// the same modulus, each party adds its two shares locally and the resulting
// vector reconstructs to a + b (mod p) without any communication:
//
//	sharer, _ := arithmetic.NewSharer(&arithmetic.Config{NumParties: 3})
//	a, _ := sharer.ShareInt64(20)
//	b, _ := sharer.ShareInt64(22)
//	sum, _ := arithmetic.AddShares(a, b)
//	total, _ := arithmetic.Reconstruct(sum) // 42
//
// The default modulus is the Mersenne prime 2^127 - 1. Values are arbitrary
// precision throughout, and shares serialize with MarshalBinary (protobuf
// wire format) or MarshalJSON for transport between parties.
//
// Decimal values are supported through fixed point scaling, see
// ShareDecimal and ReconstructDecimal.
package arithmetic
