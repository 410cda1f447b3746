// MIT License
//
// Copyright (c) 2024 sigstate-core
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// go/src/core/hbs/params/params.go

// Package params describes the supported stateful hash-based signature
// scheme configurations. A Params value is immutable once constructed;
// every blob size in the system is a pure function of it and is queried
// from here, never hard-coded by callers.
package params

import (
	"fmt"
	"math/bits"

	"github.com/sigstate-core/go/src/core/hbs/types"
)

// N is the hash output length in bytes (SHAKE256 with 256-bit output).
const N = 32

// Strategy selects the authentication-path computation trade-off. It
// shifts work between key import time and signing time; it never
// changes any wire format.
type Strategy int

const (
	// StrategyFull keeps every computed subtree resident. Fastest
	// signing, largest memory footprint.
	StrategyFull Strategy = iota
	// StrategyCPUConstrained minimizes recomputation; with the current
	// engine it retains subtrees exactly like StrategyFull.
	StrategyCPUConstrained
	// StrategyMemoryConstrained keeps at most one subtree per layer
	// resident and recomputes evicted ones on demand.
	StrategyMemoryConstrained
)

// String returns the strategy label as used on CLI flags.
func (s Strategy) String() string {
	switch s {
	case StrategyFull:
		return "full"
	case StrategyCPUConstrained:
		return "cpu"
	case StrategyMemoryConstrained:
		return "memory"
	default:
		return "unknown"
	}
}

// StrategyFromString parses a CLI strategy label.
func StrategyFromString(s string) (Strategy, error) {
	switch s {
	case "full":
		return StrategyFull, nil
	case "cpu":
		return StrategyCPUConstrained, nil
	case "memory":
		return StrategyMemoryConstrained, nil
	default:
		return 0, fmt.Errorf("%w: unknown strategy %q", types.ErrInvalidParameter, s)
	}
}

// Params is the immutable description of one scheme configuration.
type Params struct {
	variant  Variant
	strategy Strategy
}

// New validates the variant/strategy combination and builds a Params.
func New(v Variant, s Strategy) (*Params, error) {
	if !registered(v) {
		return nil, fmt.Errorf("%w: unknown variant %q", types.ErrInvalidParameter, v.Name)
	}
	if s != StrategyFull && s != StrategyCPUConstrained && s != StrategyMemoryConstrained {
		return nil, fmt.Errorf("%w: unknown strategy %d", types.ErrInvalidParameter, int(s))
	}
	// Registry entries are constructed to satisfy these, but imported
	// blobs round-trip through ByOid, so check anyway.
	if v.Layers == 0 || v.FullHeight%v.Layers != 0 {
		return nil, fmt.Errorf("%w: layer count %d does not divide height %d", types.ErrInvalidParameter, v.Layers, v.FullHeight)
	}
	if v.WotsW != 4 && v.WotsW != 16 && v.WotsW != 256 {
		return nil, fmt.Errorf("%w: unsupported Winternitz parameter %d", types.ErrInvalidParameter, v.WotsW)
	}
	return &Params{variant: v, strategy: s}, nil
}

// NewByName is New for a registered variant name.
func NewByName(name string, s Strategy) (*Params, error) {
	v, ok := ByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown variant %q", types.ErrInvalidParameter, name)
	}
	return New(v, s)
}

// Variant returns the scheme variant.
func (p *Params) Variant() Variant { return p.variant }

// Strategy returns the traversal strategy.
func (p *Params) Strategy() Strategy { return p.strategy }

// FullHeight returns log2 of the total leaf count.
func (p *Params) FullHeight() uint32 { return p.variant.FullHeight }

// Layers returns the number of tree layers (1 for single-tree schemes).
func (p *Params) Layers() uint32 { return p.variant.Layers }

// SubtreeHeight returns the height of one layer's subtree.
func (p *Params) SubtreeHeight() uint32 { return p.variant.FullHeight / p.variant.Layers }

// TotalLeaves returns the number of one-time-signature leaves.
func (p *Params) TotalLeaves() uint64 { return 1 << p.variant.FullHeight }

// DigestSize returns the digest length Sign and Verify accept.
func (p *Params) DigestSize() int { return N }

// WotsLogW returns log2 of the Winternitz parameter.
func (p *Params) WotsLogW() int { return bits.TrailingZeros32(p.variant.WotsW) }

// WotsLen1 returns the number of message hash chains.
func (p *Params) WotsLen1() int { return 8 * N / p.WotsLogW() }

// WotsLen2 returns the number of checksum hash chains.
func (p *Params) WotsLen2() int {
	maxChecksum := p.WotsLen1() * (int(p.variant.WotsW) - 1)
	return (bits.Len(uint(maxChecksum))-1)/p.WotsLogW() + 1
}

// WotsLen returns the total number of hash chains per leaf.
func (p *Params) WotsLen() int { return p.WotsLen1() + p.WotsLen2() }

// WotsSignatureSize returns the per-leaf one-time signature size.
func (p *Params) WotsSignatureSize() int { return p.WotsLen() * N }

// SignatureSize returns the full signature blob size: leaf index plus,
// per layer, a one-time signature and an authentication path.
func (p *Params) SignatureSize() int {
	return 8 + int(p.variant.Layers)*p.WotsSignatureSize() + int(p.variant.FullHeight)*N
}

// PublicKeySize returns the public key blob size (root and public seed).
func (p *Params) PublicKeySize() int { return 2 * N }

// PrivateKeySize returns the private key blob size (secret seed, public
// seed and root).
func (p *Params) PrivateKeySize() int { return 3 * N }

// StateSize returns the private key state blob size: variant identifier,
// the range cursor (start, next, end) and the per-layer subtree root
// cache.
func (p *Params) StateSize() int { return 4 + 3*8 + int(p.variant.Layers)*N }
