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

// go/src/core/hbs/engine/wots.go
package engine

import (
	"encoding/binary"

	"github.com/sigstate-core/go/src/core/hbs/params"
	"golang.org/x/crypto/sha3"
)

// Domain-separation tags. Every hash invocation is bound to its role and
// position so no two call sites can collide.
const (
	sepChainStart byte = 0x00
	sepChainStep  byte = 0x01
	sepLeaf       byte = 0x02
	sepNode       byte = 0x03
	sepKeyID      byte = 0x04
)

// shakeInto fills out with SHAKE256 over the concatenation of parts.
func shakeInto(out []byte, parts ...[]byte) {
	h := sha3.NewShake256()
	for _, p := range parts {
		h.Write(p)
	}
	h.Read(out)
}

// hashAddr encodes a hash-call position: separator, tree layer, tree
// index within the layer and three role-specific words.
func hashAddr(sep byte, layer uint32, tree uint64, a, b, c uint32) []byte {
	var buf [25]byte
	buf[0] = sep
	binary.BigEndian.PutUint32(buf[1:5], layer)
	binary.BigEndian.PutUint64(buf[5:13], tree)
	binary.BigEndian.PutUint32(buf[13:17], a)
	binary.BigEndian.PutUint32(buf[17:21], b)
	binary.BigEndian.PutUint32(buf[21:25], c)
	return buf[:]
}

// wotsDigits converts a digest into base-w digits followed by the
// checksum digits, WotsLen values in [0, w).
func wotsDigits(p *params.Params, digest []byte) []int {
	logW := p.WotsLogW()
	w := int(p.Variant().WotsW)
	len1 := p.WotsLen1()
	len2 := p.WotsLen2()

	digits := make([]int, len1+len2)
	for i := 0; i < len1; i++ {
		start := i * logW
		var v int
		for b := 0; b < logW; b++ {
			bit := (digest[(start+b)/8] >> (7 - uint((start+b)%8))) & 1
			v = v<<1 | int(bit)
		}
		digits[i] = v
	}

	checksum := 0
	for i := 0; i < len1; i++ {
		checksum += w - 1 - digits[i]
	}
	for i := len2 - 1; i >= 0; i-- {
		digits[len1+i] = checksum & (w - 1)
		checksum >>= logW
	}
	return digits
}

// chainStart derives the secret start of one hash chain from the secret
// seed and the chain's position.
func chainStart(skSeed []byte, layer uint32, tree uint64, leaf uint32, chain int) []byte {
	out := make([]byte, params.N)
	shakeInto(out, skSeed, hashAddr(sepChainStart, layer, tree, leaf, uint32(chain), 0))
	return out
}

// chainWalk advances a chain value from position `from` by `steps`
// applications of the position-bound step function.
func chainWalk(pubSeed []byte, layer uint32, tree uint64, leaf uint32, chain, from, steps int, in []byte) []byte {
	cur := make([]byte, params.N)
	copy(cur, in)
	for i := 0; i < steps; i++ {
		pos := from + i + 1
		shakeInto(cur, pubSeed, hashAddr(sepChainStep, layer, tree, leaf, uint32(chain), uint32(pos)), cur)
	}
	return cur
}

// wotsSignLeaf produces the one-time signature of digest with the chains
// of the given leaf: chain i is advanced to the i-th digit.
func wotsSignLeaf(p *params.Params, skSeed, pubSeed []byte, layer uint32, tree uint64, leaf uint32, digest []byte) []byte {
	digits := wotsDigits(p, digest)
	sig := make([]byte, p.WotsSignatureSize())
	for i, d := range digits {
		start := chainStart(skSeed, layer, tree, leaf, i)
		copy(sig[i*params.N:], chainWalk(pubSeed, layer, tree, leaf, i, 0, d, start))
	}
	return sig
}

// wotsPkFromSig completes every chain of a one-time signature to its
// end, recovering the candidate public chain tops.
func wotsPkFromSig(p *params.Params, pubSeed []byte, layer uint32, tree uint64, leaf uint32, digest, sig []byte) []byte {
	digits := wotsDigits(p, digest)
	w := int(p.Variant().WotsW)
	pk := make([]byte, p.WotsSignatureSize())
	for i, d := range digits {
		part := sig[i*params.N : (i+1)*params.N]
		copy(pk[i*params.N:], chainWalk(pubSeed, layer, tree, leaf, i, d, w-1-d, part))
	}
	return pk
}

// wotsLeafFromPk compresses the chain tops into the leaf's tree node.
func wotsLeafFromPk(pubSeed []byte, layer uint32, tree uint64, leaf uint32, pk []byte) []byte {
	out := make([]byte, params.N)
	shakeInto(out, pubSeed, hashAddr(sepLeaf, layer, tree, leaf, 0, 0), pk)
	return out
}

// wotsLeafValue derives a leaf node directly from the secret seed by
// walking every chain to its end.
func wotsLeafValue(p *params.Params, skSeed, pubSeed []byte, layer uint32, tree uint64, leaf uint32) []byte {
	w := int(p.Variant().WotsW)
	lent := p.WotsLen()
	pk := make([]byte, p.WotsSignatureSize())
	for i := 0; i < lent; i++ {
		start := chainStart(skSeed, layer, tree, leaf, i)
		copy(pk[i*params.N:], chainWalk(pubSeed, layer, tree, leaf, i, 0, w-1, start))
	}
	return wotsLeafFromPk(pubSeed, layer, tree, leaf, pk)
}

// nodeHash combines two child nodes at the given height and index.
func nodeHash(pubSeed []byte, layer uint32, tree uint64, height, index uint32, left, right []byte) []byte {
	out := make([]byte, params.N)
	shakeInto(out, pubSeed, hashAddr(sepNode, layer, tree, height, index, 0), left, right)
	return out
}
