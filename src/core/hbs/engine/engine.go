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

// go/src/core/hbs/engine/engine.go

// Package engine provides the cryptographic primitive operations the
// state machinery is built on: key generation, leaf signing, signature
// verification, state codecs and state detachment. The state manager
// and splitter consume the Engine interface; ShakeEngine is the
// reference implementation, a layered Merkle construction over
// position-bound WOTS chains with SHAKE256.
package engine

import (
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/sigstate-core/go/src/core/hbs/params"
	"github.com/sigstate-core/go/src/core/hbs/types"
	"github.com/sigstate-core/go/src/core/secure"
)

// PublicKey verifies signatures. Immutable.
type PublicKey struct {
	params  *params.Params
	root    []byte
	pubSeed []byte
}

// Params returns the scheme configuration the key was built with.
func (pk *PublicKey) Params() *params.Params { return pk.params }

// Root returns the tree root the key commits to.
func (pk *PublicKey) Root() []byte { return pk.root }

// PrivateKey is the root secret material. Wipe it when done.
type PrivateKey struct {
	params  *params.Params
	skSeed  []byte
	pubSeed []byte
	root    []byte
	keyID   uint64
}

// Params returns the scheme configuration the key was built with.
func (sk *PrivateKey) Params() *params.Params { return sk.params }

// Wipe clears the secret material. The key must not be used afterwards.
func (sk *PrivateKey) Wipe() {
	secure.Zero(sk.skSeed)
	secure.Zero(sk.pubSeed)
	secure.Zero(sk.root)
}

// State is the mutable cursor over a contiguous range of the leaf index
// space. A root state covers [0, TotalLeaves); a detached state covers
// the carved-out sub-range. next only ever moves forward.
type State struct {
	params     *params.Params
	start      uint64
	next       uint64
	end        uint64
	layerRoots []byte // cached roots of the active subtree per layer
}

// Params returns the scheme configuration the state belongs to.
func (st *State) Params() *params.Params { return st.params }

// NextLeaf returns the index of the next unused leaf.
func (st *State) NextLeaf() uint64 { return st.next }

// Engine is the primitive capability consumed by the state manager and
// splitter. Implementations mutate only their State argument and only
// where documented.
type Engine interface {
	GenerateKeyPair(p *params.Params, rng io.Reader) (*PublicKey, *PrivateKey, *State, error)
	Sign(priv *PrivateKey, digest []byte, st *State) (*Signature, error)
	Verify(pub *PublicKey, digest []byte, sig *Signature) (bool, error)
	SignatureCount(st *State) (max, remaining uint64)
	DetachState(priv *PrivateKey, st *State, n uint64) (*State, error)

	ExportState(st *State) ([]byte, error)
	ImportState(p *params.Params, blob []byte) (*State, error)
	ExportPrivateKey(priv *PrivateKey) ([]byte, error)
	ImportPrivateKey(p *params.Params, blob []byte) (*PrivateKey, error)
	ExportPublicKey(pub *PublicKey) ([]byte, error)
	ImportPublicKey(p *params.Params, blob []byte) (*PublicKey, error)
	ExportSignature(sig *Signature) ([]byte, error)
	ImportSignature(p *params.Params, blob []byte) (*Signature, error)
}

// ShakeEngine is the reference Engine. Safe for use with multiple keys;
// expensive subtree computations are cached per key.
type ShakeEngine struct {
	mu       sync.Mutex
	subtrees map[subtreeKey]*subtree
}

// New creates a ShakeEngine.
func New() *ShakeEngine {
	return &ShakeEngine{subtrees: make(map[subtreeKey]*subtree)}
}

var _ Engine = (*ShakeEngine)(nil)

// keyIDOf tags a private key for cache partitioning. Derived from the
// secret seed but never stored or exported.
func keyIDOf(skSeed []byte) uint64 {
	var out [8]byte
	shakeInto(out[:], []byte{sepKeyID}, skSeed)
	return binary.BigEndian.Uint64(out[:])
}

// GenerateKeyPair creates a fresh key pair and its initial state
// covering the whole leaf space.
func (e *ShakeEngine) GenerateKeyPair(p *params.Params, rng io.Reader) (*PublicKey, *PrivateKey, *State, error) {
	if p == nil {
		return nil, nil, nil, fmt.Errorf("%w: nil params", types.ErrInvalidParameter)
	}
	skSeed := make([]byte, params.N)
	pubSeed := make([]byte, params.N)
	if _, err := io.ReadFull(rng, skSeed); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: reading seed: %v", types.ErrCryptoEngine, err)
	}
	if _, err := io.ReadFull(rng, pubSeed); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: reading seed: %v", types.ErrCryptoEngine, err)
	}

	priv := &PrivateKey{
		params:  p,
		skSeed:  skSeed,
		pubSeed: pubSeed,
		keyID:   keyIDOf(skSeed),
	}

	// Roots of the subtrees on the path of leaf 0, bottom layer first.
	// The top entry doubles as the public root.
	d := p.Layers()
	layerRoots := make([]byte, int(d)*params.N)
	for layer := uint32(0); layer < d; layer++ {
		t := e.subtreeFor(priv, layer, 0)
		copy(layerRoots[int(layer)*params.N:], t.root())
	}
	priv.root = make([]byte, params.N)
	copy(priv.root, layerRoots[int(d-1)*params.N:])

	pub := &PublicKey{
		params:  p,
		root:    append([]byte(nil), priv.root...),
		pubSeed: append([]byte(nil), pubSeed...),
	}
	st := &State{
		params:     p,
		start:      0,
		next:       0,
		end:        p.TotalLeaves(),
		layerRoots: layerRoots,
	}
	return pub, priv, st, nil
}

// Sign consumes the state's next leaf to sign digest, advancing the
// cursor in memory. The caller owns persisting the advanced state; see
// the manager for the required ordering.
func (e *ShakeEngine) Sign(priv *PrivateKey, digest []byte, st *State) (*Signature, error) {
	if priv == nil || st == nil {
		return nil, fmt.Errorf("%w: nil key or state", types.ErrCryptoEngine)
	}
	p := priv.params
	if st.params.Variant() != p.Variant() {
		return nil, fmt.Errorf("%w: state variant %q does not match key variant %q",
			types.ErrCryptoEngine, st.params.Variant().Name, p.Variant().Name)
	}
	if len(digest) != p.DigestSize() {
		return nil, fmt.Errorf("%w: digest must be %d bytes, got %d", types.ErrCryptoEngine, p.DigestSize(), len(digest))
	}
	if st.next >= st.end {
		return nil, fmt.Errorf("%w: no leaves remain in [%d, %d)", types.ErrStateDepleted, st.start, st.end)
	}

	leaf := st.next
	d := p.Layers()
	hs := p.SubtreeHeight()
	mask := (uint64(1) << hs) - 1

	sig := &Signature{
		params:    p,
		leafIndex: leaf,
		layers:    make([]layerSig, d),
	}

	msg := digest
	idx := leaf
	newRoots := make([]byte, int(d)*params.N)
	for layer := uint32(0); layer < d; layer++ {
		tree := idx >> hs
		leafIn := uint32(idx & mask)

		t := e.subtreeFor(priv, layer, tree)
		sig.layers[layer] = layerSig{
			wotsSig:  wotsSignLeaf(p, priv.skSeed, priv.pubSeed, layer, tree, leafIn, msg),
			authPath: t.authPath(leafIn),
		}
		copy(newRoots[int(layer)*params.N:], t.root())
		msg = t.root()
		idx = tree
	}

	// The top-layer root is the key's public root; anything else means
	// the state was paired with the wrong key.
	if subtle.ConstantTimeCompare(msg, priv.root) != 1 {
		return nil, fmt.Errorf("%w: state does not belong to this private key", types.ErrCryptoEngine)
	}

	st.next = leaf + 1
	copy(st.layerRoots, newRoots)
	return sig, nil
}

// Verify checks sig against pub and digest. Pure: no argument is
// mutated and repeated calls return identical results.
func (e *ShakeEngine) Verify(pub *PublicKey, digest []byte, sig *Signature) (bool, error) {
	if pub == nil || sig == nil {
		return false, fmt.Errorf("%w: nil key or signature", types.ErrCryptoEngine)
	}
	p := pub.params
	if sig.params.Variant() != p.Variant() {
		return false, fmt.Errorf("%w: signature variant %q does not match key variant %q",
			types.ErrCryptoEngine, sig.params.Variant().Name, p.Variant().Name)
	}
	if len(digest) != p.DigestSize() {
		return false, fmt.Errorf("%w: digest must be %d bytes, got %d", types.ErrCryptoEngine, p.DigestSize(), len(digest))
	}
	if sig.leafIndex >= p.TotalLeaves() {
		return false, nil
	}

	d := p.Layers()
	hs := p.SubtreeHeight()
	mask := (uint64(1) << hs) - 1

	msg := digest
	idx := sig.leafIndex
	for layer := uint32(0); layer < d; layer++ {
		tree := idx >> hs
		leafIn := uint32(idx & mask)
		ls := sig.layers[layer]

		pkChains := wotsPkFromSig(p, pub.pubSeed, layer, tree, leafIn, msg, ls.wotsSig)
		node := wotsLeafFromPk(pub.pubSeed, layer, tree, leafIn, pkChains)

		offset := leafIn
		for h := uint32(1); h <= hs; h++ {
			sibling := ls.authPath[(h-1)*params.N : h*params.N]
			if offset&1 == 0 {
				node = nodeHash(pub.pubSeed, layer, tree, h, offset>>1, node, sibling)
			} else {
				node = nodeHash(pub.pubSeed, layer, tree, h, offset>>1, sibling, node)
			}
			offset >>= 1
		}
		msg = node
		idx = tree
	}

	return subtle.ConstantTimeCompare(msg, pub.root) == 1, nil
}

// SignatureCount reports the capacity the state was created with and
// the number of unused leaves left in its range.
func (e *ShakeEngine) SignatureCount(st *State) (max, remaining uint64) {
	return st.end - st.start, st.end - st.next
}

// DetachState carves the next n unused leaves out of st into a new,
// fully independent state. st's cursor is advanced past the detached
// range; on failure st is untouched.
func (e *ShakeEngine) DetachState(priv *PrivateKey, st *State, n uint64) (*State, error) {
	if priv == nil || st == nil {
		return nil, fmt.Errorf("%w: nil key or state", types.ErrCryptoEngine)
	}
	remaining := st.end - st.next
	if n == 0 || n > remaining {
		return nil, fmt.Errorf("%w: requested %d of %d remaining", types.ErrInsufficientCapacity, n, remaining)
	}
	child := &State{
		params:     st.params,
		start:      st.next,
		next:       st.next,
		end:        st.next + n,
		layerRoots: append([]byte(nil), st.layerRoots...),
	}
	st.next += n
	return child, nil
}
