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

// go/src/core/hbs/engine/serialize.go
//
// Blob codecs. All formats are fixed-size for a given variant and use
// big-endian integers; every size is queried from params, never
// hard-coded. Import never trusts a blob: size, variant identifier and
// cursor ordering are all checked before a value is built.

package engine

import (
	"encoding/binary"
	"fmt"

	"github.com/sigstate-core/go/src/core/hbs/params"
	"github.com/sigstate-core/go/src/core/hbs/types"
)

// layerSig is one layer's share of a signature: the one-time signature
// of that layer's message and the authentication path to the layer root.
type layerSig struct {
	wotsSig  []byte
	authPath []byte
}

// Signature is a decoded signature: the consumed leaf index plus one
// layerSig per tree layer, bottom layer first.
type Signature struct {
	params    *params.Params
	leafIndex uint64
	layers    []layerSig
}

// LeafIndex returns the leaf the signature consumed.
func (s *Signature) LeafIndex() uint64 { return s.leafIndex }

// Params returns the scheme configuration the signature was built with.
func (s *Signature) Params() *params.Params { return s.params }

// ExportState serializes st into its fixed-size blob:
// oid(4) || start(8) || next(8) || end(8) || layerRoots.
func (e *ShakeEngine) ExportState(st *State) ([]byte, error) {
	if st == nil {
		return nil, fmt.Errorf("%w: nil state", types.ErrCryptoEngine)
	}
	p := st.params
	blob := make([]byte, p.StateSize())
	binary.BigEndian.PutUint32(blob[0:4], p.Variant().Oid)
	binary.BigEndian.PutUint64(blob[4:12], st.start)
	binary.BigEndian.PutUint64(blob[12:20], st.next)
	binary.BigEndian.PutUint64(blob[20:28], st.end)
	copy(blob[28:], st.layerRoots)
	return blob, nil
}

// ImportState parses a state blob produced by ExportState. The blob
// must match p's variant exactly; a depleted blob imports fine and
// stays depleted.
func (e *ShakeEngine) ImportState(p *params.Params, blob []byte) (*State, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil params", types.ErrImport)
	}
	if len(blob) != p.StateSize() {
		return nil, fmt.Errorf("%w: state blob must be %d bytes, got %d", types.ErrImport, p.StateSize(), len(blob))
	}
	oid := binary.BigEndian.Uint32(blob[0:4])
	if oid != p.Variant().Oid {
		return nil, fmt.Errorf("%w: blob variant oid 0x%02x does not match %q", types.ErrImport, oid, p.Variant().Name)
	}
	start := binary.BigEndian.Uint64(blob[4:12])
	next := binary.BigEndian.Uint64(blob[12:20])
	end := binary.BigEndian.Uint64(blob[20:28])
	if start > next || next > end || end > p.TotalLeaves() {
		return nil, fmt.Errorf("%w: inconsistent cursor start=%d next=%d end=%d (leaves=%d)",
			types.ErrImport, start, next, end, p.TotalLeaves())
	}
	return &State{
		params:     p,
		start:      start,
		next:       next,
		end:        end,
		layerRoots: append([]byte(nil), blob[28:]...),
	}, nil
}

// ExportPrivateKey serializes priv: skSeed || pubSeed || root.
func (e *ShakeEngine) ExportPrivateKey(priv *PrivateKey) ([]byte, error) {
	if priv == nil {
		return nil, fmt.Errorf("%w: nil private key", types.ErrCryptoEngine)
	}
	blob := make([]byte, priv.params.PrivateKeySize())
	copy(blob[0:params.N], priv.skSeed)
	copy(blob[params.N:2*params.N], priv.pubSeed)
	copy(blob[2*params.N:], priv.root)
	return blob, nil
}

// ImportPrivateKey parses a private key blob produced by
// ExportPrivateKey.
func (e *ShakeEngine) ImportPrivateKey(p *params.Params, blob []byte) (*PrivateKey, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil params", types.ErrImport)
	}
	if len(blob) != p.PrivateKeySize() {
		return nil, fmt.Errorf("%w: private key blob must be %d bytes, got %d", types.ErrImport, p.PrivateKeySize(), len(blob))
	}
	skSeed := append([]byte(nil), blob[0:params.N]...)
	return &PrivateKey{
		params:  p,
		skSeed:  skSeed,
		pubSeed: append([]byte(nil), blob[params.N:2*params.N]...),
		root:    append([]byte(nil), blob[2*params.N:]...),
		keyID:   keyIDOf(skSeed),
	}, nil
}

// ExportPublicKey serializes pub: root || pubSeed.
func (e *ShakeEngine) ExportPublicKey(pub *PublicKey) ([]byte, error) {
	if pub == nil {
		return nil, fmt.Errorf("%w: nil public key", types.ErrCryptoEngine)
	}
	blob := make([]byte, pub.params.PublicKeySize())
	copy(blob[0:params.N], pub.root)
	copy(blob[params.N:], pub.pubSeed)
	return blob, nil
}

// ImportPublicKey parses a public key blob produced by ExportPublicKey.
func (e *ShakeEngine) ImportPublicKey(p *params.Params, blob []byte) (*PublicKey, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil params", types.ErrImport)
	}
	if len(blob) != p.PublicKeySize() {
		return nil, fmt.Errorf("%w: public key blob must be %d bytes, got %d", types.ErrImport, p.PublicKeySize(), len(blob))
	}
	return &PublicKey{
		params:  p,
		root:    append([]byte(nil), blob[0:params.N]...),
		pubSeed: append([]byte(nil), blob[params.N:]...),
	}, nil
}

// ExportSignature serializes sig: leafIndex(8) followed per layer by
// the one-time signature and the authentication path.
func (e *ShakeEngine) ExportSignature(sig *Signature) ([]byte, error) {
	if sig == nil {
		return nil, fmt.Errorf("%w: nil signature", types.ErrCryptoEngine)
	}
	p := sig.params
	blob := make([]byte, p.SignatureSize())
	binary.BigEndian.PutUint64(blob[0:8], sig.leafIndex)
	off := 8
	for _, ls := range sig.layers {
		off += copy(blob[off:], ls.wotsSig)
		off += copy(blob[off:], ls.authPath)
	}
	return blob, nil
}

// ImportSignature parses a signature blob produced by ExportSignature.
func (e *ShakeEngine) ImportSignature(p *params.Params, blob []byte) (*Signature, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil params", types.ErrImport)
	}
	if len(blob) != p.SignatureSize() {
		return nil, fmt.Errorf("%w: signature blob must be %d bytes, got %d", types.ErrImport, p.SignatureSize(), len(blob))
	}
	sig := &Signature{
		params:    p,
		leafIndex: binary.BigEndian.Uint64(blob[0:8]),
		layers:    make([]layerSig, p.Layers()),
	}
	wotsSize := p.WotsSignatureSize()
	pathSize := int(p.SubtreeHeight()) * params.N
	off := 8
	for i := range sig.layers {
		sig.layers[i].wotsSig = append([]byte(nil), blob[off:off+wotsSize]...)
		off += wotsSize
		sig.layers[i].authPath = append([]byte(nil), blob[off:off+pathSize]...)
		off += pathSize
	}
	return sig, nil
}
