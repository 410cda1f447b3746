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

// go/src/core/hbs/engine/engine_test.go
package engine

import (
	"crypto/rand"
	"testing"

	"github.com/sigstate-core/go/src/core/hbs/params"
	"github.com/sigstate-core/go/src/core/hbs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams(t *testing.T, v params.Variant) *params.Params {
	t.Helper()
	p, err := params.New(v, params.StrategyFull)
	require.NoError(t, err)
	return p
}

func testDigest(t *testing.T, p *params.Params) []byte {
	t.Helper()
	d := make([]byte, p.DigestSize())
	_, err := rand.Read(d)
	require.NoError(t, err)
	return d
}

func TestSignVerifyRoundTrip(t *testing.T) {
	for _, v := range []params.Variant{params.XMSS10, params.XMSSMT20x4, params.HSS10W4} {
		t.Run(v.Name, func(t *testing.T) {
			p := testParams(t, v)
			eng := New()
			pub, priv, st, err := eng.GenerateKeyPair(p, rand.Reader)
			require.NoError(t, err)

			digest := testDigest(t, p)
			sig, err := eng.Sign(priv, digest, st)
			require.NoError(t, err)
			assert.Equal(t, uint64(0), sig.LeafIndex())
			assert.Equal(t, uint64(1), st.NextLeaf())

			ok, err := eng.Verify(pub, digest, sig)
			require.NoError(t, err)
			assert.True(t, ok)

			// A different digest must not verify.
			other := testDigest(t, p)
			ok, err = eng.Verify(pub, other, sig)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestSignAdvancesLeaves(t *testing.T) {
	p := testParams(t, params.XMSS10)
	eng := New()
	pub, priv, st, err := eng.GenerateKeyPair(p, rand.Reader)
	require.NoError(t, err)

	seen := make(map[uint64]bool)
	for i := 0; i < 5; i++ {
		digest := testDigest(t, p)
		sig, err := eng.Sign(priv, digest, st)
		require.NoError(t, err)
		assert.False(t, seen[sig.LeafIndex()], "leaf %d reused", sig.LeafIndex())
		seen[sig.LeafIndex()] = true

		ok, err := eng.Verify(pub, digest, sig)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, uint64(5), st.NextLeaf())
}

func TestTamperedSignatureFails(t *testing.T) {
	p := testParams(t, params.XMSSMT20x4)
	eng := New()
	pub, priv, st, err := eng.GenerateKeyPair(p, rand.Reader)
	require.NoError(t, err)

	digest := testDigest(t, p)
	sig, err := eng.Sign(priv, digest, st)
	require.NoError(t, err)

	blob, err := eng.ExportSignature(sig)
	require.NoError(t, err)
	blob[40] ^= 0x01
	tampered, err := eng.ImportSignature(p, blob)
	require.NoError(t, err)

	ok, err := eng.Verify(pub, digest, tampered)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyIsPure(t *testing.T) {
	p := testParams(t, params.XMSS10)
	eng := New()
	pub, priv, st, err := eng.GenerateKeyPair(p, rand.Reader)
	require.NoError(t, err)

	digest := testDigest(t, p)
	sig, err := eng.Sign(priv, digest, st)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		ok, err := eng.Verify(pub, digest, sig)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestSignDepletedState(t *testing.T) {
	p := testParams(t, params.XMSS10)
	eng := New()
	_, priv, st, err := eng.GenerateKeyPair(p, rand.Reader)
	require.NoError(t, err)

	// Exhaust a small detached range instead of the whole key.
	child, err := eng.DetachState(priv, st, 2)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err := eng.Sign(priv, testDigest(t, p), child)
		require.NoError(t, err)
	}

	before, err := eng.ExportState(child)
	require.NoError(t, err)
	_, err = eng.Sign(priv, testDigest(t, p), child)
	require.ErrorIs(t, err, types.ErrStateDepleted)
	after, err := eng.ExportState(child)
	require.NoError(t, err)
	assert.Equal(t, before, after, "depletion must not mutate the state")
}

func TestSignRejectsWrongDigestLength(t *testing.T) {
	p := testParams(t, params.XMSS10)
	eng := New()
	_, priv, st, err := eng.GenerateKeyPair(p, rand.Reader)
	require.NoError(t, err)

	_, err = eng.Sign(priv, make([]byte, 16), st)
	require.ErrorIs(t, err, types.ErrCryptoEngine)
	assert.Equal(t, uint64(0), st.NextLeaf())
}

func TestDetachState(t *testing.T) {
	p := testParams(t, params.XMSS10)
	eng := New()
	pub, priv, st, err := eng.GenerateKeyPair(p, rand.Reader)
	require.NoError(t, err)

	child, err := eng.DetachState(priv, st, 100)
	require.NoError(t, err)

	max, remaining := eng.SignatureCount(child)
	assert.Equal(t, uint64(100), max)
	assert.Equal(t, uint64(100), remaining)

	max, remaining = eng.SignatureCount(st)
	assert.Equal(t, uint64(1024), max)
	assert.Equal(t, uint64(924), remaining)
	assert.Equal(t, uint64(100), st.NextLeaf())

	// Both sides sign from disjoint leaves.
	digest := testDigest(t, p)
	childSig, err := eng.Sign(priv, digest, child)
	require.NoError(t, err)
	parentSig, err := eng.Sign(priv, digest, st)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), childSig.LeafIndex())
	assert.Equal(t, uint64(100), parentSig.LeafIndex())

	for _, sig := range []*Signature{childSig, parentSig} {
		ok, err := eng.Verify(pub, digest, sig)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestDetachInsufficientCapacity(t *testing.T) {
	p := testParams(t, params.XMSS10)
	eng := New()
	_, priv, st, err := eng.GenerateKeyPair(p, rand.Reader)
	require.NoError(t, err)

	before, err := eng.ExportState(st)
	require.NoError(t, err)

	_, err = eng.DetachState(priv, st, 0)
	require.ErrorIs(t, err, types.ErrInsufficientCapacity)
	_, err = eng.DetachState(priv, st, 1025)
	require.ErrorIs(t, err, types.ErrInsufficientCapacity)

	after, err := eng.ExportState(st)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestDetachWholeRemainingRange(t *testing.T) {
	p := testParams(t, params.XMSS10)
	eng := New()
	_, priv, st, err := eng.GenerateKeyPair(p, rand.Reader)
	require.NoError(t, err)

	child, err := eng.DetachState(priv, st, 1024)
	require.NoError(t, err)

	_, remaining := eng.SignatureCount(st)
	assert.Equal(t, uint64(0), remaining, "parent is depleted")
	_, remaining = eng.SignatureCount(child)
	assert.Equal(t, uint64(1024), remaining)

	_, err = eng.Sign(priv, testDigest(t, p), st)
	require.ErrorIs(t, err, types.ErrStateDepleted)
}

func TestMemoryConstrainedStrategySigns(t *testing.T) {
	p, err := params.New(params.XMSSMT20x4, params.StrategyMemoryConstrained)
	require.NoError(t, err)
	eng := New()
	pub, priv, st, err := eng.GenerateKeyPair(p, rand.Reader)
	require.NoError(t, err)

	// Cross a subtree boundary (height 5, so leaf 32 starts a new tree).
	child, err := eng.DetachState(priv, st, 40)
	require.NoError(t, err)
	for i := 0; i < 34; i++ {
		digest := testDigest(t, p)
		sig, err := eng.Sign(priv, digest, child)
		require.NoError(t, err)
		ok, err := eng.Verify(pub, digest, sig)
		require.NoError(t, err)
		assert.True(t, ok, "leaf %d", sig.LeafIndex())
	}
}
