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

// go/src/core/hbs/engine/serialize_test.go
package engine

import (
	"crypto/rand"
	"encoding/binary"
	"testing"

	"github.com/sigstate-core/go/src/core/hbs/params"
	"github.com/sigstate-core/go/src/core/hbs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateRoundTripAcrossRestart(t *testing.T) {
	p := testParams(t, params.XMSS10)
	eng := New()
	pub, priv, st, err := eng.GenerateKeyPair(p, rand.Reader)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := eng.Sign(priv, testDigest(t, p), st)
		require.NoError(t, err)
	}

	blob, err := eng.ExportState(st)
	require.NoError(t, err)

	// A fresh engine with a re-imported key and state resumes exactly
	// where the old one stopped.
	privBlob, err := eng.ExportPrivateKey(priv)
	require.NoError(t, err)
	eng2 := New()
	priv2, err := eng2.ImportPrivateKey(p, privBlob)
	require.NoError(t, err)
	st2, err := eng2.ImportState(p, blob)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), st2.NextLeaf())

	digest := testDigest(t, p)
	sig, err := eng2.Sign(priv2, digest, st2)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), sig.LeafIndex())

	ok, err := eng2.Verify(pub, digest, sig)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestImportStateRejectsBadBlobs(t *testing.T) {
	p := testParams(t, params.XMSS10)
	eng := New()
	_, _, st, err := eng.GenerateKeyPair(p, rand.Reader)
	require.NoError(t, err)
	blob, err := eng.ExportState(st)
	require.NoError(t, err)

	t.Run("truncated", func(t *testing.T) {
		_, err := eng.ImportState(p, blob[:len(blob)-1])
		require.ErrorIs(t, err, types.ErrImport)
	})

	t.Run("wrong variant oid", func(t *testing.T) {
		bad := append([]byte(nil), blob...)
		binary.BigEndian.PutUint32(bad[0:4], params.XMSS16.Oid)
		_, err := eng.ImportState(p, bad)
		require.ErrorIs(t, err, types.ErrImport)
	})

	t.Run("cursor out of order", func(t *testing.T) {
		bad := append([]byte(nil), blob...)
		binary.BigEndian.PutUint64(bad[4:12], 10) // start
		binary.BigEndian.PutUint64(bad[12:20], 5) // next < start
		_, err := eng.ImportState(p, bad)
		require.ErrorIs(t, err, types.ErrImport)
	})

	t.Run("end beyond leaf space", func(t *testing.T) {
		bad := append([]byte(nil), blob...)
		binary.BigEndian.PutUint64(bad[20:28], 1<<20)
		_, err := eng.ImportState(p, bad)
		require.ErrorIs(t, err, types.ErrImport)
	})
}

func TestImportDepletedStateStaysDepleted(t *testing.T) {
	p := testParams(t, params.XMSS10)
	eng := New()
	_, priv, st, err := eng.GenerateKeyPair(p, rand.Reader)
	require.NoError(t, err)

	child, err := eng.DetachState(priv, st, 1)
	require.NoError(t, err)
	_, err = eng.Sign(priv, testDigest(t, p), child)
	require.NoError(t, err)

	blob, err := eng.ExportState(child)
	require.NoError(t, err)
	imported, err := eng.ImportState(p, blob)
	require.NoError(t, err)

	_, remaining := eng.SignatureCount(imported)
	assert.Equal(t, uint64(0), remaining)
	_, err = eng.Sign(priv, testDigest(t, p), imported)
	require.ErrorIs(t, err, types.ErrStateDepleted)
}

func TestKeyBlobRoundTrip(t *testing.T) {
	p := testParams(t, params.XMSSMT20x4)
	eng := New()
	pub, priv, _, err := eng.GenerateKeyPair(p, rand.Reader)
	require.NoError(t, err)

	privBlob, err := eng.ExportPrivateKey(priv)
	require.NoError(t, err)
	assert.Len(t, privBlob, p.PrivateKeySize())
	priv2, err := eng.ImportPrivateKey(p, privBlob)
	require.NoError(t, err)
	privBlob2, err := eng.ExportPrivateKey(priv2)
	require.NoError(t, err)
	assert.Equal(t, privBlob, privBlob2)

	pubBlob, err := eng.ExportPublicKey(pub)
	require.NoError(t, err)
	assert.Len(t, pubBlob, p.PublicKeySize())
	pub2, err := eng.ImportPublicKey(p, pubBlob)
	require.NoError(t, err)
	assert.Equal(t, pub.Root(), pub2.Root())

	_, err = eng.ImportPrivateKey(p, privBlob[:10])
	require.ErrorIs(t, err, types.ErrImport)
	_, err = eng.ImportPublicKey(p, pubBlob[:10])
	require.ErrorIs(t, err, types.ErrImport)
}

func TestSignatureBlobRoundTrip(t *testing.T) {
	p := testParams(t, params.XMSSMT20x4)
	eng := New()
	pub, priv, st, err := eng.GenerateKeyPair(p, rand.Reader)
	require.NoError(t, err)

	digest := testDigest(t, p)
	sig, err := eng.Sign(priv, digest, st)
	require.NoError(t, err)

	blob, err := eng.ExportSignature(sig)
	require.NoError(t, err)
	assert.Len(t, blob, p.SignatureSize())

	sig2, err := eng.ImportSignature(p, blob)
	require.NoError(t, err)
	assert.Equal(t, sig.LeafIndex(), sig2.LeafIndex())

	ok, err := eng.Verify(pub, digest, sig2)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = eng.ImportSignature(p, blob[:len(blob)-4])
	require.ErrorIs(t, err, types.ErrImport)
}
