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

// go/src/http/server_test.go
package http

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sigstate-core/go/src/core/hbs/engine"
	"github.com/sigstate-core/go/src/core/hbs/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSink struct {
	count int
	fail  error
}

func (s *memSink) Persist(blob []byte) error {
	if s.fail != nil {
		return s.fail
	}
	s.count++
	return nil
}

func newTestServer(t *testing.T, sink *memSink) (*Server, *engine.PublicKey, engine.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	p, err := params.New(params.XMSS10, params.StrategyFull)
	require.NoError(t, err)
	eng := engine.New()
	pub, priv, st, err := eng.GenerateKeyPair(p, rand.Reader)
	require.NoError(t, err)
	return NewServer("127.0.0.1:0", eng, priv, st, sink), pub, eng
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestSignEndpoint(t *testing.T) {
	sink := &memSink{}
	srv, pub, eng := newTestServer(t, sink)

	digest := make([]byte, 32)
	_, err := rand.Read(digest)
	require.NoError(t, err)

	w := doJSON(t, srv, http.MethodPost, "/sign", SignRequest{Digest: hex.EncodeToString(digest)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp SignResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint64(0), resp.LeafIndex)
	assert.Equal(t, uint64(1023), resp.Remaining)
	assert.Equal(t, 1, sink.count)

	sigBlob, err := hex.DecodeString(resp.Signature)
	require.NoError(t, err)
	sig, err := eng.ImportSignature(pub.Params(), sigBlob)
	require.NoError(t, err)
	ok, err := eng.Verify(pub, digest, sig)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSignEndpointRejectsBadDigest(t *testing.T) {
	srv, _, _ := newTestServer(t, &memSink{})

	w := doJSON(t, srv, http.MethodPost, "/sign", SignRequest{Digest: "not-hex"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/sign", SignRequest{Digest: "abcd"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/sign", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignEndpointPersistFailure(t *testing.T) {
	sink := &memSink{fail: errors.New("disk full")}
	srv, _, _ := newTestServer(t, sink)

	digest := make([]byte, 32)
	w := doJSON(t, srv, http.MethodPost, "/sign", SignRequest{Digest: hex.EncodeToString(digest)})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// After the sink recovers the same leaf is issued.
	sink.fail = nil
	w = doJSON(t, srv, http.MethodPost, "/sign", SignRequest{Digest: hex.EncodeToString(digest)})
	require.Equal(t, http.StatusOK, w.Code)
	var resp SignResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint64(0), resp.LeafIndex)
}

func TestCapacityEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t, &memSink{})

	w := doJSON(t, srv, http.MethodGet, "/capacity", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp CapacityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, params.XMSS10.Name, resp.Variant)
	assert.Equal(t, "fresh", resp.Status)
	assert.Equal(t, uint64(1024), resp.Max)
	assert.Equal(t, uint64(1024), resp.Remaining)
	assert.Equal(t, uint64(0), resp.NextLeaf)
}

func TestDetachEndpoint(t *testing.T) {
	sink := &memSink{}
	srv, _, eng := newTestServer(t, sink)

	w := doJSON(t, srv, http.MethodPost, "/detach", DetachRequest{Count: 100})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp DetachResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint64(100), resp.Count)
	assert.Equal(t, uint64(924), resp.ParentRemaining)
	assert.Equal(t, 1, sink.count)

	blob, err := hex.DecodeString(resp.State)
	require.NoError(t, err)
	p, err := params.New(params.XMSS10, params.StrategyFull)
	require.NoError(t, err)
	child, err := eng.ImportState(p, blob)
	require.NoError(t, err)
	max, remaining := eng.SignatureCount(child)
	assert.Equal(t, uint64(100), max)
	assert.Equal(t, uint64(100), remaining)
}

func TestDetachEndpointOverCapacity(t *testing.T) {
	srv, _, _ := newTestServer(t, &memSink{})
	w := doJSON(t, srv, http.MethodPost, "/detach", DetachRequest{Count: 5000})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestClientAgainstServer(t *testing.T) {
	sink := &memSink{}
	srv, pub, eng := newTestServer(t, sink)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	client := NewClient(ts.URL)

	capResp, err := client.Capacity()
	require.NoError(t, err)
	assert.Equal(t, uint64(1024), capResp.Max)
	assert.Equal(t, uint64(1024), capResp.Remaining)
	assert.Equal(t, "fresh", capResp.Status)

	digest := make([]byte, 32)
	_, err = rand.Read(digest)
	require.NoError(t, err)
	sigBlob, leaf, err := client.Sign(digest)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), leaf)

	sig, err := eng.ImportSignature(pub.Params(), sigBlob)
	require.NoError(t, err)
	ok, err := eng.Verify(pub, digest, sig)
	require.NoError(t, err)
	assert.True(t, ok)

	stateBlob, err := client.Detach(50)
	require.NoError(t, err)
	child, err := eng.ImportState(pub.Params(), stateBlob)
	require.NoError(t, err)
	max, remaining := eng.SignatureCount(child)
	assert.Equal(t, uint64(50), max)
	assert.Equal(t, uint64(50), remaining)

	// Server-side refusals surface as errors, not bogus blobs.
	_, err = client.Detach(5000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient")

	capResp, err = client.Capacity()
	require.NoError(t, err)
	assert.Equal(t, uint64(973), capResp.Remaining)
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _, _ := newTestServer(t, &memSink{})

	w := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "signer_remaining_capacity")
}
