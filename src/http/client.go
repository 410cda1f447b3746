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

// go/src/http/client.go
package http

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Client talks to a remote signer service.
type Client struct {
	base string
	hc   *http.Client
}

// NewClient builds a client for the signer at base, e.g.
// "http://127.0.0.1:8545".
func NewClient(base string) *Client {
	return &Client{base: base, hc: http.DefaultClient}
}

func (c *Client) post(path string, req, resp interface{}) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	r, err := c.hc.Post(c.base+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer r.Body.Close()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if r.StatusCode != http.StatusOK {
		return fmt.Errorf("signer returned %s: %s", r.Status, data)
	}
	return json.Unmarshal(data, resp)
}

// Sign asks the service to sign digest, returning the raw signature
// blob and the consumed leaf index.
func (c *Client) Sign(digest []byte) ([]byte, uint64, error) {
	var resp SignResponse
	if err := c.post("/sign", SignRequest{Digest: hex.EncodeToString(digest)}, &resp); err != nil {
		return nil, 0, err
	}
	sig, err := hex.DecodeString(resp.Signature)
	if err != nil {
		return nil, 0, fmt.Errorf("decoding signature: %w", err)
	}
	return sig, resp.LeafIndex, nil
}

// Capacity fetches the service's capacity snapshot.
func (c *Client) Capacity() (*CapacityResponse, error) {
	r, err := c.hc.Get(c.base + "/capacity")
	if err != nil {
		return nil, err
	}
	defer r.Body.Close()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if r.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("signer returned %s: %s", r.Status, data)
	}
	var resp CapacityResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Detach asks the service to carve n leaves into a detached state,
// returning the raw state blob.
func (c *Client) Detach(n uint64) ([]byte, error) {
	var resp DetachResponse
	if err := c.post("/detach", DetachRequest{Count: n}, &resp); err != nil {
		return nil, err
	}
	blob, err := hex.DecodeString(resp.State)
	if err != nil {
		return nil, fmt.Errorf("decoding state: %w", err)
	}
	return blob, nil
}
