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

// go/src/cli/cli/helper.go
package cli

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/btcsuite/btcutil/base58"
	"github.com/sigstate-core/go/src/core/hbs/engine"
	"github.com/sigstate-core/go/src/core/hbs/params"
	"github.com/sigstate-core/go/src/core/hbs/types"
	"golang.org/x/crypto/sha3"
)

// digestFile hashes a message file into the fixed-size digest the
// engine signs.
func digestFile(path string) ([]byte, error) {
	msg, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading message %s: %w", path, err)
	}
	digest := make([]byte, params.N)
	sha3.ShakeSum256(digest, msg)
	return digest, nil
}

// paramsFromStateBlob resolves the scheme configuration recorded in a
// state blob's variant identifier.
func paramsFromStateBlob(blob []byte, strategy string) (*params.Params, error) {
	if len(blob) < 4 {
		return nil, fmt.Errorf("%w: state blob too short", types.ErrImport)
	}
	oid := binary.BigEndian.Uint32(blob[0:4])
	v, ok := params.ByOid(oid)
	if !ok {
		return nil, fmt.Errorf("%w: unknown variant oid 0x%02x", types.ErrImport, oid)
	}
	s, err := params.StrategyFromString(strategy)
	if err != nil {
		return nil, err
	}
	return params.New(v, s)
}

// loadPrivateKey reads and parses a raw private key file.
func loadPrivateKey(eng engine.Engine, p *params.Params, path string) (*engine.PrivateKey, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading private key %s: %w", path, err)
	}
	return eng.ImportPrivateKey(p, blob)
}

// fingerprint renders a short human-readable key identifier from the
// public root.
func fingerprint(root []byte) string {
	return base58.Encode(root[:8])
}
