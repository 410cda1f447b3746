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

// go/src/core/hbs/types/errors.go
package types

import "errors"

// Error taxonomy for the signing state machinery. Callers match with
// errors.Is; lower layers wrap these with context via fmt.Errorf and %w.
var (
	// ErrInvalidParameter marks an unsupported or malformed scheme
	// configuration. Fatal at setup time.
	ErrInvalidParameter = errors.New("invalid scheme parameter")

	// ErrImport marks a key or state blob of the wrong size or with an
	// invalid structure. The caller must re-acquire a valid blob.
	ErrImport = errors.New("import failed")

	// ErrStateDepleted marks a private key state whose signing capacity
	// is exhausted. Terminal for that state and always reproducible.
	ErrStateDepleted = errors.New("state depleted")

	// ErrInsufficientCapacity marks a detach request exceeding the
	// remaining capacity of the parent state.
	ErrInsufficientCapacity = errors.New("insufficient remaining capacity")

	// ErrPersistence marks a failed durable write of an advanced state.
	// The operation is rolled back as a whole: no signature is released
	// and no detached state is handed out.
	ErrPersistence = errors.New("state persistence failed")

	// ErrCryptoEngine wraps failures of the underlying primitives, such
	// as a digest of the wrong length.
	ErrCryptoEngine = errors.New("crypto engine failure")
)
