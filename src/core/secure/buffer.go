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

// go/src/core/secure/buffer.go

// Package secure provides scoped handling of secret byte material. The
// contract is simple: any buffer holding key bytes is wiped before the
// scope that created it returns, on every path including errors.
package secure

import "runtime"

// Zero overwrites b with zeros. The KeepAlive stops the compiler from
// eliding the wipe of a buffer that is about to become unreachable.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(&b)
}

// Buffer owns a secret byte slice and wipes it on Close.
type Buffer struct {
	b []byte
}

// NewBuffer takes ownership of b. The caller must not retain b.
func NewBuffer(b []byte) *Buffer {
	return &Buffer{b: b}
}

// Bytes returns the underlying slice. Valid until Close.
func (s *Buffer) Bytes() []byte { return s.b }

// Close wipes the buffer. Safe to call more than once.
func (s *Buffer) Close() error {
	Zero(s.b)
	s.b = nil
	return nil
}

// WithSecret runs fn with b and wipes b before returning, whether fn
// succeeds, fails or panics.
func WithSecret(b []byte, fn func([]byte) error) error {
	defer Zero(b)
	return fn(b)
}
