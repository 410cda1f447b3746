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

// go/src/core/secure/buffer_test.go
package secure

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZero(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	Zero(b)
	assert.Equal(t, []byte{0, 0, 0, 0}, b)
}

func TestBufferClose(t *testing.T) {
	raw := []byte("secret seed material")
	buf := NewBuffer(raw)
	assert.Equal(t, raw, buf.Bytes())

	require.NoError(t, buf.Close())
	for _, v := range raw {
		assert.Zero(t, v)
	}
	assert.Nil(t, buf.Bytes())
	require.NoError(t, buf.Close())
}

func TestWithSecretWipesOnSuccess(t *testing.T) {
	b := []byte{0xaa, 0xbb}
	err := WithSecret(b, func(s []byte) error {
		assert.Equal(t, []byte{0xaa, 0xbb}, s)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0}, b)
}

func TestWithSecretWipesOnError(t *testing.T) {
	b := []byte{0xaa, 0xbb}
	sentinel := errors.New("boom")
	err := WithSecret(b, func([]byte) error { return sentinel })
	require.ErrorIs(t, err, sentinel)
	assert.Equal(t, []byte{0, 0}, b)
}

func TestWithSecretWipesOnPanic(t *testing.T) {
	b := []byte{0xaa, 0xbb}
	assert.Panics(t, func() {
		_ = WithSecret(b, func([]byte) error { panic("boom") })
	})
	assert.Equal(t, []byte{0, 0}, b)
}
