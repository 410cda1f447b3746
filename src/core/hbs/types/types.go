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

// go/src/core/hbs/types/types.go
package types

// Capacity reports how many one-time-signature leaves a private key state
// was created with and how many are still unused.
type Capacity struct {
	Max       uint64
	Remaining uint64
}

// Status is the lifecycle position of a private key state.
type Status int

const (
	// StatusFresh means no leaf of the state's range has been consumed.
	StatusFresh Status = iota
	// StatusActive means at least one leaf remains.
	StatusActive
	// StatusDepleted means every leaf has been consumed. Terminal.
	StatusDepleted
)

// String returns the status label.
func (s Status) String() string {
	switch s {
	case StatusFresh:
		return "fresh"
	case StatusActive:
		return "active"
	case StatusDepleted:
		return "depleted"
	default:
		return "unknown"
	}
}

// StateSink is a durable-write capability for serialized private key
// states. Persist must be atomic: a reader of the underlying storage
// must observe either the previous blob or the new one, never a torn
// write. Persist is synchronous; callers block until the blob is
// durable.
type StateSink interface {
	Persist(blob []byte) error
}

// SinkFunc adapts a function to the StateSink interface.
type SinkFunc func(blob []byte) error

// Persist calls f(blob).
func (f SinkFunc) Persist(blob []byte) error {
	return f(blob)
}
