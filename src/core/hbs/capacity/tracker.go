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

// go/src/core/hbs/capacity/tracker.go

// Package capacity reports how many one-time signatures a state has
// left. It is read-only bookkeeping over the engine's leaf cursor; it
// never mutates a state.
package capacity

import (
	"github.com/sigstate-core/go/src/core/hbs/engine"
	"github.com/sigstate-core/go/src/core/hbs/types"
)

// Tracker answers capacity queries for states handled by one engine.
type Tracker struct {
	eng engine.Engine
}

// NewTracker builds a Tracker over eng.
func NewTracker(eng engine.Engine) *Tracker {
	return &Tracker{eng: eng}
}

// Of returns the state's total and remaining signature capacity. A
// detached state reports the size of its own sub-range, not the parent
// key's.
func (t *Tracker) Of(st *engine.State) types.Capacity {
	max, remaining := t.eng.SignatureCount(st)
	return types.Capacity{Max: max, Remaining: remaining}
}

// StatusOf classifies the state's lifecycle position. Depleted is
// terminal; nothing moves a state out of it.
func (t *Tracker) StatusOf(st *engine.State) types.Status {
	c := t.Of(st)
	switch {
	case c.Remaining == 0:
		return types.StatusDepleted
	case c.Remaining == c.Max:
		return types.StatusFresh
	default:
		return types.StatusActive
	}
}
