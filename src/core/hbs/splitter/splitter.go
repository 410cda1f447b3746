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

// go/src/core/hbs/splitter/splitter.go

// Package splitter carves a state's unused capacity into independent
// sub-states. The protocol mirrors signing: the parent, advanced past
// the detached range, is durably persisted before the child is
// released, so a crash can forfeit capacity but never duplicate it.
package splitter

import (
	"fmt"

	"github.com/sigstate-core/go/src/core/hbs/engine"
	"github.com/sigstate-core/go/src/core/hbs/types"
)

// Splitter detaches capacity from states over one engine. Callers must
// serialize access per state, the same contract as the manager.
type Splitter struct {
	eng engine.Engine
}

// New builds a Splitter over eng.
func New(eng engine.Engine) *Splitter {
	return &Splitter{eng: eng}
}

// Detach removes the next n unused leaves from parent into a new
// state, persists the advanced parent through parentSink and only then
// returns the child.
//
// Failure modes:
//   - ErrInsufficientCapacity: n is zero or exceeds the parent's
//     remaining capacity; parent is untouched.
//   - ErrPersistence: parentSink failed; parent is rolled back to its
//     pre-call value and no child is returned.
//
// The caller owns persisting the child. A crash after the parent
// persist but before the child reaches storage forfeits the detached
// range; that is the safe direction.
func (s *Splitter) Detach(priv *engine.PrivateKey, parent *engine.State, n uint64, parentSink types.StateSink) (*engine.State, error) {
	if parentSink == nil {
		return nil, fmt.Errorf("%w: nil parent sink", types.ErrPersistence)
	}

	before, err := s.eng.ExportState(parent)
	if err != nil {
		return nil, err
	}

	child, err := s.eng.DetachState(priv, parent, n)
	if err != nil {
		return nil, err
	}

	after, err := s.eng.ExportState(parent)
	if err != nil {
		return nil, s.fail(priv, parent, before,
			fmt.Errorf("%w: exporting advanced parent: %v", types.ErrPersistence, err))
	}
	if err := parentSink.Persist(after); err != nil {
		return nil, s.fail(priv, parent, before,
			fmt.Errorf("%w: %v", types.ErrPersistence, err))
	}
	return child, nil
}

// fail rolls the parent back to its pre-detach snapshot and returns
// perr, annotated if the rollback itself failed.
func (s *Splitter) fail(priv *engine.PrivateKey, parent *engine.State, snapshot []byte, perr error) error {
	restored, err := s.eng.ImportState(priv.Params(), snapshot)
	if err != nil {
		return fmt.Errorf("%w; rollback failed: %v", perr, err)
	}
	*parent = *restored
	return perr
}
