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

// go/src/core/hbs/manager/manager.go

// Package manager enforces the sign-then-persist protocol. A signature
// leaves SignAndCommit only after the state that can no longer produce
// it has been durably persisted; any persistence failure suppresses
// the signature and rolls the in-memory state back, so a retry is
// always safe.
package manager

import (
	"fmt"

	"github.com/sigstate-core/go/src/core/hbs/capacity"
	"github.com/sigstate-core/go/src/core/hbs/engine"
	"github.com/sigstate-core/go/src/core/hbs/types"
)

// Manager drives the signing lifecycle of states over one engine.
// Callers must serialize access per state; see the package comment on
// the concurrency contract.
type Manager struct {
	eng engine.Engine
	cap *capacity.Tracker
}

// New builds a Manager over eng.
func New(eng engine.Engine) *Manager {
	return &Manager{eng: eng, cap: capacity.NewTracker(eng)}
}

// Capacity returns the state's capacity snapshot.
func (m *Manager) Capacity(st *engine.State) types.Capacity {
	return m.cap.Of(st)
}

// Status returns the state's lifecycle status.
func (m *Manager) Status(st *engine.State) types.Status {
	return m.cap.StatusOf(st)
}

// SignAndCommit signs digest with the state's next leaf, persists the
// advanced state through sink and only then returns the signature.
//
// Failure modes:
//   - ErrStateDepleted: no leaves remain; st is untouched.
//   - ErrPersistence: the sink failed; st is rolled back to its
//     pre-call value and no signature is returned. The leaf was not
//     exposed and the same call may be retried.
func (m *Manager) SignAndCommit(priv *engine.PrivateKey, st *engine.State, digest []byte, sink types.StateSink) (*engine.Signature, error) {
	if sink == nil {
		return nil, fmt.Errorf("%w: nil state sink", types.ErrPersistence)
	}
	if st != nil {
		if c := m.cap.Of(st); c.Remaining == 0 {
			return nil, fmt.Errorf("%w: no leaves remain", types.ErrStateDepleted)
		}
	}

	before, err := m.eng.ExportState(st)
	if err != nil {
		return nil, err
	}

	sig, err := m.eng.Sign(priv, digest, st)
	if err != nil {
		return nil, err
	}

	after, err := m.eng.ExportState(st)
	if err != nil {
		return nil, m.fail(priv, st, before,
			fmt.Errorf("%w: exporting advanced state: %v", types.ErrPersistence, err))
	}
	if err := sink.Persist(after); err != nil {
		return nil, m.fail(priv, st, before,
			fmt.Errorf("%w: %v", types.ErrPersistence, err))
	}
	return sig, nil
}

// fail rolls st back to the exported snapshot taken before signing and
// returns perr, annotated if the rollback itself failed.
func (m *Manager) fail(priv *engine.PrivateKey, st *engine.State, snapshot []byte, perr error) error {
	restored, err := m.eng.ImportState(priv.Params(), snapshot)
	if err != nil {
		// The snapshot came from ExportState moments ago; failing to
		// re-import it means the engine itself is broken.
		return fmt.Errorf("%w; rollback failed: %v", perr, err)
	}
	*st = *restored
	return perr
}
