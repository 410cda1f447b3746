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

// go/src/core/hbs/engine/tree.go
package engine

import (
	"github.com/sigstate-core/go/src/core/hbs/params"
)

// subtreeKey identifies one cached subtree. keyID partitions the cache
// between different private keys sharing an engine instance.
type subtreeKey struct {
	keyID uint64
	layer uint32
	tree  uint64
}

// subtree holds a fully computed layer subtree, level 0 being the
// leaves and level SubtreeHeight the root.
type subtree struct {
	levels [][][]byte
}

// root returns the subtree's root node.
func (t *subtree) root() []byte {
	return t.levels[len(t.levels)-1][0]
}

// authPath returns the flat authentication path for the given leaf:
// the sibling node at every level from the bottom up.
func (t *subtree) authPath(leaf uint32) []byte {
	hs := len(t.levels) - 1
	path := make([]byte, hs*params.N)
	idx := leaf
	for h := 0; h < hs; h++ {
		copy(path[h*params.N:], t.levels[h][idx^1])
		idx >>= 1
	}
	return path
}

// computeSubtree builds the full subtree for one (layer, tree index)
// position of a private key. This is the expensive operation of the
// engine: 2^SubtreeHeight leaf derivations plus the inner nodes.
func computeSubtree(p *params.Params, skSeed, pubSeed []byte, layer uint32, tree uint64) *subtree {
	hs := p.SubtreeHeight()
	leaves := uint32(1) << hs

	levels := make([][][]byte, hs+1)
	levels[0] = make([][]byte, leaves)
	for i := uint32(0); i < leaves; i++ {
		levels[0][i] = wotsLeafValue(p, skSeed, pubSeed, layer, tree, i)
	}
	for h := uint32(1); h <= hs; h++ {
		width := leaves >> h
		levels[h] = make([][]byte, width)
		for i := uint32(0); i < width; i++ {
			levels[h][i] = nodeHash(pubSeed, layer, tree, h, i, levels[h-1][2*i], levels[h-1][2*i+1])
		}
	}
	return &subtree{levels: levels}
}

// subtreeFor returns the subtree for (layer, tree), computing and
// caching it if necessary. Under StrategyMemoryConstrained only the
// most recently used subtree per layer stays resident; the full and
// cpu strategies keep everything they have ever computed.
func (e *ShakeEngine) subtreeFor(priv *PrivateKey, layer uint32, tree uint64) *subtree {
	key := subtreeKey{keyID: priv.keyID, layer: layer, tree: tree}

	e.mu.Lock()
	if t, ok := e.subtrees[key]; ok {
		e.mu.Unlock()
		return t
	}
	e.mu.Unlock()

	// Computed outside the lock; signing is single-writer per state, so
	// duplicate computation can only happen across distinct states and
	// is merely wasted work, never an inconsistency.
	t := computeSubtree(priv.params, priv.skSeed, priv.pubSeed, layer, tree)

	e.mu.Lock()
	defer e.mu.Unlock()
	if priv.params.Strategy() == params.StrategyMemoryConstrained {
		for k := range e.subtrees {
			if k.keyID == priv.keyID && k.layer == layer {
				delete(e.subtrees, k)
			}
		}
	}
	e.subtrees[key] = t
	return t
}
