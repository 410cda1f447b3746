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

// go/src/http/types.go
package http

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sigstate-core/go/src/core/hbs/engine"
	"github.com/sigstate-core/go/src/core/hbs/manager"
	"github.com/sigstate-core/go/src/core/hbs/splitter"
	"github.com/sigstate-core/go/src/core/hbs/types"
	"github.com/sigstate-core/go/src/metrics"
)

// Server exposes one managed signing state over HTTP.
type Server struct {
	address  string
	router   *gin.Engine
	mgr      *manager.Manager
	split    *splitter.Splitter
	eng      engine.Engine
	priv     *engine.PrivateKey
	state    *engine.State
	sink     types.StateSink
	registry *prometheus.Registry
	met      *metrics.Metrics

	// Serializes every state mutation; the state is single-writer.
	stateMu sync.Mutex
}

// SignRequest carries a hex-encoded digest of DigestSize bytes.
type SignRequest struct {
	Digest string `json:"digest" binding:"required"`
}

// SignResponse returns the committed signature and the consumed leaf.
type SignResponse struct {
	Signature string `json:"signature"`
	LeafIndex uint64 `json:"leaf_index"`
	Remaining uint64 `json:"remaining"`
}

// CapacityResponse is the capacity snapshot of the managed state.
type CapacityResponse struct {
	Variant   string `json:"variant"`
	Status    string `json:"status"`
	Max       uint64 `json:"max"`
	Remaining uint64 `json:"remaining"`
	NextLeaf  uint64 `json:"next_leaf"`
}

// DetachRequest asks for n leaves to be carved off the managed state.
type DetachRequest struct {
	Count uint64 `json:"count" binding:"required"`
}

// DetachResponse returns the detached state blob, ready to hand to an
// offline consumer. The parent was persisted before this was built.
type DetachResponse struct {
	State           string `json:"state"`
	Count           uint64 `json:"count"`
	ParentRemaining uint64 `json:"parent_remaining"`
}
