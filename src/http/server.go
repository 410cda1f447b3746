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

// go/src/http/server.go

// Package http serves one managed signing state as a small REST
// service: sign, query capacity, detach. The server holds the single
// writer lock over the state, so concurrent requests serialize and
// each leaf is issued exactly once.
package http

import (
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sigstate-core/go/src/core/hbs/engine"
	"github.com/sigstate-core/go/src/core/hbs/manager"
	"github.com/sigstate-core/go/src/core/hbs/splitter"
	"github.com/sigstate-core/go/src/core/hbs/types"
	logger "github.com/sigstate-core/go/src/log"
	"github.com/sigstate-core/go/src/metrics"
)

// NewServer builds the signer service around a key, its state and the
// sink that persists it.
func NewServer(address string, eng engine.Engine, priv *engine.PrivateKey, st *engine.State, sink types.StateSink) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		address:  address,
		router:   r,
		mgr:      manager.New(eng),
		split:    splitter.New(eng),
		eng:      eng,
		priv:     priv,
		state:    st,
		sink:     sink,
		registry: prometheus.NewRegistry(),
		met:      metrics.New(),
	}
	s.met.Register(s.registry)
	s.setupRoutes()
	s.updateCapacityGauge()
	return s
}

// Router exposes the gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine { return s.router }

func (s *Server) setupRoutes() {
	s.router.POST("/sign", s.handleSign)
	s.router.GET("/capacity", s.handleCapacity)
	s.router.POST("/detach", s.handleDetach)
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
}

// Run starts serving. Blocks until the listener fails.
func (s *Server) Run() error {
	logger.Infof("signer service listening on %s (%s)", s.address, s.priv.Params().Variant().Name)
	return s.router.Run(s.address)
}

func (s *Server) variantLabel() string {
	return s.priv.Params().Variant().Name
}

func (s *Server) updateCapacityGauge() {
	c := s.mgr.Capacity(s.state)
	s.met.RemainingCapacity.WithLabelValues(s.variantLabel()).Set(float64(c.Remaining))
}

// statusFor maps the error taxonomy onto HTTP statuses. Depletion and
// insufficient capacity are client-resolvable conflicts; persistence
// trouble is a retryable service failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrStateDepleted), errors.Is(err, types.ErrInsufficientCapacity):
		return http.StatusConflict
	case errors.Is(err, types.ErrImport), errors.Is(err, types.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrPersistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleSign(c *gin.Context) {
	var req SignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	digest, err := hex.DecodeString(req.Digest)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "digest is not valid hex"})
		return
	}
	if len(digest) != s.priv.Params().DigestSize() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "digest has wrong length"})
		return
	}

	s.stateMu.Lock()
	start := time.Now()
	sig, err := s.mgr.SignAndCommit(s.priv, s.state, digest, s.sink)
	elapsed := time.Since(start)
	if err != nil {
		s.stateMu.Unlock()
		if errors.Is(err, types.ErrPersistence) {
			s.met.PersistFailures.WithLabelValues(s.variantLabel()).Inc()
		}
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	remaining := s.mgr.Capacity(s.state).Remaining
	s.updateCapacityGauge()
	s.stateMu.Unlock()

	s.met.SignaturesIssued.WithLabelValues(s.variantLabel()).Inc()
	s.met.SignLatency.WithLabelValues(s.variantLabel()).Observe(elapsed.Seconds())

	blob, err := s.eng.ExportSignature(sig)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, SignResponse{
		Signature: hex.EncodeToString(blob),
		LeafIndex: sig.LeafIndex(),
		Remaining: remaining,
	})
}

func (s *Server) handleCapacity(c *gin.Context) {
	s.stateMu.Lock()
	snap := s.mgr.Capacity(s.state)
	status := s.mgr.Status(s.state)
	next := s.state.NextLeaf()
	s.stateMu.Unlock()

	c.JSON(http.StatusOK, CapacityResponse{
		Variant:   s.variantLabel(),
		Status:    status.String(),
		Max:       snap.Max,
		Remaining: snap.Remaining,
		NextLeaf:  next,
	})
}

func (s *Server) handleDetach(c *gin.Context) {
	var req DetachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.stateMu.Lock()
	child, err := s.split.Detach(s.priv, s.state, req.Count, s.sink)
	if err != nil {
		s.stateMu.Unlock()
		if errors.Is(err, types.ErrPersistence) {
			s.met.PersistFailures.WithLabelValues(s.variantLabel()).Inc()
		}
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	parentRemaining := s.mgr.Capacity(s.state).Remaining
	s.updateCapacityGauge()
	s.stateMu.Unlock()

	blob, err := s.eng.ExportState(child)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.met.Detachments.WithLabelValues(s.variantLabel()).Inc()
	c.JSON(http.StatusOK, DetachResponse{
		State:           hex.EncodeToString(blob),
		Count:           req.Count,
		ParentRemaining: parentRemaining,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
