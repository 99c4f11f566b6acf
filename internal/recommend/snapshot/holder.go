// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package snapshot

import (
	"sync"
	"sync/atomic"

	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/recommend/algorithms"
)

// Holder holds the current model snapshot.
type Holder struct {
	current atomic.Pointer[algorithms.ALSModel]

	mu    sync.Mutex // serializes Publish and guards hooks
	hooks []func(*algorithms.ALSModel)
}

// NewHolder creates an empty holder.
func NewHolder() *Holder {
	return &Holder{}
}

// Load returns the current snapshot, or nil if none has been published.
func (h *Holder) Load() *algorithms.ALSModel {
	return h.current.Load()
}

// Publish makes m the current snapshot. Snapshots whose version is not
// newer than the current one are ignored and Publish reports false.
func (h *Holder) Publish(m *algorithms.ALSModel) bool {
	if m == nil {
		return false
	}

	h.mu.Lock()
	if cur := h.current.Load(); cur != nil && cur.Version >= m.Version {
		h.mu.Unlock()
		return false
	}
	h.current.Store(m)
	hooks := append([]func(*algorithms.ALSModel){}, h.hooks...)
	h.mu.Unlock()

	metrics.SetSnapshot(m.Version, m.FittedAt)
	for _, fn := range hooks {
		fn(m)
	}
	return true
}

// OnPublish registers fn to run after every successful Publish.
func (h *Holder) OnPublish(fn func(*algorithms.ALSModel)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, fn)
}

// Version returns the current snapshot version, or 0.
func (h *Holder) Version() int64 {
	if m := h.current.Load(); m != nil {
		return m.Version
	}
	return 0
}
