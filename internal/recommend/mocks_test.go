// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// mockStores implements CatalogStore, ProfileStore and InteractionStore.
type mockStores struct {
	items    []Item
	tags     map[UserID]map[string]struct{}
	consumed map[UserID]map[ItemID]struct{}

	tagsErr     error
	consumedErr error
	eligibleErr error

	// afterConsumed runs once ConsumedItems has taken its snapshot.
	afterConsumed func()

	tagCalls      atomic.Int32
	consumedCalls atomic.Int32
	eligibleCalls atomic.Int32

	mu          sync.Mutex
	lastExclude map[ItemID]struct{}
}

func (m *mockStores) stores() Stores {
	return Stores{Catalog: m, Profiles: m, Interactions: m}
}

func (m *mockStores) PreferenceTags(_ context.Context, user UserID) (map[string]struct{}, error) {
	m.tagCalls.Add(1)
	if m.tagsErr != nil {
		return nil, m.tagsErr
	}
	tags, ok := m.tags[user]
	if !ok {
		return nil, ErrUserNotFound
	}
	return tags, nil
}

func (m *mockStores) ConsumedItems(_ context.Context, user UserID) (map[ItemID]struct{}, error) {
	m.consumedCalls.Add(1)
	if m.consumedErr != nil {
		return nil, m.consumedErr
	}
	out := make(map[ItemID]struct{})
	for id := range m.consumed[user] {
		out[id] = struct{}{}
	}
	if m.afterConsumed != nil {
		m.afterConsumed()
	}
	return out, nil
}

func (m *mockStores) EligibleItems(_ context.Context, exclude map[ItemID]struct{}) ([]Item, error) {
	m.eligibleCalls.Add(1)
	m.mu.Lock()
	m.lastExclude = exclude
	m.mu.Unlock()
	if m.eligibleErr != nil {
		return nil, m.eligibleErr
	}
	var out []Item
	for _, item := range m.items {
		if _, skip := exclude[item.ID]; !skip {
			out = append(out, item)
		}
	}
	return out, nil
}

// mockScorer scores from a fixed table. Items missing from the table are
// unavailable.
type mockScorer struct {
	scores map[ItemID]float64
	delay  map[ItemID]time.Duration
	err    error

	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (m *mockScorer) Score(ctx context.Context, _ UserID, item ItemID) (float64, error) {
	m.calls.Add(1)
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		seen := m.maxSeen.Load()
		if n <= seen || m.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	if d := m.delay[item]; d > 0 {
		time.Sleep(d)
	}
	if m.err != nil {
		return 0, m.err
	}
	score, ok := m.scores[item]
	if !ok {
		return 0, ErrScoringUnavailable
	}
	return score, nil
}

// pinnedScorer implements SnapshotScorer around a mockScorer.
type pinnedScorer struct {
	*mockScorer
	info ModelInfo
	ok   bool
	pins atomic.Int32
}

func (p *pinnedScorer) Pin() (PreferenceScorer, ModelInfo, bool) {
	p.pins.Add(1)
	return p.mockScorer, p.info, p.ok
}

func track(id ItemID, tags ...string) Item {
	return Item{ID: id, Title: "track", Attribution: "artist", Tags: tags, Duration: 3 * time.Minute}
}
