// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package algorithms

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/tomtom215/cadence/internal/recommend"
)

var baseTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// clusteredHistory has two taste groups: users 1-3 play tracks 100-102 and
// users 4-6 play tracks 200-202. User 1 has not heard track 102 yet.
func clusteredHistory() []recommend.Interaction {
	var out []recommend.Interaction
	add := func(user recommend.UserID, item recommend.ItemID, rating float64) {
		out = append(out, recommend.Interaction{UserID: user, ItemID: item, Strength: rating, Timestamp: baseTime})
	}
	add(1, 100, 5)
	add(1, 101, 4)
	add(2, 100, 4)
	add(2, 101, 5)
	add(2, 102, 5)
	add(3, 101, 4)
	add(3, 102, 5)
	add(4, 200, 5)
	add(4, 201, 4)
	add(5, 200, 5)
	add(5, 201, 5)
	add(5, 202, 4)
	add(6, 201, 4)
	add(6, 202, 5)
	return out
}

func testALS() *ALS {
	a := NewALS(ALSConfig{NumFactors: 4, NumIterations: 10, Regularization: 0.05, Alpha: 2, NumWorkers: 3})
	a.now = func() time.Time { return baseTime }
	return a
}

func TestNewALS(t *testing.T) {
	tests := []struct {
		name   string
		cfg    ALSConfig
		verify func(t *testing.T, a *ALS)
	}{
		{
			name: "applies defaults for zero config",
			cfg:  ALSConfig{},
			verify: func(t *testing.T, a *ALS) {
				if a.Config() != DefaultALSConfig() {
					t.Errorf("Config() = %+v, want %+v", a.Config(), DefaultALSConfig())
				}
			},
		},
		{
			name: "uses provided config values",
			cfg:  ALSConfig{NumFactors: 100, NumIterations: 20, Regularization: 0.05, Alpha: 50.0},
			verify: func(t *testing.T, a *ALS) {
				cfg := a.Config()
				if cfg.NumFactors != 100 || cfg.NumIterations != 20 || cfg.Alpha != 50 {
					t.Errorf("Config() = %+v, want provided values kept", cfg)
				}
				if cfg.NumWorkers != 4 {
					t.Errorf("NumWorkers = %d, want default 4", cfg.NumWorkers)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewALS(tt.cfg)
			if a.Name() != "als" {
				t.Errorf("Name() = %q, want %q", a.Name(), "als")
			}
			tt.verify(t, a)
		})
	}
}

func TestALS_Fit(t *testing.T) {
	model, err := testALS().Fit(context.Background(), clusteredHistory(), 3)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	if model.Version != 3 || !model.FittedAt.Equal(baseTime) {
		t.Errorf("identity = (%d, %v), want (3, %v)", model.Version, model.FittedAt, baseTime)
	}
	if model.NumUsers() != 6 || model.NumItems() != 6 {
		t.Errorf("shape = %d users x %d items, want 6 x 6", model.NumUsers(), model.NumItems())
	}
	if model.InteractionCount != 14 {
		t.Errorf("InteractionCount = %d, want 14", model.InteractionCount)
	}
	if err := model.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if info := model.Info(); info.Version != 3 {
		t.Errorf("Info().Version = %d, want 3", info.Version)
	}
}

func TestALSModel_ScoreFollowsTasteGroups(t *testing.T) {
	model, err := testALS().Fit(context.Background(), clusteredHistory(), 1)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	inGroup, err := model.Score(1, 102)
	if err != nil {
		t.Fatalf("Score(1, 102) error = %v", err)
	}
	outGroup, err := model.Score(1, 202)
	if err != nil {
		t.Fatalf("Score(1, 202) error = %v", err)
	}
	if inGroup <= outGroup {
		t.Errorf("Score(1, 102) = %v, want > Score(1, 202) = %v", inGroup, outGroup)
	}
	if math.IsNaN(inGroup) || math.IsInf(inGroup, 0) {
		t.Errorf("Score(1, 102) = %v, want finite", inGroup)
	}
}

func TestALSModel_ScoreUnknown(t *testing.T) {
	model, err := testALS().Fit(context.Background(), clusteredHistory(), 1)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	if _, err := model.Score(99, 100); !errors.Is(err, ErrUnknownUser) {
		t.Errorf("Score(unknown user) error = %v, want ErrUnknownUser", err)
	}
	if _, err := model.Score(1, 999); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("Score(unknown item) error = %v, want ErrUnknownItem", err)
	}
}

func TestALS_FitDeterministic(t *testing.T) {
	history := clusteredHistory()
	reversed := make([]recommend.Interaction, len(history))
	for i := range history {
		reversed[len(history)-1-i] = history[i]
	}

	a, err := testALS().Fit(context.Background(), history, 1)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	b, err := testALS().Fit(context.Background(), reversed, 1)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	for _, user := range a.UserIDs {
		for _, item := range a.ItemIDs {
			sa, _ := a.Score(user, item)
			sb, _ := b.Score(user, item)
			if sa != sb {
				t.Fatalf("Score(%d, %d) differs across runs: %v vs %v", user, item, sa, sb)
			}
		}
	}
}

func TestALS_FitFiltersAndDeduplicates(t *testing.T) {
	history := []recommend.Interaction{
		{UserID: 1, ItemID: 10, Strength: 1},
		{UserID: 1, ItemID: 10, Strength: 4},
		{UserID: 1, ItemID: 11, Strength: 0.01},
		{UserID: 2, ItemID: 12, Strength: math.NaN()},
		{UserID: 0, ItemID: 13, Strength: 3},
	}

	model, err := testALS().Fit(context.Background(), history, 1)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if model.InteractionCount != 1 {
		t.Errorf("InteractionCount = %d, want 1", model.InteractionCount)
	}
	if model.NumUsers() != 1 || model.NumItems() != 1 {
		t.Errorf("shape = %d x %d, want 1 x 1", model.NumUsers(), model.NumItems())
	}
}

func TestALS_FitErrors(t *testing.T) {
	a := testALS()

	if _, err := a.Fit(context.Background(), nil, 1); !errors.Is(err, ErrNoInteractions) {
		t.Errorf("Fit(nil) error = %v, want ErrNoInteractions", err)
	}
	if _, err := a.Fit(context.Background(), clusteredHistory(), 0); err == nil {
		t.Error("Fit(version 0) succeeded, want error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.Fit(ctx, clusteredHistory(), 1); !errors.Is(err, context.Canceled) {
		t.Errorf("Fit(canceled) error = %v, want context.Canceled", err)
	}
}

func TestALSModel_GobRoundTripScoresIdentically(t *testing.T) {
	model, err := testALS().Fit(context.Background(), clusteredHistory(), 2)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(model); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	var decoded ALSModel
	if err := gob.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if err := decoded.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	want, _ := model.Score(2, 100)
	got, err := decoded.Score(2, 100)
	if err != nil || got != want {
		t.Errorf("decoded Score(2, 100) = (%v, %v), want (%v, nil)", got, err, want)
	}
}

func TestALSModel_Validate(t *testing.T) {
	tests := []struct {
		name  string
		model ALSModel
	}{
		{"zero version", ALSModel{Factors: 1}},
		{"size mismatch", ALSModel{Version: 1, Factors: 1, UserIDs: []recommend.UserID{1}}},
		{"unsorted ids", ALSModel{
			Version: 1, Factors: 1,
			UserIDs: []recommend.UserID{2, 1}, UserFactors: [][]float64{{1}, {1}},
		}},
		{"short factor row", ALSModel{
			Version: 1, Factors: 2,
			ItemIDs: []recommend.ItemID{1}, ItemFactors: [][]float64{{1}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.model.Validate(); !errors.Is(err, ErrCorruptModel) {
				t.Errorf("Validate() error = %v, want ErrCorruptModel", err)
			}
		})
	}
}

func TestSolveLinearSystem(t *testing.T) {
	// [4 2; 2 3] x = [2; 1] has solution x = [0.5; 0].
	A := [][]float64{{4, 2}, {2, 3}}
	x := solveLinearSystem(A, []float64{2, 1})
	if math.Abs(x[0]-0.5) > 1e-9 || math.Abs(x[1]) > 1e-9 {
		t.Errorf("solveLinearSystem() = %v, want [0.5 0]", x)
	}
}
