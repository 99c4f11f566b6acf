// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package algorithms

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/tomtom215/cadence/internal/recommend"
)

// ALSConfig contains configuration for the ALS algorithm.
type ALSConfig struct {
	// NumFactors is the dimension of the latent factor vectors.
	// Typical range: 16-128.
	NumFactors int

	// NumIterations is the number of ALS iterations to run.
	// Typical range: 10-50.
	NumIterations int

	// Regularization is the L2 regularization parameter.
	// Higher values prevent overfitting but may underfit.
	// Typical range: 0.01-0.1.
	Regularization float64

	// Alpha scales the confidence transformation for implicit feedback.
	// c = 1 + alpha * r, where r is the interaction strength (rating).
	Alpha float64

	// MinConfidence drops interactions whose strength is below it.
	MinConfidence float64

	// NumWorkers is the number of parallel workers per half-step.
	// If <= 0, defaults to 4.
	NumWorkers int
}

// DefaultALSConfig returns default ALS configuration.
func DefaultALSConfig() ALSConfig {
	return ALSConfig{
		NumFactors:     32,
		NumIterations:  15,
		Regularization: 0.01,
		Alpha:          10.0,
		MinConfidence:  0.1,
		NumWorkers:     4,
	}
}

// ALS fits implicit-feedback matrix factorization models.
//
// The objective function minimizes:
// sum_{u,i} c_ui * (p_ui - x_u' * y_i)^2 + lambda * (||x_u||^2 + ||y_i||^2)
//
// where p_ui = 1 if user u interacted with item i, 0 otherwise,
// and c_ui = 1 + alpha * r_ui is the confidence.
type ALS struct {
	config ALSConfig
	now    func() time.Time
}

// NewALS creates a new ALS fitter with the given configuration. Zero
// values are replaced with defaults.
func NewALS(cfg ALSConfig) *ALS {
	def := DefaultALSConfig()
	if cfg.NumFactors <= 0 {
		cfg.NumFactors = def.NumFactors
	}
	if cfg.NumIterations <= 0 {
		cfg.NumIterations = def.NumIterations
	}
	if cfg.Regularization <= 0 {
		cfg.Regularization = def.Regularization
	}
	if cfg.Alpha <= 0 {
		cfg.Alpha = def.Alpha
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = def.MinConfidence
	}
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = def.NumWorkers
	}

	return &ALS{config: cfg, now: time.Now}
}

// Name returns the algorithm identifier.
func (a *ALS) Name() string {
	return "als"
}

// Config returns the effective configuration.
func (a *ALS) Config() ALSConfig {
	return a.config
}

// weighted is one non-zero cell of the confidence matrix.
type weighted struct {
	idx  int
	conf float64
}

// confidenceMatrix is the sparse confidence matrix in both orientations.
// Rows are sorted by column index so accumulation order is fixed.
type confidenceMatrix struct {
	users    []recommend.UserID
	items    []recommend.ItemID
	userRows [][]weighted
	itemRows [][]weighted
	cells    int
}

// Fit trains a model on interactions and stamps it with version.
//
//nolint:gocritic // rangeValCopy: Interaction is small
func (a *ALS) Fit(ctx context.Context, interactions []recommend.Interaction, version int64) (*ALSModel, error) {
	if ContextCancelled(ctx) {
		return nil, ctx.Err()
	}
	if version <= 0 {
		return nil, fmt.Errorf("model version must be positive, got %d", version)
	}

	m := a.buildMatrix(interactions)
	if m.cells == 0 {
		return nil, ErrNoInteractions
	}

	numFactors := a.config.NumFactors
	X := initFactors(len(m.users), numFactors)
	Y := initFactors(len(m.items), numFactors)
	lambda := a.config.Regularization

	for iter := 0; iter < a.config.NumIterations; iter++ {
		if ContextCancelled(ctx) {
			return nil, ctx.Err()
		}

		// Fix Y, solve for X.
		a.solveSide(X, Y, m.userRows, numFactors, lambda)

		if ContextCancelled(ctx) {
			return nil, ctx.Err()
		}

		// Fix X, solve for Y.
		a.solveSide(Y, X, m.itemRows, numFactors, lambda)
	}

	return &ALSModel{
		Version:          version,
		FittedAt:         a.now().UTC(),
		Factors:          numFactors,
		UserIDs:          m.users,
		ItemIDs:          m.items,
		UserFactors:      X,
		ItemFactors:      Y,
		InteractionCount: m.cells,
	}, nil
}

// buildMatrix indexes users and items in ascending id order and keeps the
// highest confidence for repeated (user, item) pairs.
//
//nolint:gocritic // rangeValCopy: Interaction is small
func (a *ALS) buildMatrix(interactions []recommend.Interaction) *confidenceMatrix {
	usable := func(in recommend.Interaction) bool {
		return in.UserID > 0 && in.ItemID > 0 &&
			!math.IsNaN(in.Strength) && !math.IsInf(in.Strength, 0) &&
			in.Strength >= a.config.MinConfidence
	}

	var users []recommend.UserID
	var items []recommend.ItemID
	for _, in := range interactions {
		if usable(in) {
			users = append(users, in.UserID)
			items = append(items, in.ItemID)
		}
	}
	slices.Sort(users)
	users = slices.Compact(users)
	slices.Sort(items)
	items = slices.Compact(items)

	cells := make([]map[int]float64, len(users))
	for _, in := range interactions {
		if !usable(in) {
			continue
		}
		ui, _ := slices.BinarySearch(users, in.UserID)
		ii, _ := slices.BinarySearch(items, in.ItemID)
		if cells[ui] == nil {
			cells[ui] = make(map[int]float64)
		}
		conf := 1.0 + a.config.Alpha*in.Strength
		if conf > cells[ui][ii] {
			cells[ui][ii] = conf
		}
	}

	m := &confidenceMatrix{
		users:    users,
		items:    items,
		userRows: make([][]weighted, len(users)),
		itemRows: make([][]weighted, len(items)),
	}
	for ui, row := range cells {
		for ii, conf := range row {
			m.userRows[ui] = append(m.userRows[ui], weighted{idx: ii, conf: conf})
			m.itemRows[ii] = append(m.itemRows[ii], weighted{idx: ui, conf: conf})
			m.cells++
		}
	}
	byIdx := func(x, y weighted) int { return x.idx - y.idx }
	for i := range m.userRows {
		slices.SortFunc(m.userRows[i], byIdx)
	}
	for i := range m.itemRows {
		slices.SortFunc(m.itemRows[i], byIdx)
	}
	return m
}

// initFactors fills a rows x numFactors matrix with a fixed small pattern.
func initFactors(rows, numFactors int) [][]float64 {
	out := make([][]float64, rows)
	for r := 0; r < rows; r++ {
		out[r] = make([]float64, numFactors)
		for f := 0; f < numFactors; f++ {
			out[r][f] = 0.1 * (float64((r*numFactors+f+1)%997)/997.0 - 0.5)
		}
	}
	return out
}

// solveSide recomputes every row of target with fixed held constant.
// Workers own disjoint row ranges.
func (a *ALS) solveSide(target, fixed [][]float64, rows [][]weighted, numFactors int, lambda float64) {
	gram := gramMatrix(fixed, numFactors)

	n := len(target)
	workers := a.config.NumWorkers
	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(rStart, rEnd int) {
			defer wg.Done()
			for r := rStart; r < rEnd; r++ {
				target[r] = solveRow(fixed, rows[r], gram, numFactors, lambda)
			}
		}(start, end)
	}
	wg.Wait()
}

// gramMatrix returns M'M for a rows x numFactors matrix M.
func gramMatrix(m [][]float64, numFactors int) [][]float64 {
	g := make([][]float64, numFactors)
	for f := range g {
		g[f] = make([]float64, numFactors)
	}
	for r := range m {
		for f1 := 0; f1 < numFactors; f1++ {
			for f2 := f1; f2 < numFactors; f2++ {
				g[f1][f2] += m[r][f1] * m[r][f2]
			}
		}
	}
	for f1 := 0; f1 < numFactors; f1++ {
		for f2 := 0; f2 < f1; f2++ {
			g[f1][f2] = g[f2][f1]
		}
	}
	return g
}

// solveRow solves one least-squares row:
//
//	A = F'F + F' (C - I) F + lambda * I
//	b = F' C p
//
// where F is the fixed factor matrix and C the row's confidences.
//
//nolint:gocritic // A follows standard linear algebra notation
func solveRow(fixed [][]float64, row []weighted, gram [][]float64, numFactors int, lambda float64) []float64 {
	A := make([][]float64, numFactors)
	for f := range A {
		A[f] = make([]float64, numFactors)
		copy(A[f], gram[f])
		A[f][f] += lambda
	}

	b := make([]float64, numFactors)
	for _, cell := range row {
		y := fixed[cell.idx]
		cMinus1 := cell.conf - 1.0

		for f1 := 0; f1 < numFactors; f1++ {
			for f2 := f1; f2 < numFactors; f2++ {
				delta := cMinus1 * y[f1] * y[f2]
				A[f1][f2] += delta
				if f1 != f2 {
					A[f2][f1] += delta
				}
			}
			b[f1] += cell.conf * y[f1]
		}
	}

	return solveLinearSystem(A, b)
}

// solveLinearSystem solves A*x = b using Cholesky decomposition.
//
//nolint:gocritic // A, L follow standard linear algebra notation
func solveLinearSystem(A [][]float64, b []float64) []float64 {
	n := len(b)

	// A = L * L'
	L := make([][]float64, n)
	for i := range L {
		L[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := A[i][j]
			for k := 0; k < j; k++ {
				sum -= L[i][k] * L[j][k]
			}

			switch {
			case i == j:
				if sum <= 0 {
					sum = 1e-10
				}
				L[i][j] = math.Sqrt(sum)
			case L[j][j] != 0:
				L[i][j] = sum / L[j][j]
			}
		}
	}

	// Forward substitution: L * z = b.
	z := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for j := 0; j < i; j++ {
			sum -= L[i][j] * z[j]
		}
		if L[i][i] != 0 {
			z[i] = sum / L[i][i]
		}
	}

	// Back substitution: L' * x = z.
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := z[i]
		for j := i + 1; j < n; j++ {
			sum -= L[j][i] * x[j]
		}
		if L[i][i] != 0 {
			x[i] = sum / L[i][i]
		}
	}

	return x
}

// ALSModel is an immutable fitted ALS model.
type ALSModel struct {
	Version  int64
	FittedAt time.Time
	Factors  int

	// UserIDs and ItemIDs are sorted ascending; position i owns row i of
	// the matching factor matrix.
	UserIDs []recommend.UserID
	ItemIDs []recommend.ItemID

	UserFactors [][]float64
	ItemFactors [][]float64

	// InteractionCount is the number of distinct (user, item) cells fitted.
	InteractionCount int
}

// Score returns the predicted preference of user for item.
func (m *ALSModel) Score(user recommend.UserID, item recommend.ItemID) (float64, error) {
	ui, ok := slices.BinarySearch(m.UserIDs, user)
	if !ok {
		return 0, ErrUnknownUser
	}
	ii, ok := slices.BinarySearch(m.ItemIDs, item)
	if !ok {
		return 0, ErrUnknownItem
	}

	x := m.UserFactors[ui]
	y := m.ItemFactors[ii]
	var score float64
	for f := range x {
		score += x[f] * y[f]
	}
	return score, nil
}

// Info returns the model identity.
func (m *ALSModel) Info() recommend.ModelInfo {
	return recommend.ModelInfo{Version: m.Version, FittedAt: m.FittedAt}
}

// NumUsers returns the number of users in the model.
func (m *ALSModel) NumUsers() int { return len(m.UserIDs) }

// NumItems returns the number of items in the model.
func (m *ALSModel) NumItems() int { return len(m.ItemIDs) }

// Validate checks the shape of a decoded model.
func (m *ALSModel) Validate() error {
	if m.Version <= 0 {
		return fmt.Errorf("%w: version %d", ErrCorruptModel, m.Version)
	}
	if len(m.UserIDs) != len(m.UserFactors) || len(m.ItemIDs) != len(m.ItemFactors) {
		return fmt.Errorf("%w: index and factor sizes differ", ErrCorruptModel)
	}
	if !slices.IsSorted(m.UserIDs) || !slices.IsSorted(m.ItemIDs) {
		return fmt.Errorf("%w: ids not sorted", ErrCorruptModel)
	}
	for _, rows := range [][][]float64{m.UserFactors, m.ItemFactors} {
		for _, row := range rows {
			if len(row) != m.Factors {
				return fmt.Errorf("%w: factor row has %d entries, want %d", ErrCorruptModel, len(row), m.Factors)
			}
		}
	}
	return nil
}
