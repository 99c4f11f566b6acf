// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package algorithms

import (
	"context"
	"errors"

	"github.com/tomtom215/cadence/internal/recommend"
)

var (
	// ErrUnknownUser is returned by Score for a user absent from the fit.
	ErrUnknownUser = errors.New("user not in model")

	// ErrUnknownItem is returned by Score for an item absent from the fit.
	ErrUnknownItem = errors.New("item not in model")

	// ErrNoInteractions is returned by Fit when no interaction passes the
	// confidence threshold.
	ErrNoInteractions = errors.New("no usable interactions")

	// ErrCorruptModel is returned by Validate when a decoded model is
	// internally inconsistent.
	ErrCorruptModel = errors.New("corrupt model")
)

// Fitter produces a scoring model from interaction history.
type Fitter interface {
	Name() string
	Fit(ctx context.Context, interactions []recommend.Interaction, version int64) (*ALSModel, error)
}

// ContextCancelled checks if the context has been canceled.
func ContextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

var _ Fitter = (*ALS)(nil)
