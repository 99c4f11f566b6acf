// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates a malformed ranking request.
	ErrValidation = errors.New("invalid request")

	// ErrUserNotFound indicates the user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrStoreUnavailable indicates a store collaborator could not be reached.
	// Callers may retry.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrScoringUnavailable indicates the scorer cannot score a candidate.
	// The engine recovers from it locally.
	ErrScoringUnavailable = errors.New("scoring unavailable")
)

// storeFailure wraps err so that it matches ErrStoreUnavailable, unless it is
// ErrUserNotFound or already a store failure.
func storeFailure(op string, err error) error {
	if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrStoreUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
