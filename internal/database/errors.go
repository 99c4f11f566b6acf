// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package database

import (
	"errors"
	"fmt"
	"io"

	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/recommend"
)

// ErrTrackNotFound is returned when an interaction references an unknown track.
var ErrTrackNotFound = errors.New("track not found")

// StoreError reports a failed catalog operation. It matches
// recommend.ErrStoreUnavailable so callers can treat it as retriable.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("catalog %s: %v", e.Op, e.Err)
}

// Unwrap exposes both the store sentinel and the driver error.
func (e *StoreError) Unwrap() []error {
	return []error{recommend.ErrStoreUnavailable, e.Err}
}

func storeError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// closeWithLog closes a resource and logs a failure without returning it.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource on an error path where a second error
// would only mask the first.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
