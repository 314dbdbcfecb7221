// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package recommend

import (
	"errors"
	"fmt"
)

var (
	// ErrModelNotTrained is returned when recommendations are requested
	// before any model has been trained or loaded.
	ErrModelNotTrained = errors.New("model not trained")

	// ErrUserNotFound is returned when the user is not a row of the matrix.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidInput is returned for malformed training input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTrainingInProgress is returned when a training run is requested
	// while another one is still running.
	ErrTrainingInProgress = errors.New("training already in progress")
)

// UserNotFoundError identifies the user that was missing from the model.
type UserNotFoundError struct {
	UserID int
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("user %d not found in model", e.UserID)
}

// Is reports whether target is ErrUserNotFound.
func (e *UserNotFoundError) Is(target error) bool {
	return target == ErrUserNotFound
}

// InvalidInputError describes a rejected input record.
type InvalidInputError struct {
	// Line is the 1-based source line, or 0 when unknown.
	Line   int
	Field  string
	Value  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	msg := "invalid input"
	if e.Line > 0 {
		msg = fmt.Sprintf("%s at line %d", msg, e.Line)
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s: field %s=%q", msg, e.Field, e.Value)
	}
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	return msg
}

// Is reports whether target is ErrInvalidInput.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}
