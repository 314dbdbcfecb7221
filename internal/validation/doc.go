// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared process-wide so struct metadata is
// parsed once. Field names in errors come from json tags, which makes
// messages match what the client sent:
//
//	type LoginRequest struct {
//	    Username string `json:"username" validate:"required,max=128"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    // apiErr.Message == "username is required"
//	}
//
// Errors convert to the VALIDATION_ERROR shape used by the API envelope.
// A single failure carries field, tag and value details; several failures
// are listed under "fields".
package validation
