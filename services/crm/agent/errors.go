// Copyright (C) 2026 ManiGOo
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agent

import "errors"

// Sentinel errors for the pipeline.
//
// Only collaborator-level failures abort a run; ambiguity, validation, and
// not-found conditions are recovered into reply text by the router and never
// surface as errors.
var (
	// ErrInvalidTransition indicates a pipeline state transition that the
	// state machine does not allow.
	ErrInvalidTransition = errors.New("invalid pipeline transition")

	// ErrUnderstanding indicates the language-understanding service was
	// unreachable or returned an unusable response.
	ErrUnderstanding = errors.New("understanding service failure")

	// ErrUnknownToolKind indicates the understanding service requested a
	// tool outside the closed action set. Never silently ignored.
	ErrUnknownToolKind = errors.New("unknown tool kind from understanding service")

	// ErrMalformedToolCall indicates a tool invocation whose arguments
	// could not be decoded.
	ErrMalformedToolCall = errors.New("malformed tool invocation")
)
