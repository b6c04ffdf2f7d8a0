// Copyright (C) 2026 ManiGOo
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agent

import "fmt"

// The pipeline state machine enforces the following transition graph:
//
//	START → EXTRACT          : User message received
//	EXTRACT → SUMMARIZE      : Draft has no summary yet
//	EXTRACT → COMPLY         : Draft already carries a summary
//	SUMMARIZE → COMPLY       : Summary generated
//	COMPLY → ROUTE           : Verdict attached
//	ROUTE → DONE             : Action taken, reply composed
//
// The only conditional edge is out of EXTRACT, and its condition depends
// solely on whether the draft's summary is populated. There is no branching
// back: DONE is terminal and the pipeline never resumes for the same
// message.

// validTransitions maps (from, to) pairs that are allowed.
var validTransitions = map[PipelineState]map[PipelineState]bool{
	StateStart:     {StateExtract: true},
	StateExtract:   {StateSummarize: true, StateComply: true},
	StateSummarize: {StateComply: true},
	StateComply:    {StateRoute: true},
	StateRoute:     {StateDone: true},
	StateDone:      {},
}

// CanTransition checks if a transition from one state to another is valid.
func CanTransition(from, to PipelineState) bool {
	return validTransitions[from][to]
}

// Next is the pure transition function of the pipeline.
//
// # Description
//
// Given the current state and the current draft, Next returns the single
// state the pipeline moves to. It inspects nothing but its arguments and
// invokes no collaborator, so the whole transition graph is testable in
// isolation.
//
// Inputs:
//
//	from - Current state
//	draft - Current draft; only its Summary field influences transitions
//
// Outputs:
//
//	PipelineState - The next state
//	error - ErrInvalidTransition when called on the terminal state
func Next(from PipelineState, draft Draft) (PipelineState, error) {
	switch from {
	case StateStart:
		return StateExtract, nil
	case StateExtract:
		if draft.Summary == "" {
			return StateSummarize, nil
		}
		return StateComply, nil
	case StateSummarize:
		return StateComply, nil
	case StateComply:
		return StateRoute, nil
	case StateRoute:
		return StateDone, nil
	default:
		return from, fmt.Errorf("%w: no transition out of %s", ErrInvalidTransition, from)
	}
}

// TransitionReason provides a human-readable description of a transition,
// used in run logs.
func TransitionReason(from, to PipelineState) string {
	reasons := map[string]string{
		"START->EXTRACT":     "User message received",
		"EXTRACT->SUMMARIZE": "Draft has no summary yet",
		"EXTRACT->COMPLY":    "Draft already carries a summary",
		"SUMMARIZE->COMPLY":  "Summary generated",
		"COMPLY->ROUTE":      "Verdict attached",
		"ROUTE->DONE":        "Action taken, reply composed",
	}
	if reason, ok := reasons[from.String()+"->"+to.String()]; ok {
		return reason
	}
	return "Unknown transition"
}
