// Copyright (C) 2026 ManiGOo
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to PipelineState
		want     bool
	}{
		{StateStart, StateExtract, true},
		{StateExtract, StateSummarize, true},
		{StateExtract, StateComply, true},
		{StateSummarize, StateComply, true},
		{StateComply, StateRoute, true},
		{StateRoute, StateDone, true},

		// No skipping, no loops, no resurrection from DONE.
		{StateStart, StateComply, false},
		{StateStart, StateDone, false},
		{StateExtract, StateRoute, false},
		{StateSummarize, StateExtract, false},
		{StateRoute, StateExtract, false},
		{StateDone, StateStart, false},
		{StateDone, StateExtract, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestNext_SummarySkip(t *testing.T) {
	// The only conditional edge: EXTRACT skips SUMMARIZE when a summary
	// already exists.
	next, err := Next(StateExtract, Draft{})
	require.NoError(t, err)
	assert.Equal(t, StateSummarize, next)

	next, err = Next(StateExtract, Draft{Summary: "already summarized"})
	require.NoError(t, err)
	assert.Equal(t, StateComply, next)
}

func TestNext_FullPath(t *testing.T) {
	state := StateStart
	var visited []PipelineState
	for !state.IsTerminal() {
		next, err := Next(state, Draft{})
		require.NoError(t, err)
		require.True(t, CanTransition(state, next), "%s -> %s", state, next)
		visited = append(visited, next)
		state = next
	}
	assert.Equal(t, []PipelineState{
		StateExtract, StateSummarize, StateComply, StateRoute, StateDone,
	}, visited)
}

func TestNext_TerminalState(t *testing.T) {
	_, err := Next(StateDone, Draft{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestIsTerminal(t *testing.T) {
	for _, s := range AllStates() {
		assert.Equal(t, s == StateDone, s.IsTerminal(), "state %s", s)
	}
}

func TestTransitionReason(t *testing.T) {
	assert.Equal(t, "Draft has no summary yet", TransitionReason(StateExtract, StateSummarize))
	assert.Equal(t, "Unknown transition", TransitionReason(StateDone, StateStart))
}
