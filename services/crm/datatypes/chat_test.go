// Copyright (C) 2026 ManiGOo
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatRequest_Validate_Success(t *testing.T) {
	r := &ChatRequest{
		Message:  "Met Dr. Chen today to discuss efficacy data.",
		UserName: "Alex",
		History: []Message{
			{Role: RoleUser, Content: "hi"},
			{Role: RoleAssistant, Content: "hello"},
		},
	}
	assert.NoError(t, r.Validate())
}

func TestChatRequest_Validate_MissingMessage(t *testing.T) {
	r := &ChatRequest{}
	assert.Error(t, r.Validate())
}

func TestChatRequest_Validate_OversizedMessage(t *testing.T) {
	r := &ChatRequest{Message: strings.Repeat("a", MaxMessageContentBytes+1)}
	assert.Error(t, r.Validate())
}

func TestChatRequest_Validate_TooMuchHistory(t *testing.T) {
	history := make([]Message, MaxHistoryMessages+1)
	for i := range history {
		history[i] = Message{Role: RoleUser, Content: "turn"}
	}
	r := &ChatRequest{Message: "hi", History: history}
	assert.Error(t, r.Validate())
}

func TestChatRequest_Validate_BadHistoryRole(t *testing.T) {
	r := &ChatRequest{
		Message: "hi",
		History: []Message{{Role: "narrator", Content: "once upon a time"}},
	}
	assert.Error(t, r.Validate())
}

func TestChatRequest_Validate_NegativeLastInteractionID(t *testing.T) {
	r := &ChatRequest{Message: "hi", LastInteractionID: -3}
	assert.Error(t, r.Validate())
}
