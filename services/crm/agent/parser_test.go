// Copyright (C) 2026 ManiGOo
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManiGOo/hcp-crm-task/services/llm"
)

// =============================================================================
// ParseRecordID Tests
// =============================================================================

func TestParseRecordID(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int64
		wantErr bool
	}{
		{"json number", `42`, 42, false},
		{"quoted number", `"42"`, 42, false},
		{"absent", ``, 0, false},
		{"null", `null`, 0, false},
		{"not specified string", `"not specified"`, 0, false},
		{"junk string", `"the last one"`, 0, true},
		{"zero", `0`, 0, true},
		{"negative", `-3`, 0, true},
		{"float", `4.5`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRecordID(json.RawMessage(tt.raw))
			if tt.wantErr {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "interaction_id", ve.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// =============================================================================
// notSpecified / AsDraft Tests
// =============================================================================

func TestNotSpecified(t *testing.T) {
	for _, s := range []string{"", "  ", "not specified", "Not Specified", "none", "NULL", "n/a"} {
		assert.True(t, notSpecified(s), "input %q", s)
	}
	for _, s := range []string{"Dr. Chen", "0", "today"} {
		assert.False(t, notSpecified(s), "input %q", s)
	}
}

func TestExtractedFields_AsDraft(t *testing.T) {
	name := "  Dr. Chen  "
	sentinel := "not specified"
	topics := "efficacy"
	f := &ExtractedFields{HCPName: &name, Date: &sentinel, Topics: &topics}

	d := f.AsDraft()
	assert.Equal(t, "Dr. Chen", d.HCPName)
	assert.Equal(t, "efficacy", d.Topics)
	// Sentinels and nil pointers both stay absent.
	assert.Empty(t, d.Date)
	assert.Empty(t, d.Outcomes)
}

// =============================================================================
// parseInvocation Tests
// =============================================================================

func invocation(name, args string) llm.ToolInvocation {
	return llm.ToolInvocation{ID: "call-1", Name: name, Arguments: json.RawMessage(args)}
}

func TestParseInvocation_LogInteraction(t *testing.T) {
	action, err := parseInvocation(invocation("log_interaction",
		`{"hcp_name":"Dr. Chen","topics":"efficacy","outcomes":"Positive"}`))
	require.NoError(t, err)

	assert.Equal(t, ActionCreate, action.Kind)
	require.NotNil(t, action.Fields)
	require.NotNil(t, action.Fields.HCPName)
	assert.Equal(t, "Dr. Chen", *action.Fields.HCPName)
}

func TestParseInvocation_EditWithNumericID(t *testing.T) {
	action, err := parseInvocation(invocation("edit_interaction",
		`{"interaction_id":7,"outcomes":"Negative"}`))
	require.NoError(t, err)

	assert.Equal(t, ActionEdit, action.Kind)
	assert.Equal(t, int64(7), action.EditID)
	require.NotNil(t, action.Fields.Outcomes)
	assert.Equal(t, "Negative", *action.Fields.Outcomes)
}

func TestParseInvocation_EditWithQuotedID(t *testing.T) {
	action, err := parseInvocation(invocation("edit_interaction",
		`{"interaction_id":"12","topics":"dosage"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(12), action.EditID)
}

func TestParseInvocation_EditWithoutID(t *testing.T) {
	action, err := parseInvocation(invocation("edit_interaction",
		`{"topics":"dosage"}`))
	require.NoError(t, err)
	assert.Equal(t, ActionEdit, action.Kind)
	assert.Zero(t, action.EditID)
}

func TestParseInvocation_EditWithJunkID(t *testing.T) {
	// The action still comes back so the extracted fields survive.
	action, err := parseInvocation(invocation("edit_interaction",
		`{"interaction_id":"that one","topics":"dosage"}`))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.NotNil(t, action)
	assert.Equal(t, ActionEdit, action.Kind)
	assert.Zero(t, action.EditID)
	require.NotNil(t, action.Fields.Topics)
	assert.Equal(t, "dosage", *action.Fields.Topics)
}

func TestParseInvocation_Search(t *testing.T) {
	action, err := parseInvocation(invocation("search_hcp", `{"query":" Chen "}`))
	require.NoError(t, err)
	assert.Equal(t, ActionSearch, action.Kind)
	assert.Equal(t, "Chen", action.Query)
}

func TestParseInvocation_SetUserName(t *testing.T) {
	action, err := parseInvocation(invocation("set_user_name", `{"name":"Alex"}`))
	require.NoError(t, err)
	assert.Equal(t, ActionSetUserName, action.Kind)
	assert.Equal(t, "Alex", action.UserName)
}

func TestParseInvocation_UnknownTool(t *testing.T) {
	_, err := parseInvocation(invocation("delete_everything", `{}`))
	assert.ErrorIs(t, err, ErrUnknownToolKind)
}

func TestParseInvocation_MalformedArguments(t *testing.T) {
	_, err := parseInvocation(invocation("log_interaction", `{"hcp_name":`))
	assert.ErrorIs(t, err, ErrMalformedToolCall)
}
