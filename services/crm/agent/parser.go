// Copyright (C) 2026 ManiGOo
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agent

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ManiGOo/hcp-crm-task/services/llm"
)

// Tool names advertised to the understanding service. The router switches
// over this closed set; anything else is a collaborator failure.
const (
	toolLogInteraction  = "log_interaction"
	toolEditInteraction = "edit_interaction"
	toolSearchHCP       = "search_hcp"
	toolSetUserName     = "set_user_name"
)

// ValidationError describes a structured-field value that failed the
// persisted-record constraints. It is recovered locally into reply text and
// never aborts the run.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// ExtractedFields is the partial field set decoded from a tool invocation.
// Nil pointers mean the model did not mention the field; they are distinct
// from empty strings, which mean the model explicitly cleared it.
type ExtractedFields struct {
	HCPName              *string `json:"hcp_name"`
	Attendees            *string `json:"attendees"`
	Date                 *string `json:"date"`
	Time                 *string `json:"time"`
	InteractionType      *string `json:"interaction_type"`
	Topics               *string `json:"topics"`
	MaterialsDistributed *string `json:"materials_distributed"`
	Outcomes             *string `json:"outcomes"`
	FollowUp             *string `json:"follow_up"`
	Summary              *string `json:"summary"`
}

// notSpecified reports sentinel values the model emits for fields it could
// not extract. Treated as absent so they never erase known values.
func notSpecified(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "not specified", "none", "null", "n/a":
		return true
	}
	return false
}

// AsDraft converts the extracted fields into a partial draft, dropping
// sentinel values.
func (f *ExtractedFields) AsDraft() Draft {
	var d Draft
	pick := func(dst *string, src *string) {
		if src != nil && !notSpecified(*src) {
			*dst = strings.TrimSpace(*src)
		}
	}
	pick(&d.HCPName, f.HCPName)
	pick(&d.Attendees, f.Attendees)
	pick(&d.Date, f.Date)
	pick(&d.Time, f.Time)
	pick(&d.InteractionType, f.InteractionType)
	pick(&d.Topics, f.Topics)
	pick(&d.MaterialsDistributed, f.MaterialsDistributed)
	pick(&d.Outcomes, f.Outcomes)
	pick(&d.FollowUp, f.FollowUp)
	pick(&d.Summary, f.Summary)
	return d
}

// editInvocationArgs is the raw wire shape of an edit_interaction call.
// The id is decoded as raw JSON because models deliver it as a number, a
// quoted number, or occasionally junk; coercion is explicit parse-or-reject.
type editInvocationArgs struct {
	InteractionID json.RawMessage `json:"interaction_id"`
	ExtractedFields
}

type searchInvocationArgs struct {
	Query string `json:"query"`
}

type nameInvocationArgs struct {
	Name string `json:"name"`
}

// ParseRecordID coerces a loosely-typed id value into an int64.
//
// # Description
//
// Accepts a JSON number or a string containing one. Absent/null means "no
// explicit id" and yields 0 without error (the router then falls back to
// the last persisted id). Anything else is a ValidationError, never a
// silent fallback.
func ParseRecordID(raw json.RawMessage) (int64, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, nil
	}
	s = strings.Trim(s, `"`)
	if notSpecified(s) {
		return 0, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, &ValidationError{Field: "interaction_id", Value: s, Reason: "expected a positive integer id"}
	}
	return id, nil
}

// parseInvocation decodes one tool invocation into a RequestedAction.
//
// Outputs:
//
//	*RequestedAction - The decoded action. For edits with an unusable id
//	  the action is still returned (EditID 0) alongside the error, so the
//	  extracted fields survive for the client to recover with.
//	error - ErrUnknownToolKind for names outside the closed set,
//	  ErrMalformedToolCall for undecodable arguments, or a *ValidationError
//	  for a rejected id.
func parseInvocation(inv llm.ToolInvocation) (*RequestedAction, error) {
	switch inv.Name {
	case toolLogInteraction:
		var fields ExtractedFields
		if err := decodeArgs(inv.Arguments, &fields); err != nil {
			return nil, err
		}
		return &RequestedAction{Kind: ActionCreate, Fields: &fields}, nil

	case toolEditInteraction:
		var args editInvocationArgs
		if err := decodeArgs(inv.Arguments, &args); err != nil {
			return nil, err
		}
		action := &RequestedAction{Kind: ActionEdit, Fields: &args.ExtractedFields}
		id, err := ParseRecordID(args.InteractionID)
		if err != nil {
			return action, err
		}
		action.EditID = id
		return action, nil

	case toolSearchHCP:
		var args searchInvocationArgs
		if err := decodeArgs(inv.Arguments, &args); err != nil {
			return nil, err
		}
		return &RequestedAction{Kind: ActionSearch, Query: strings.TrimSpace(args.Query)}, nil

	case toolSetUserName:
		var args nameInvocationArgs
		if err := decodeArgs(inv.Arguments, &args); err != nil {
			return nil, err
		}
		return &RequestedAction{Kind: ActionSetUserName, UserName: strings.TrimSpace(args.Name)}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownToolKind, inv.Name)
	}
}

func decodeArgs(raw json.RawMessage, into any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedToolCall, err)
	}
	return nil
}
