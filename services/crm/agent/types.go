// Copyright (C) 2026 ManiGOo
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package agent implements the conversation-to-record orchestration
// pipeline.
//
// One user message enters the pipeline once and runs to completion in a
// single pass through fixed stages: field extraction, summary generation
// (skipped when a summary is already present), compliance checking, and
// action routing. The pipeline converges to exactly one action per turn and
// never loops.
//
// Thread Safety:
//
//	A Pipeline is safe for concurrent use; each run owns its
//	ConversationState and Draft exclusively.
package agent

import (
	"context"

	"github.com/ManiGOo/hcp-crm-task/services/compliance_engine"
	"github.com/ManiGOo/hcp-crm-task/services/crm/datatypes"
)

// =============================================================================
// Pipeline States
// =============================================================================

// PipelineState is a named state of the pipeline state machine.
type PipelineState string

const (
	// StateStart is the entry state before any stage has run.
	StateStart PipelineState = "START"

	// StateExtract runs the field extractor over the message history.
	StateExtract PipelineState = "EXTRACT"

	// StateSummarize fills in a missing summary. Skipped when the draft
	// already carries one.
	StateSummarize PipelineState = "SUMMARIZE"

	// StateComply attaches a compliance verdict to the draft.
	StateComply PipelineState = "COMPLY"

	// StateRoute decides the single action for this turn and composes the
	// reply. Collaborator calls happen inside this stage.
	StateRoute PipelineState = "ROUTE"

	// StateDone is terminal; the pipeline does not resume for the same
	// message.
	StateDone PipelineState = "DONE"
)

// String returns the string representation of the state.
func (s PipelineState) String() string {
	return string(s)
}

// IsTerminal returns true for the terminal state.
func (s PipelineState) IsTerminal() bool {
	return s == StateDone
}

// AllStates returns all pipeline states in stage order.
func AllStates() []PipelineState {
	return []PipelineState{
		StateStart,
		StateExtract,
		StateSummarize,
		StateComply,
		StateRoute,
		StateDone,
	}
}

// =============================================================================
// Draft
// =============================================================================

// Draft is the in-flight structured representation of one interaction being
// built up during a pipeline run. All fields are best-effort and may be
// empty; HCPName is required before the draft can be persisted.
//
// Stages receive a Draft by value and return a new one, so transitions stay
// auditable and no stage mutates shared state.
type Draft struct {
	HCPName              string                     `json:"hcp_name,omitempty"`
	Attendees            string                     `json:"attendees,omitempty"`
	Date                 string                     `json:"date,omitempty"`
	Time                 string                     `json:"time,omitempty"`
	InteractionType      string                     `json:"interaction_type,omitempty"`
	Topics               string                     `json:"topics,omitempty"`
	MaterialsDistributed string                     `json:"materials_distributed,omitempty"`
	Outcomes             string                     `json:"outcomes,omitempty"`
	FollowUp             string                     `json:"follow_up,omitempty"`
	Summary              string                     `json:"summary,omitempty"`
	Compliance           *compliance_engine.Verdict `json:"compliance_result,omitempty"`
}

// Merge folds newly extracted fields into the draft and returns the result.
//
// Merge policy is last-non-null-wins per field: a non-empty incoming value
// overwrites the prior one, an empty incoming value never erases a known
// value. Merging the same partial twice yields the same draft as merging it
// once.
func (d Draft) Merge(partial Draft) Draft {
	if partial.HCPName != "" {
		d.HCPName = partial.HCPName
	}
	if partial.Attendees != "" {
		d.Attendees = partial.Attendees
	}
	if partial.Date != "" {
		d.Date = partial.Date
	}
	if partial.Time != "" {
		d.Time = partial.Time
	}
	if partial.InteractionType != "" {
		d.InteractionType = partial.InteractionType
	}
	if partial.Topics != "" {
		d.Topics = partial.Topics
	}
	if partial.MaterialsDistributed != "" {
		d.MaterialsDistributed = partial.MaterialsDistributed
	}
	if partial.Outcomes != "" {
		d.Outcomes = partial.Outcomes
	}
	if partial.FollowUp != "" {
		d.FollowUp = partial.FollowUp
	}
	if partial.Summary != "" {
		d.Summary = partial.Summary
	}
	return d
}

// HasStructuredFields reports whether any summary-relevant structured field
// is present.
func (d Draft) HasStructuredFields() bool {
	return d.HCPName != "" || d.InteractionType != "" || d.Topics != "" ||
		d.MaterialsDistributed != "" || d.Outcomes != ""
}

// AsMap renders the draft as the extracted_data mapping echoed to clients.
// Only present fields appear.
func (d Draft) AsMap() map[string]any {
	m := make(map[string]any)
	set := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	set("hcp_name", d.HCPName)
	set("attendees", d.Attendees)
	set("date", d.Date)
	set("time", d.Time)
	set("interaction_type", d.InteractionType)
	set("topics", d.Topics)
	set("materials_distributed", d.MaterialsDistributed)
	set("outcomes", d.Outcomes)
	set("follow_up", d.FollowUp)
	set("summary", d.Summary)
	if d.Compliance != nil {
		m["compliance_result"] = d.Compliance.Reason
	}
	return m
}

// =============================================================================
// Conversation State
// =============================================================================

// ConversationState is the state owned by one pipeline run.
//
// It is created fresh per incoming user message and discarded after the
// reply is produced. Carrying UserName and LastInteractionID across turns is
// the caller's responsibility.
type ConversationState struct {
	// Messages is the ordered conversation history, oldest first, ending
	// with the new user message.
	Messages []datatypes.Message

	// Draft is the interaction draft carried across stages.
	Draft Draft

	// RawInput is the original text of the new user message.
	RawInput string

	// LastInteractionID is the most recently persisted record id, if the
	// caller carried one. Used to resolve references like "edit that one".
	// Point-in-time snapshot; races between concurrent edits are a
	// documented limitation.
	LastInteractionID int64

	// UserName is the representative's name, if remembered by the caller.
	UserName string
}

// NewConversationState builds the state for one run from the caller's
// request.
func NewConversationState(message, userName string, history []datatypes.Message, lastID int64) *ConversationState {
	msgs := make([]datatypes.Message, 0, len(history)+1)
	msgs = append(msgs, history...)
	msgs = append(msgs, datatypes.Message{Role: datatypes.RoleUser, Content: message})
	return &ConversationState{
		Messages:          msgs,
		RawInput:          message,
		LastInteractionID: lastID,
		UserName:          userName,
	}
}

// =============================================================================
// Actions
// =============================================================================

// ActionKind discriminates the closed set of actions the router can take.
type ActionKind string

const (
	ActionCreate      ActionKind = "create_interaction"
	ActionEdit        ActionKind = "edit_interaction"
	ActionSearch      ActionKind = "search_hcp"
	ActionSetUserName ActionKind = "set_user_name"
	ActionNone        ActionKind = "no_action"
)

// RequestedAction is the discriminated "requested action" value decoded from
// the understanding service's tool invocation. Exactly one variant is active
// per pipeline run; unknown tool kinds never reach this type (they fail the
// run as a collaborator error).
type RequestedAction struct {
	Kind ActionKind

	// Fields carries extracted interaction fields for create and edit.
	// For edits, only fields the user actually mentioned are set.
	Fields *ExtractedFields

	// EditID is the explicit record id for edits. Zero means the user
	// referred to the record anaphorically and the id must be resolved
	// from LastInteractionID.
	EditID int64

	// Query is the search string for ActionSearch.
	Query string

	// UserName is the supplied name for ActionSetUserName.
	UserName string
}

// =============================================================================
// Collaborator Interfaces
// =============================================================================

// Gateway is the narrow persistence interface the pipeline depends on.
// Implemented by store.InteractionStore; the gateway owns durability and
// transaction isolation.
type Gateway interface {
	CreateRecord(ctx context.Context, in datatypes.InteractionCreate) (*datatypes.Interaction, error)
	UpdateRecord(ctx context.Context, id int64, updates *datatypes.InteractionUpdate) (*datatypes.Interaction, error)
	FindRecordsByName(ctx context.Context, query string) ([]datatypes.Interaction, error)
	GetMostRecentRecord(ctx context.Context) (*datatypes.Interaction, error)
}
