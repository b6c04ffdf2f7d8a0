// Copyright (C) 2026 ManiGOo
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes provides data structures for the CRM service.
//
// This file contains the persisted interaction record, its enum types, and
// the create/update payloads handed to the persistence gateway. For chat
// request/response types, see chat.go.
package datatypes

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the canonical calendar-date format for interaction records.
const DateLayout = "2006-01-02"

// interactionValidate is the validator instance for interaction payloads.
// Initialized in init() with custom validators.
var interactionValidate *validator.Validate

func init() {
	interactionValidate = validator.New()

	// Register custom validator for canonical YYYY-MM-DD dates.
	_ = interactionValidate.RegisterValidation("caldate", validateCalendarDate)
}

// validateCalendarDate checks that a string field is a YYYY-MM-DD date.
// Empty strings pass; combine with "required" to forbid them.
func validateCalendarDate(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// =============================================================================
// Enum Types
// =============================================================================

// InteractionType classifies how the HCP interaction took place.
type InteractionType string

const (
	TypeMeeting InteractionType = "Meeting"
	TypeCall    InteractionType = "Call"
	TypeEmail   InteractionType = "Email"
	TypeVirtual InteractionType = "Virtual"
)

// OutcomeType classifies how the interaction went.
type OutcomeType string

const (
	OutcomePositive OutcomeType = "Positive"
	OutcomeNeutral  OutcomeType = "Neutral"
	OutcomeNegative OutcomeType = "Negative"
)

// titleCase normalizes loosely-cased enum input ("meeting", "MEETING") to
// the canonical title-cased form stored in records.
func titleCase(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// ParseInteractionType normalizes and validates an interaction type string.
//
// Inputs:
//
//	s - Raw value, any casing. Empty defaults to Meeting.
//
// Outputs:
//
//	InteractionType - Canonical title-cased value
//	error - Non-nil if the value is not a known type
func ParseInteractionType(s string) (InteractionType, error) {
	if strings.TrimSpace(s) == "" {
		return TypeMeeting, nil
	}
	switch t := InteractionType(titleCase(s)); t {
	case TypeMeeting, TypeCall, TypeEmail, TypeVirtual:
		return t, nil
	default:
		return "", fmt.Errorf("unknown interaction_type %q", s)
	}
}

// ParseOutcome normalizes and validates an outcome string.
// Empty defaults to Neutral.
func ParseOutcome(s string) (OutcomeType, error) {
	if strings.TrimSpace(s) == "" {
		return OutcomeNeutral, nil
	}
	switch o := OutcomeType(titleCase(s)); o {
	case OutcomePositive, OutcomeNeutral, OutcomeNegative:
		return o, nil
	default:
		return "", fmt.Errorf("unknown outcomes value %q", s)
	}
}

// ParseDate normalizes a calendar date at the pipeline boundary.
//
// # Description
//
// Accepts the canonical YYYY-MM-DD form plus the sentinel values the
// understanding service is known to emit: "", "today", and "not specified"
// all map to today's date. Any other value is rejected rather than silently
// passed through.
//
// Outputs:
//
//	string - Canonical YYYY-MM-DD date
//	error - Non-nil if the value is neither a sentinel nor a valid date
func ParseDate(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today", "not specified":
		return time.Now().Format(DateLayout), nil
	}
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return t.Format(DateLayout), nil
}

// =============================================================================
// Persisted Record
// =============================================================================

// Interaction is one logged HCP interaction as persisted by the gateway.
//
// # Fields
//
//   - ID: System-assigned, monotonically increasing.
//   - HCPName: Required. Full name of the doctor/HCP.
//   - Date: Required. Canonical YYYY-MM-DD.
//   - InteractionType: One of Meeting, Call, Email, Virtual.
//   - Outcomes: One of Positive, Neutral, Negative. Defaults to Neutral.
//   - CreatedAt/UpdatedAt: System-assigned timestamps.
//
// The JSON field names are the contract surface shared with clients; do not
// rename them.
type Interaction struct {
	ID                   int64           `json:"id"`
	HCPName              string          `json:"hcp_name"`
	Attendees            string          `json:"attendees,omitempty"`
	Date                 string          `json:"date"`
	Time                 string          `json:"time,omitempty"`
	InteractionType      InteractionType `json:"interaction_type"`
	Topics               string          `json:"topics,omitempty"`
	MaterialsDistributed string          `json:"materials_distributed,omitempty"`
	Outcomes             OutcomeType     `json:"outcomes"`
	FollowUp             string          `json:"follow_up,omitempty"`
	Summary              string          `json:"summary,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at,omitzero"`
}

// InteractionCreate is a validated payload for creating a new record.
type InteractionCreate struct {
	HCPName              string          `json:"hcp_name" validate:"required"`
	Attendees            string          `json:"attendees,omitempty"`
	Date                 string          `json:"date" validate:"required,caldate"`
	Time                 string          `json:"time,omitempty"`
	InteractionType      InteractionType `json:"interaction_type" validate:"required,oneof=Meeting Call Email Virtual"`
	Topics               string          `json:"topics,omitempty"`
	MaterialsDistributed string          `json:"materials_distributed,omitempty"`
	Outcomes             OutcomeType     `json:"outcomes" validate:"required,oneof=Positive Neutral Negative"`
	FollowUp             string          `json:"follow_up,omitempty"`
	Summary              string          `json:"summary,omitempty"`
}

// Validate validates the create payload against the record constraints.
func (c *InteractionCreate) Validate() error {
	return interactionValidate.Struct(c)
}

// InteractionUpdate is a partial-update payload. Nil fields are not touched
// by the gateway; only fields the user actually mentioned are set.
type InteractionUpdate struct {
	HCPName              *string          `json:"hcp_name,omitempty"`
	Attendees            *string          `json:"attendees,omitempty"`
	Date                 *string          `json:"date,omitempty" validate:"omitempty,caldate"`
	Time                 *string          `json:"time,omitempty"`
	InteractionType      *InteractionType `json:"interaction_type,omitempty" validate:"omitempty,oneof=Meeting Call Email Virtual"`
	Topics               *string          `json:"topics,omitempty"`
	MaterialsDistributed *string          `json:"materials_distributed,omitempty"`
	Outcomes             *OutcomeType     `json:"outcomes,omitempty" validate:"omitempty,oneof=Positive Neutral Negative"`
	FollowUp             *string          `json:"follow_up,omitempty"`
	Summary              *string          `json:"summary,omitempty"`
}

// Validate validates the set fields of the update payload.
func (u *InteractionUpdate) Validate() error {
	return interactionValidate.Struct(u)
}

// IsEmpty reports whether no field of the update is set.
func (u *InteractionUpdate) IsEmpty() bool {
	return u.HCPName == nil && u.Attendees == nil && u.Date == nil &&
		u.Time == nil && u.InteractionType == nil && u.Topics == nil &&
		u.MaterialsDistributed == nil && u.Outcomes == nil &&
		u.FollowUp == nil && u.Summary == nil
}

// Apply copies the set fields of the update onto a record in place and
// returns the names of the changed fields.
func (u *InteractionUpdate) Apply(rec *Interaction) []string {
	var changed []string
	if u.HCPName != nil {
		rec.HCPName = *u.HCPName
		changed = append(changed, "hcp_name")
	}
	if u.Attendees != nil {
		rec.Attendees = *u.Attendees
		changed = append(changed, "attendees")
	}
	if u.Date != nil {
		rec.Date = *u.Date
		changed = append(changed, "date")
	}
	if u.Time != nil {
		rec.Time = *u.Time
		changed = append(changed, "time")
	}
	if u.InteractionType != nil {
		rec.InteractionType = *u.InteractionType
		changed = append(changed, "interaction_type")
	}
	if u.Topics != nil {
		rec.Topics = *u.Topics
		changed = append(changed, "topics")
	}
	if u.MaterialsDistributed != nil {
		rec.MaterialsDistributed = *u.MaterialsDistributed
		changed = append(changed, "materials_distributed")
	}
	if u.Outcomes != nil {
		rec.Outcomes = *u.Outcomes
		changed = append(changed, "outcomes")
	}
	if u.FollowUp != nil {
		rec.FollowUp = *u.FollowUp
		changed = append(changed, "follow_up")
	}
	if u.Summary != nil {
		rec.Summary = *u.Summary
		changed = append(changed, "summary")
	}
	return changed
}
