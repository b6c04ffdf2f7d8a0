// Copyright (C) 2026 ManiGOo
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ManiGOo/hcp-crm-task/services/crm/datatypes"
	"github.com/ManiGOo/hcp-crm-task/services/crm/store"
)

// clarifyReply is the fallback when no HCP and no action could be
// identified.
const clarifyReply = "I couldn't identify which HCP this interaction was with. " +
	"Could you share the HCP's name and what you discussed?"

// RouteResult is the router's output for one turn.
type RouteResult struct {
	// Reply is the user-facing text, compliance-prefixed when warranted.
	Reply string

	// ExtractedData echoes the structured payload for the client to render
	// or retry: the created/edited record, search results, or the draft
	// when nothing was persisted.
	ExtractedData map[string]any

	// Action is the kind of action actually taken.
	Action ActionKind

	// PersistedID is the id of the record created or edited, zero
	// otherwise.
	PersistedID int64
}

// Router is the final decision stage: it dispatches the requested action
// over the closed action set and composes the reply.
//
// Error discipline: create/edit persistence problems are recovered into the
// reply with the extracted data still returned, so a client UI can retry.
// Only read-path gateway failures (search, most-recent) abort the run.
type Router struct {
	gateway Gateway
}

// NewRouter creates a router over the given persistence gateway.
func NewRouter(gw Gateway) *Router {
	return &Router{gateway: gw}
}

// Route decides and performs the single action for this turn.
func (r *Router) Route(ctx context.Context, conv *ConversationState, ex *ExtractionResult) (*RouteResult, error) {
	requested := ex.Requested

	// A draft with a known HCP and no explicit edit/search intent is a
	// create even when the model invoked no tool.
	if requested.Kind == ActionNone && conv.Draft.HCPName != "" {
		requested = &RequestedAction{Kind: ActionCreate}
	}

	var res *RouteResult
	var err error
	switch requested.Kind {
	case ActionCreate:
		res = r.routeCreate(ctx, conv)
	case ActionEdit:
		res, err = r.routeEdit(ctx, conv, requested, ex.ValidationErr)
	case ActionSearch:
		res, err = r.routeSearch(ctx, conv, requested.Query)
	case ActionSetUserName:
		res = r.routeSetUserName(requested.UserName)
	case ActionNone:
		res = r.routeNone(conv, ex.AssistantText)
	default:
		// parseInvocation guards the closed set; reaching here is a bug.
		return nil, fmt.Errorf("%w: %q", ErrUnknownToolKind, requested.Kind)
	}
	if err != nil {
		return nil, err
	}

	// A compliance warning is always prepended, never dropped, whatever
	// the main reply turned out to be.
	if v := conv.Draft.Compliance; v != nil && v.Warning {
		res.Reply = v.Reason + "\n\n" + res.Reply
	}
	return res, nil
}

func (r *Router) routeCreate(ctx context.Context, conv *ConversationState) *RouteResult {
	draft := conv.Draft
	if draft.HCPName == "" {
		// Extraction ambiguity: proceed without persisting and ask.
		return &RouteResult{
			Reply:         clarifyReply,
			ExtractedData: draft.AsMap(),
			Action:        ActionNone,
		}
	}

	payload, verr := buildCreatePayload(draft)
	if verr != nil {
		return &RouteResult{
			Reply:         fmt.Sprintf("I extracted the details but couldn't validate them: %v. Nothing was saved.", verr),
			ExtractedData: draft.AsMap(),
			Action:        ActionNone,
		}
	}

	rec, err := r.gateway.CreateRecord(ctx, payload)
	if err != nil {
		slog.Error("Failed to persist the interaction", "hcp_name", payload.HCPName, "error", err)
		return &RouteResult{
			Reply:         fmt.Sprintf("Interaction extracted but failed to save: %v", err),
			ExtractedData: draft.AsMap(),
			Action:        ActionNone,
		}
	}

	reply := fmt.Sprintf("Interaction for %s saved successfully. Suggested next step: %s",
		rec.HCPName, SuggestFollowUp(string(rec.Outcomes)))
	return &RouteResult{
		Reply:         reply,
		ExtractedData: recordAsMap(rec),
		Action:        ActionCreate,
		PersistedID:   rec.ID,
	}
}

func (r *Router) routeEdit(ctx context.Context, conv *ConversationState, requested *RequestedAction, verr *ValidationError) (*RouteResult, error) {
	data := map[string]any{}
	if requested.Fields != nil {
		data = requested.Fields.AsDraft().AsMap()
	}

	if verr != nil {
		return &RouteResult{
			Reply:         fmt.Sprintf("I couldn't work out which interaction to edit: %v.", verr),
			ExtractedData: data,
			Action:        ActionNone,
		}, nil
	}

	id := requested.EditID
	if id == 0 {
		// Anaphoric reference; resolve against the caller's snapshot.
		id = conv.LastInteractionID
	}
	if id == 0 {
		// No carried id either; "the last one" means the newest record in
		// the store.
		recent, err := r.gateway.GetMostRecentRecord(ctx)
		if err != nil {
			return nil, fmt.Errorf("most-recent gateway failure: %w", err)
		}
		if recent == nil {
			return &RouteResult{
				Reply:         "Which interaction should I edit? I don't have a recent record to refer back to.",
				ExtractedData: data,
				Action:        ActionNone,
			}, nil
		}
		id = recent.ID
	}

	updates, uerr := buildUpdatePayload(requested.Fields)
	if uerr != nil {
		return &RouteResult{
			Reply:         fmt.Sprintf("I couldn't validate the requested changes: %v. Nothing was changed.", uerr),
			ExtractedData: data,
			Action:        ActionNone,
		}, nil
	}
	if updates.IsEmpty() {
		return &RouteResult{
			Reply:         fmt.Sprintf("You asked to edit interaction #%d but I couldn't find any fields to change.", id),
			ExtractedData: data,
			Action:        ActionNone,
		}, nil
	}

	rec, err := r.gateway.UpdateRecord(ctx, id, updates)
	if errors.Is(err, store.ErrNotFound) {
		return &RouteResult{
			Reply:         fmt.Sprintf("No interaction found with id %d.", id),
			ExtractedData: data,
			Action:        ActionNone,
		}, nil
	}
	if err != nil {
		slog.Error("Failed to update the interaction", "id", id, "error", err)
		return &RouteResult{
			Reply:         fmt.Sprintf("Changes extracted but failed to save: %v", err),
			ExtractedData: data,
			Action:        ActionNone,
		}, nil
	}

	changed := changedFieldNames(updates)
	return &RouteResult{
		Reply:         fmt.Sprintf("Interaction #%d updated successfully! Changed: %s", rec.ID, strings.Join(changed, ", ")),
		ExtractedData: recordAsMap(rec),
		Action:        ActionEdit,
		PersistedID:   rec.ID,
	}, nil
}

func (r *Router) routeSearch(ctx context.Context, conv *ConversationState, query string) (*RouteResult, error) {
	if query == "" {
		query = conv.RawInput
	}
	records, err := r.gateway.FindRecordsByName(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search gateway failure: %w", err)
	}

	if len(records) == 0 {
		return &RouteResult{
			Reply:         fmt.Sprintf("No interactions found matching %q.", query),
			ExtractedData: map[string]any{"query": query, "results": []any{}},
			Action:        ActionSearch,
		}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d interaction(s) matching %q:", len(records), query)
	results := make([]any, 0, len(records))
	for _, rec := range records {
		fmt.Fprintf(&b, "\n#%d %s (%s, %s): %s",
			rec.ID, rec.HCPName, rec.InteractionType, rec.Date, rec.Summary)
		results = append(results, recordAsMap(&rec))
	}
	return &RouteResult{
		Reply:         b.String(),
		ExtractedData: map[string]any{"query": query, "results": results},
		Action:        ActionSearch,
	}, nil
}

func (r *Router) routeSetUserName(name string) *RouteResult {
	return &RouteResult{
		Reply:         fmt.Sprintf("Nice to meet you, %s! Tell me about an HCP interaction and I'll log it for you.", name),
		ExtractedData: map[string]any{"user_name": name},
		Action:        ActionSetUserName,
	}
}

func (r *Router) routeNone(conv *ConversationState, assistantText string) *RouteResult {
	reply := strings.TrimSpace(assistantText)
	if reply == "" {
		reply = clarifyReply
	}
	return &RouteResult{
		Reply:         reply,
		ExtractedData: conv.Draft.AsMap(),
		Action:        ActionNone,
	}
}

// SuggestFollowUp proposes a next step based on the interaction outcome.
func SuggestFollowUp(outcome string) string {
	switch {
	case strings.Contains(strings.ToLower(outcome), "positive"):
		return "Schedule follow-up in 2 weeks + send product samples."
	case strings.Contains(strings.ToLower(outcome), "negative"):
		return "Escalate to medical liaison and monitor closely."
	default:
		return "No immediate action needed."
	}
}

// buildCreatePayload finalizes a draft into a validated create payload,
// normalizing date and enums at the boundary. Parse-or-reject: loose values
// become a ValidationError, never an unvalidated pass-through.
func buildCreatePayload(d Draft) (datatypes.InteractionCreate, *ValidationError) {
	var payload datatypes.InteractionCreate

	date, err := datatypes.ParseDate(d.Date)
	if err != nil {
		return payload, &ValidationError{Field: "date", Value: d.Date, Reason: "expected YYYY-MM-DD"}
	}
	itype, err := datatypes.ParseInteractionType(d.InteractionType)
	if err != nil {
		return payload, &ValidationError{Field: "interaction_type", Value: d.InteractionType, Reason: "expected Meeting, Call, Email, or Virtual"}
	}
	outcome, err := datatypes.ParseOutcome(d.Outcomes)
	if err != nil {
		return payload, &ValidationError{Field: "outcomes", Value: d.Outcomes, Reason: "expected Positive, Neutral, or Negative"}
	}

	payload = datatypes.InteractionCreate{
		HCPName:              d.HCPName,
		Attendees:            d.Attendees,
		Date:                 date,
		Time:                 d.Time,
		InteractionType:      itype,
		Topics:               d.Topics,
		MaterialsDistributed: d.MaterialsDistributed,
		Outcomes:             outcome,
		FollowUp:             d.FollowUp,
		Summary:              d.Summary,
	}
	if err := payload.Validate(); err != nil {
		return payload, &ValidationError{Field: "record", Value: d.HCPName, Reason: err.Error()}
	}
	return payload, nil
}

// buildUpdatePayload turns the mentioned fields into a partial update.
// Unmentioned fields stay nil so they are never sent as overwrites.
func buildUpdatePayload(fields *ExtractedFields) (*datatypes.InteractionUpdate, *ValidationError) {
	updates := &datatypes.InteractionUpdate{}
	if fields == nil {
		return updates, nil
	}

	setStr := func(dst **string, src *string) {
		if src != nil && !notSpecified(*src) {
			v := strings.TrimSpace(*src)
			*dst = &v
		}
	}
	setStr(&updates.HCPName, fields.HCPName)
	setStr(&updates.Attendees, fields.Attendees)
	setStr(&updates.Time, fields.Time)
	setStr(&updates.Topics, fields.Topics)
	setStr(&updates.MaterialsDistributed, fields.MaterialsDistributed)
	setStr(&updates.FollowUp, fields.FollowUp)
	setStr(&updates.Summary, fields.Summary)

	if fields.Date != nil && !notSpecified(*fields.Date) {
		date, err := datatypes.ParseDate(*fields.Date)
		if err != nil {
			return nil, &ValidationError{Field: "date", Value: *fields.Date, Reason: "expected YYYY-MM-DD"}
		}
		updates.Date = &date
	}
	if fields.InteractionType != nil && !notSpecified(*fields.InteractionType) {
		itype, err := datatypes.ParseInteractionType(*fields.InteractionType)
		if err != nil {
			return nil, &ValidationError{Field: "interaction_type", Value: *fields.InteractionType, Reason: "expected Meeting, Call, Email, or Virtual"}
		}
		updates.InteractionType = &itype
	}
	if fields.Outcomes != nil && !notSpecified(*fields.Outcomes) {
		outcome, err := datatypes.ParseOutcome(*fields.Outcomes)
		if err != nil {
			return nil, &ValidationError{Field: "outcomes", Value: *fields.Outcomes, Reason: "expected Positive, Neutral, or Negative"}
		}
		updates.Outcomes = &outcome
	}
	return updates, nil
}

// changedFieldNames lists the JSON names of the fields an update sets.
func changedFieldNames(u *datatypes.InteractionUpdate) []string {
	var rec datatypes.Interaction
	return u.Apply(&rec)
}

// recordAsMap renders a persisted record as the extracted_data mapping.
func recordAsMap(rec *datatypes.Interaction) map[string]any {
	m := map[string]any{
		"id":               rec.ID,
		"hcp_name":         rec.HCPName,
		"date":             rec.Date,
		"interaction_type": string(rec.InteractionType),
		"outcomes":         string(rec.Outcomes),
	}
	set := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	set("attendees", rec.Attendees)
	set("time", rec.Time)
	set("topics", rec.Topics)
	set("materials_distributed", rec.MaterialsDistributed)
	set("follow_up", rec.FollowUp)
	set("summary", rec.Summary)
	return m
}
