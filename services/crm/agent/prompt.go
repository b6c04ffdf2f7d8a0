// Copyright (C) 2026 ManiGOo
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agent

import "github.com/ManiGOo/hcp-crm-task/services/llm"

// systemPrompt instructs the understanding service to extract structured
// fields and signal exactly one action via the advertised tools.
const systemPrompt = `You are an intelligent assistant for pharmaceutical field representatives.
Your primary goal is to parse the user's natural language description of an HCP interaction and:

1. Extract structured data for the interaction record:
   - hcp_name: Full name of the doctor/HCP
   - attendees: Comma-separated list of other attendees (e.g., "Dr. Jones, Nurse Anne")
   - date: Date in YYYY-MM-DD format, or "today" if the user said today
   - time: Time in HH:MM format
   - interaction_type: Meeting, Call, Email, or Virtual
   - topics: Main topics discussed (comma-separated)
   - materials_distributed: Materials/samples given (or omit)
   - outcomes: Positive, Neutral, or Negative
   - follow_up: Any follow-up actions planned
   - summary: Short 1-2 sentence summary, only if the user provided one

2. Call exactly one tool per message:
   - 'log_interaction' when the user describes a new interaction to save
   - 'edit_interaction' when the user wants to change a previous record;
     include interaction_id only if the user named one explicitly, and
     include only the fields the user asked to change
   - 'search_hcp' when the user wants to find or look up an HCP
   - 'set_user_name' when the user only tells you their own name

3. If none of these apply, call no tool and reply with a short clarifying
   question instead.

Never invent an hcp_name. Omit any field the user did not mention.
Be precise, professional, and helpful.`

// stringProp is shorthand for a JSON-schema string property.
func stringProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

// interactionFieldProps is the shared schema for interaction fields.
func interactionFieldProps() map[string]any {
	return map[string]any{
		"hcp_name":              stringProp("Full name of the doctor/HCP"),
		"attendees":             stringProp("Comma-separated list of other attendees"),
		"date":                  stringProp("Date in YYYY-MM-DD format, or 'today'"),
		"time":                  stringProp("Time in HH:MM format"),
		"interaction_type":      map[string]any{"type": "string", "enum": []string{"Meeting", "Call", "Email", "Virtual"}},
		"topics":                stringProp("Main topics discussed, comma-separated"),
		"materials_distributed": stringProp("Materials or samples given"),
		"outcomes":              map[string]any{"type": "string", "enum": []string{"Positive", "Neutral", "Negative"}},
		"follow_up":             stringProp("Planned follow-up actions"),
		"summary":               stringProp("Short 1-2 sentence summary, if the user provided one"),
	}
}

// toolDefinitions returns the closed tool set advertised on every
// understanding-service call.
func toolDefinitions() []llm.ToolDefinition {
	return []llm.ToolDefinition{
		{
			Name:        toolLogInteraction,
			Description: "Log a new interaction with a Healthcare Professional into the CRM.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": interactionFieldProps(),
				"required":   []string{"hcp_name"},
			},
		},
		{
			Name:        toolEditInteraction,
			Description: "Edit an existing HCP interaction. Only provide the fields that need updating.",
			Parameters: map[string]any{
				"type": "object",
				"properties": func() map[string]any {
					props := interactionFieldProps()
					props["interaction_id"] = map[string]any{
						"type":        "integer",
						"description": "ID of the record to edit, only if the user named one",
					}
					return props
				}(),
			},
		},
		{
			Name:        toolSearchHCP,
			Description: "Search logged interactions by HCP name.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": stringProp("HCP name or name fragment to search for"),
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        toolSetUserName,
			Description: "Remember the representative's own name.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name": stringProp("The user's name"),
				},
				"required": []string{"name"},
			},
		},
	}
}
