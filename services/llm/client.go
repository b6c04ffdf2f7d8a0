// Copyright (C) 2026 ManiGOo
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package llm abstracts the language-understanding backends the CRM service
// can talk to. Backends are selected at startup via LLM_BACKEND_TYPE and are
// opaque to the pipeline: one synchronous call in, text and/or tool
// invocations out.
package llm

import (
	"context"
	"encoding/json"

	"github.com/ManiGOo/hcp-crm-task/services/crm/datatypes"
)

type GenerationParams struct {
	Temperature     *float32         `json:"temperature"`
	TopP            *float32         `json:"top_p"`
	MaxTokens       *int             `json:"max_tokens"`
	Stop            []string         `json:"stop"`
	ToolDefinitions []ToolDefinition `json:"tools,omitempty"`
}

// ToolDefinition describes one function the model may invoke. Parameters is
// a JSON Schema object.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolInvocation is one function call requested by the model.
type ToolInvocation struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Result is the backend's answer to one chat call: assistant text,
// tool invocations, or both.
type Result struct {
	Content     string           `json:"content"`
	Invocations []ToolInvocation `json:"invocations,omitempty"`
}

// LLMClient defines the standard interface for any LLM backend.
type LLMClient interface {
	// Chat sends a conversation and returns the assistant's turn. Tool
	// definitions in params are advertised to the model; any calls it makes
	// come back in Result.Invocations.
	Chat(ctx context.Context, messages []datatypes.Message, params GenerationParams) (*Result, error)

	// Generate is a single-prompt convenience wrapper around Chat.
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}
