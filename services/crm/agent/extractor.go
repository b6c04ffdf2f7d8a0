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

	"github.com/ManiGOo/hcp-crm-task/services/crm/datatypes"
	"github.com/ManiGOo/hcp-crm-task/services/llm"
)

// extractionTemperature keeps field extraction reasonably deterministic
// while leaving room for natural reply phrasing.
const extractionTemperature float32 = 0.4

// ExtractionResult is what one understanding-service call yields: a partial
// draft, the requested action, and any assistant text.
type ExtractionResult struct {
	// Partial holds the fields extracted this turn. Absent fields stay
	// empty and never erase previously known values on merge.
	Partial Draft

	// Requested is the discriminated action the model signaled.
	// Kind is ActionNone when no tool was invoked.
	Requested *RequestedAction

	// AssistantText is the model's conversational reply, if any.
	AssistantText string

	// ValidationErr records a rejected id coercion. The run continues;
	// the router turns it into a reply.
	ValidationErr *ValidationError
}

// Extractor turns raw user text into structured interaction fields.
//
// It performs no I/O beyond the single understanding-service call and never
// fabricates an hcp_name: if no HCP is identifiable the field stays absent
// and the run is non-persistable.
type Extractor struct {
	llm llm.LLMClient
}

// NewExtractor creates a field extractor backed by the given client.
func NewExtractor(client llm.LLMClient) *Extractor {
	return &Extractor{llm: client}
}

// Extract runs one understanding-service call over the full message history.
//
// Outputs:
//
//	*ExtractionResult - Partial draft plus the requested action
//	error - Collaborator failures only (service unreachable, unknown tool
//	  kind, undecodable arguments); everything else is data in the result
func (e *Extractor) Extract(ctx context.Context, conv *ConversationState) (*ExtractionResult, error) {
	messages := make([]datatypes.Message, 0, len(conv.Messages)+1)
	messages = append(messages, datatypes.Message{Role: datatypes.RoleSystem, Content: systemPrompt})
	messages = append(messages, conv.Messages...)

	temp := extractionTemperature
	params := llm.GenerationParams{
		Temperature:     &temp,
		ToolDefinitions: toolDefinitions(),
	}

	res, err := e.llm.Chat(ctx, messages, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnderstanding, err)
	}

	result := &ExtractionResult{AssistantText: res.Content}
	if len(res.Invocations) == 0 {
		result.Requested = &RequestedAction{Kind: ActionNone}
		return result, nil
	}
	if len(res.Invocations) > 1 {
		// One action per turn; extra invocations are dropped, not queued.
		slog.Warn("Understanding service requested multiple tools, keeping the first",
			"count", len(res.Invocations))
	}

	requested, err := parseInvocation(res.Invocations[0])
	var ve *ValidationError
	switch {
	case err == nil:
	case errors.As(err, &ve):
		result.ValidationErr = ve
	default:
		return nil, err
	}

	result.Requested = requested
	if requested.Fields != nil {
		result.Partial = requested.Fields.AsDraft()
	}
	return result, nil
}
