// Copyright (C) 2026 ManiGOo
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes provides data structures for the CRM service.
//
// This file contains request and response types for the conversational
// logging endpoint. For the persisted record types, see interaction.go.
package datatypes

import (
	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Constants for Input Limits
// =============================================================================

const (
	// MaxMessageContentBytes is the maximum size of a single message content.
	// Checked in bytes, not runes, to bound memory for large payloads.
	MaxMessageContentBytes = 32 * 1024 // 32KB

	// MaxHistoryMessages is the maximum number of carried history messages
	// in a single chat request.
	MaxHistoryMessages = 100
)

// chatValidate is the validator instance for chat datatypes.
// Initialized in init() with custom validators.
var chatValidate *validator.Validate

func init() {
	chatValidate = validator.New()
	_ = chatValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateMaxBytes validates that a string field does not exceed
// MaxMessageContentBytes.
func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxMessageContentBytes
}

// =============================================================================
// Messages
// =============================================================================

// Message roles exchanged with the understanding service.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one exchanged message in a conversation.
type Message struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant tool"`
	Content string `json:"content" validate:"maxbytes"`
}

// =============================================================================
// Chat Request / Response
// =============================================================================

// ChatRequest is the body of POST /v1/chat.
//
// # Description
//
// One natural-language turn from a field representative, plus whatever
// cross-turn context the caller chooses to carry. The service itself keeps
// no session state between requests: UserName and LastInteractionID are
// echoes of what earlier responses told the caller.
//
// # Fields
//
//   - Message: Required. The new user utterance, up to 32KB.
//   - UserName: Optional. The representative's name, if known from a
//     previous turn.
//   - History: Optional. Prior conversation messages, oldest first.
//   - LastInteractionID: Optional. ID of the most recently persisted record,
//     used to resolve references like "edit the last one".
type ChatRequest struct {
	Message           string    `json:"message" validate:"required,maxbytes"`
	UserName          string    `json:"user_name,omitempty"`
	History           []Message `json:"history,omitempty" validate:"max=100,dive"`
	LastInteractionID int64     `json:"last_interaction_id,omitempty" validate:"gte=0"`
}

// Validate validates the ChatRequest fields. Call after binding the JSON.
func (r *ChatRequest) Validate() error {
	return chatValidate.Struct(r)
}

// ChatResponse is the reply to one chat turn.
//
// ExtractedData echoes whatever structured payload the action router
// produced (created/edited record, search results, or a name confirmation)
// so a client can render a form or retry a failed save.
type ChatResponse struct {
	Reply             string         `json:"reply"`
	ExtractedData     map[string]any `json:"extracted_data"`
	UserName          string         `json:"user_name,omitempty"`
	LastInteractionID int64          `json:"last_interaction_id,omitempty"`
}
