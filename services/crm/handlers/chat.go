// Copyright (C) 2026 ManiGOo
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers contains the gin HTTP handlers for the CRM service.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/ManiGOo/hcp-crm-task/services/crm/agent"
	"github.com/ManiGOo/hcp-crm-task/services/crm/datatypes"
)

var chatTracer = otel.Tracer("hcpcrm.crm.handlers")

// HandleChat runs one pipeline pass for a single user message.
//
// Stage-local conditions come back as normal replies; only collaborator
// failures surface as a 500, and then nothing was committed.
func HandleChat(pipeline *agent.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := chatTracer.Start(c.Request.Context(), "HandleChat")
		defer span.End()

		var req datatypes.ChatRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to parse the chat request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			slog.Warn("Rejected chat request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		conv := agent.NewConversationState(req.Message, req.UserName, req.History, req.LastInteractionID)
		outcome, err := pipeline.Run(ctx, conv)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Pipeline run failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process the message"})
			return
		}

		c.JSON(http.StatusOK, datatypes.ChatResponse{
			Reply:             outcome.Reply,
			ExtractedData:     outcome.ExtractedData,
			UserName:          outcome.UserName,
			LastInteractionID: outcome.LastInteractionID,
		})
	}
}
