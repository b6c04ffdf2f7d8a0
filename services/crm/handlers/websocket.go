// Copyright (C) 2026 ManiGOo
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ManiGOo/hcp-crm-task/services/crm/agent"
	"github.com/ManiGOo/hcp-crm-task/services/crm/datatypes"
	"github.com/ManiGOo/hcp-crm-task/services/crm/observability"
)

// WSRequest is one chat turn from the browser. History is kept server-side
// for the lifetime of the connection, so only the new message travels.
type WSRequest struct {
	Message  string `json:"message"`
	UserName string `json:"user_name,omitempty"`
}

// WSResponse mirrors ChatResponse plus the connection session id.
type WSResponse struct {
	Reply             string         `json:"reply"`
	ExtractedData     map[string]any `json:"extracted_data,omitempty"`
	UserName          string         `json:"user_name,omitempty"`
	LastInteractionID int64          `json:"last_interaction_id,omitempty"`
	SessionID         string         `json:"session_id"`
	Error             string         `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,
}

func sendJSON(ws *websocket.Conn, v interface{}) error {
	err := ws.WriteJSON(v)
	if err != nil {
		slog.Warn("Failed to write WebSocket JSON", "error", err)
	}
	return err
}

// HandleChatWebSocket runs a stateful chat session over one connection.
// User name, last saved interaction id, and the rolling message history
// survive across turns without the client resending them.
func HandleChatWebSocket(pipeline *agent.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("failed to upgrade the websocket", "error", err)
			return
		}
		defer ws.Close()

		metrics := observability.Default()
		metrics.ActiveChatSessions.Inc()
		defer metrics.ActiveChatSessions.Dec()

		sessionID := uuid.New().String()
		slog.Info("New websocket chat session started", "sessionID", sessionID)

		if err := sendJSON(ws, map[string]interface{}{
			"action":    "session_created",
			"sessionId": sessionID,
		}); err != nil {
			return
		}

		var (
			history           []datatypes.Message
			userName          string
			lastInteractionID int64
		)

		for {
			var req WSRequest
			if err := ws.ReadJSON(&req); err != nil {
				slog.Info("Websocket chat client disconnected", "sessionID", sessionID, "error", err.Error())
				break
			}
			if req.UserName != "" {
				userName = req.UserName
			}

			chatReq := datatypes.ChatRequest{
				Message:           req.Message,
				UserName:          userName,
				History:           history,
				LastInteractionID: lastInteractionID,
			}
			resp := WSResponse{SessionID: sessionID}
			if err := chatReq.Validate(); err != nil {
				resp.Error = err.Error()
				if sendJSON(ws, resp) != nil {
					return
				}
				continue
			}

			conv := agent.NewConversationState(req.Message, userName, history, lastInteractionID)
			outcome, err := pipeline.Run(c.Request.Context(), conv)
			if err != nil {
				slog.Error("Pipeline run failed on websocket turn", "sessionID", sessionID, "error", err)
				resp.Error = "failed to process the message"
				if sendJSON(ws, resp) != nil {
					return
				}
				continue
			}

			userName = outcome.UserName
			lastInteractionID = outcome.LastInteractionID
			history = append(history,
				datatypes.Message{Role: datatypes.RoleUser, Content: req.Message},
				datatypes.Message{Role: datatypes.RoleAssistant, Content: outcome.Reply},
			)
			if len(history) > datatypes.MaxHistoryMessages {
				history = history[len(history)-datatypes.MaxHistoryMessages:]
			}

			resp.Reply = outcome.Reply
			resp.ExtractedData = outcome.ExtractedData
			resp.UserName = outcome.UserName
			resp.LastInteractionID = outcome.LastInteractionID
			if sendJSON(ws, resp) != nil {
				return
			}
		}
	}
}
