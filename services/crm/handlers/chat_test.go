// Copyright (C) 2026 ManiGOo
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManiGOo/hcp-crm-task/services/compliance_engine"
	"github.com/ManiGOo/hcp-crm-task/services/crm/agent"
	"github.com/ManiGOo/hcp-crm-task/services/crm/datatypes"
	"github.com/ManiGOo/hcp-crm-task/services/crm/store"
	"github.com/ManiGOo/hcp-crm-task/services/llm"
)

// =============================================================================
// Test Setup
// =============================================================================

func init() {
	// Set Gin to test mode to reduce noise in test output
	gin.SetMode(gin.TestMode)
}

// MockLLMClient implements llm.LLMClient for handler testing.
type MockLLMClient struct {
	ChatResult *llm.Result
	ChatError  error
}

func (m *MockLLMClient) Chat(ctx context.Context, messages []datatypes.Message, params llm.GenerationParams) (*llm.Result, error) {
	return m.ChatResult, m.ChatError
}

func (m *MockLLMClient) Generate(ctx context.Context, prompt string, params llm.GenerationParams) (string, error) {
	return "", nil
}

// newTestPipeline builds a pipeline over a mock LLM and an in-memory store.
func newTestPipeline(t *testing.T, mock *MockLLMClient) (*agent.Pipeline, *store.InteractionStore) {
	t.Helper()

	engine, err := compliance_engine.NewComplianceEngine()
	require.NoError(t, err)

	st, err := store.NewInteractionStore(store.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	return agent.NewPipeline(mock, engine, st), st
}

// createTestRouter creates a Gin router with the specified handler for testing.
func createTestRouter(method, path string, handler gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	switch method {
	case "POST":
		router.POST(path, handler)
	case "GET":
		router.GET(path, handler)
	case "DELETE":
		router.DELETE(path, handler)
	}
	return router
}

// performRequest executes an HTTP request against the test router.
func performRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func logInteractionResult(args string) *llm.Result {
	return &llm.Result{
		Invocations: []llm.ToolInvocation{
			{ID: "call-1", Name: "log_interaction", Arguments: json.RawMessage(args)},
		},
	}
}

// =============================================================================
// HandleChat Tests
// =============================================================================

func TestHandleChat_Success(t *testing.T) {
	mock := &MockLLMClient{ChatResult: logInteractionResult(
		`{"hcp_name":"Dr. Sarah Chen","topics":"efficacy data","outcomes":"Positive"}`)}
	pipeline, st := newTestPipeline(t, mock)

	router := createTestRouter("POST", "/v1/chat", HandleChat(pipeline))
	body := datatypes.ChatRequest{Message: "Met Dr. Sarah Chen to discuss efficacy data", UserName: "Alex"}

	w := performRequest(router, "POST", "/v1/chat", body)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Reply, "saved successfully")
	assert.Equal(t, "Alex", resp.UserName)
	assert.Positive(t, resp.LastInteractionID)
	assert.Equal(t, "Dr. Sarah Chen", resp.ExtractedData["hcp_name"])

	rec, err := st.GetRecord(context.Background(), resp.LastInteractionID)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Sarah Chen", rec.HCPName)
}

func TestHandleChat_InvalidJSON(t *testing.T) {
	pipeline, _ := newTestPipeline(t, &MockLLMClient{})
	router := createTestRouter("POST", "/v1/chat", HandleChat(pipeline))

	req, _ := http.NewRequest("POST", "/v1/chat", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleChat_MissingMessage(t *testing.T) {
	pipeline, _ := newTestPipeline(t, &MockLLMClient{})
	router := createTestRouter("POST", "/v1/chat", HandleChat(pipeline))

	w := performRequest(router, "POST", "/v1/chat", datatypes.ChatRequest{UserName: "Alex"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleChat_UnderstandingFailure(t *testing.T) {
	mock := &MockLLMClient{ChatError: errors.New("connection refused")}
	pipeline, _ := newTestPipeline(t, mock)
	router := createTestRouter("POST", "/v1/chat", HandleChat(pipeline))

	w := performRequest(router, "POST", "/v1/chat", datatypes.ChatRequest{Message: "met Dr. Chen"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp, "error")
}

func TestHandleChat_ComplianceWarning(t *testing.T) {
	mock := &MockLLMClient{ChatResult: logInteractionResult(
		`{"hcp_name":"Dr. Chen","topics":"off-label usage"}`)}
	pipeline, _ := newTestPipeline(t, mock)
	router := createTestRouter("POST", "/v1/chat", HandleChat(pipeline))

	w := performRequest(router, "POST", "/v1/chat",
		datatypes.ChatRequest{Message: "Dr. Chen asked about off-label use"})
	assert.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Reply, compliance_engine.ReasonWarning)
}

func TestHandleChat_CarriedContextRoundTrip(t *testing.T) {
	mock := &MockLLMClient{ChatResult: logInteractionResult(`{"hcp_name":"Dr. Chen"}`)}
	pipeline, _ := newTestPipeline(t, mock)
	router := createTestRouter("POST", "/v1/chat", HandleChat(pipeline))

	w := performRequest(router, "POST", "/v1/chat", datatypes.ChatRequest{Message: "met Dr. Chen"})
	require.Equal(t, http.StatusOK, w.Code)
	var first datatypes.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	require.Positive(t, first.LastInteractionID)

	// Second turn edits "the last one" using the carried id.
	mock.ChatResult = &llm.Result{
		Invocations: []llm.ToolInvocation{
			{ID: "call-2", Name: "edit_interaction", Arguments: json.RawMessage(`{"outcomes":"Negative"}`)},
		},
	}
	w = performRequest(router, "POST", "/v1/chat", datatypes.ChatRequest{
		Message:           "actually that went badly",
		LastInteractionID: first.LastInteractionID,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var second datatypes.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.Contains(t, second.Reply, "updated successfully")
	assert.Equal(t, first.LastInteractionID, second.LastInteractionID)
}
