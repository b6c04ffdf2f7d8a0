// Copyright (C) 2026 ManiGOo
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ManiGOo/hcp-crm-task/services/compliance_engine"
	"github.com/ManiGOo/hcp-crm-task/services/crm/observability"
	"github.com/ManiGOo/hcp-crm-task/services/llm"
)

var pipelineTracer = otel.Tracer("hcpcrm.agent.pipeline")

// Outcome is the result of one pipeline run.
type Outcome struct {
	// Reply is the user-facing reply text.
	Reply string

	// ExtractedData is the structured payload for the caller to render,
	// persist context from, or retry with.
	ExtractedData map[string]any

	// Action is the action kind the router actually took.
	Action ActionKind

	// UserName echoes a newly learned user name, or the carried one.
	UserName string

	// LastInteractionID is the id the caller should carry into the next
	// turn: the record persisted this turn, else the carried value.
	LastInteractionID int64
}

// Pipeline sequences the fixed stages of one conversational turn:
// EXTRACT → (SUMMARIZE) → COMPLY → ROUTE. The state machine in
// state_machine.go owns the transition rules; Run only executes stages.
type Pipeline struct {
	extractor *Extractor
	engine    *compliance_engine.ComplianceEngine
	router    *Router
	metrics   *observability.PipelineMetrics
}

// NewPipeline wires the pipeline to its collaborators.
func NewPipeline(client llm.LLMClient, engine *compliance_engine.ComplianceEngine, gw Gateway) *Pipeline {
	return &Pipeline{
		extractor: NewExtractor(client),
		engine:    engine,
		router:    NewRouter(gw),
		metrics:   observability.Default(),
	}
}

// Run executes one pass of the pipeline for a single user message.
//
// # Description
//
// The conversation state is owned exclusively by this run and discarded
// afterwards. Stage-local conditions (ambiguity, validation, not-found) are
// recovered into the reply; only collaborator failures return an error, in
// which case nothing was committed.
func (p *Pipeline) Run(ctx context.Context, conv *ConversationState) (*Outcome, error) {
	runID := uuid.New().String()
	ctx, span := pipelineTracer.Start(ctx, "Pipeline.Run")
	defer span.End()
	span.SetAttributes(attribute.String("pipeline.run_id", runID))

	logger := slog.With("run_id", runID)
	logger.Info("Pipeline run started", "history", len(conv.Messages))

	var (
		extraction *ExtractionResult
		routed     *RouteResult
	)

	state := StateStart
	for !state.IsTerminal() {
		next, err := Next(state, conv.Draft)
		if err != nil {
			return nil, err
		}
		logger.Debug("Pipeline transition",
			"from", state, "to", next, "reason", TransitionReason(state, next))
		state = next

		stageStart := time.Now()
		stageCtx, stageSpan := pipelineTracer.Start(ctx, "stage."+state.String())

		switch state {
		case StateExtract:
			extraction, err = p.extractor.Extract(stageCtx, conv)
			if err == nil {
				conv.Draft = conv.Draft.Merge(extraction.Partial)
			}
			p.metrics.UnderstandingCallSeconds.Observe(time.Since(stageStart).Seconds())

		case StateSummarize:
			conv.Draft = GenerateSummary(conv.Draft, conv.RawInput)

		case StateComply:
			verdict := p.engine.CheckTopics(conv.Draft.Topics)
			conv.Draft.Compliance = &verdict
			if verdict.Warning {
				logger.Warn("Compliance warning on draft topics",
					"findings", len(p.engine.ScanTopics(conv.Draft.Topics)))
			}

		case StateRoute:
			routed, err = p.router.Route(stageCtx, conv, extraction)

		case StateDone:
			// Terminal; nothing to execute.
		}

		if err != nil {
			stageSpan.RecordError(err)
			stageSpan.SetStatus(codes.Error, err.Error())
			stageSpan.End()
			span.SetStatus(codes.Error, err.Error())
			p.metrics.RunsTotal.WithLabelValues(string(ActionNone), "error").Inc()
			logger.Error("Pipeline run failed", "stage", state, "error", err)
			return nil, fmt.Errorf("pipeline stage %s: %w", state, err)
		}
		stageSpan.End()
		if !state.IsTerminal() {
			p.metrics.StageDurationSeconds.WithLabelValues(state.String()).Observe(time.Since(stageStart).Seconds())
		}
	}

	outcome := &Outcome{
		Reply:             routed.Reply,
		ExtractedData:     routed.ExtractedData,
		Action:            routed.Action,
		UserName:          conv.UserName,
		LastInteractionID: conv.LastInteractionID,
	}
	if routed.Action == ActionSetUserName {
		if name, ok := routed.ExtractedData["user_name"].(string); ok {
			outcome.UserName = name
		}
	}
	if routed.PersistedID != 0 {
		outcome.LastInteractionID = routed.PersistedID
	}

	span.SetAttributes(attribute.String("pipeline.action", string(outcome.Action)))
	p.metrics.RunsTotal.WithLabelValues(string(outcome.Action), "success").Inc()
	logger.Info("Pipeline run finished", "action", outcome.Action, "persisted_id", routed.PersistedID)
	return outcome, nil
}
