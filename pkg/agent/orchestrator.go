// Copyright 2026 XBase Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package agent orchestrates conversation turns: reasoning, the
// propose/confirm gate for state-changing actions, tool dispatch, the
// second reasoning pass over tool results, and the rolling one-line
// history.
package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xbase-labs/xbase/pkg/fabric"
	"github.com/xbase-labs/xbase/pkg/llm"
	"github.com/xbase-labs/xbase/pkg/retrieval"
	"github.com/xbase-labs/xbase/pkg/runner"
	"github.com/xbase-labs/xbase/pkg/tenant"
	"github.com/xbase-labs/xbase/pkg/tool"
)

// User-facing fixed replies. The gate's outcomes never depend on the
// reasoning engine phrasing them.
const (
	declineReply  = "Okay, I won't run it. Do you have any further queries?"
	engineFailure = "I'm sorry, I couldn't process that request right now. Please try again."
)

// TurnRequest is one user turn handed to the core by the hosting
// application.
type TurnRequest struct {
	// TenantID is the opaque tenant identifier (required).
	TenantID string

	// DataSource is the tenant's data-source descriptor, e.g.
	// "SQL:postgres" or "CSV:sales.csv". Selects the reference corpus and
	// is handed to code execution as the bucket reference.
	DataSource string

	// Query is the user's message (required).
	Query string

	// Conversation is the caller-owned session state. Mutated in place.
	Conversation *Conversation

	// ToolsAllowed gates all tool dispatch for this turn. When false the
	// reasoning engine may still propose calls; none is executed.
	ToolsAllowed bool
}

// TurnResult is the outcome of one turn.
type TurnResult struct {
	// Reply is the user-facing text.
	Reply string

	// History is the updated rolling summary, oldest first.
	History []string

	// Artifacts holds image blobs produced by code execution this turn.
	Artifacts [][]byte

	// SQLResults holds normalized outcomes of SQL calls dispatched this
	// turn, in source order. Empty when none ran.
	SQLResults []*fabric.QueryResult

	// CodeResults holds outcomes of code executions dispatched this turn,
	// in source order. Empty when none ran.
	CodeResults []*runner.ExecResult
}

// Orchestrator drives conversation turns. One Orchestrator serves many
// concurrent sessions; all per-session state lives in the caller's
// Conversation.
type Orchestrator struct {
	provider llm.Provider
	backend  fabric.SessionBackend
	resolver *tenant.Resolver
	ret      retrieval.Retriever
	runner   runner.Runner
	registry *tool.Registry
	logger   *zap.Logger
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithBackend wires the tenant database backend; enables the run_sql tool.
func WithBackend(backend fabric.SessionBackend, resolver *tenant.Resolver) Option {
	return func(o *Orchestrator) {
		o.backend = backend
		o.resolver = resolver
	}
}

// WithRetriever wires reference-snippet retrieval into prompt assembly.
func WithRetriever(ret retrieval.Retriever) Option {
	return func(o *Orchestrator) { o.ret = ret }
}

// WithRunner wires the sandboxed code runner; enables run_code and
// read_bucket.
func WithRunner(r runner.Runner) Option {
	return func(o *Orchestrator) { o.runner = r }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// NewOrchestrator creates an orchestrator. The tool registry is assembled
// once here from whichever capabilities were wired; the set is closed
// afterwards.
func NewOrchestrator(provider llm.Provider, opts ...Option) (*Orchestrator, error) {
	if provider == nil {
		return nil, fmt.Errorf("llm provider is required")
	}
	o := &Orchestrator{
		provider: provider,
		registry: tool.NewRegistry(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.backend != nil && o.resolver != nil {
		o.registry.Register(NewRunSQLTool(o.backend, o.resolver, o.logger))
	}
	if o.runner != nil {
		o.registry.Register(NewRunCodeTool(o.runner, o.logger))
		o.registry.Register(NewReadBucketTool())
	}

	return o, nil
}

// Registry exposes the closed tool set, for inspection and tests.
func (o *Orchestrator) Registry() *tool.Registry { return o.registry }

// HandleTurn processes one user turn end to end. The caller must not run
// two turns of the same Conversation concurrently; turns of different
// conversations may run in parallel.
func (o *Orchestrator) HandleTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	if req.TenantID == "" {
		return nil, fmt.Errorf("tenant id is required")
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("query is required")
	}
	conv := req.Conversation
	if conv == nil {
		conv = &Conversation{}
	}

	collector := NewArtifactCollector()
	ctx = WithTurnContext(ctx, &TurnContext{
		TenantID:      req.TenantID,
		DataSourceRef: req.DataSource,
		Artifacts:     collector,
	})

	// Bulk export bypasses the reasoning engine entirely.
	if table, ok := parseExportRequest(req.Query); ok {
		return o.handleExport(ctx, req, conv, table, collector)
	}

	// A pending proposal intercepts the reply before any reasoning.
	if conv.Pending != nil && conv.Pending.State == StateProposed {
		switch {
		case IsAffirmative(req.Query):
			conv.Pending.State = StateConfirmed
			return o.handleConfirmed(ctx, req, conv, collector)
		case IsNegative(req.Query):
			conv.Pending.State = StateDeclined
			conv.Pending = nil
			return o.finishTurn(ctx, req, conv, declineReply, collector, nil, nil)
		default:
			// Anything else is a fresh query, never implicit consent.
			conv.Pending = nil
		}
	}

	return o.handleQuery(ctx, req, conv, collector)
}

// handleQuery runs the first reasoning pass and routes its outcome.
func (o *Orchestrator) handleQuery(ctx context.Context, req TurnRequest, conv *Conversation, collector *ArtifactCollector) (*TurnResult, error) {
	system := buildSystemPrompt(req.DataSource, o.retrieveSnippets(ctx, req), conv.History)
	messages := []llm.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: req.Query},
	}

	resp, err := o.provider.Chat(ctx, messages, o.registry.ListTools())
	if err != nil {
		o.logger.Error("reasoning pass failed", zap.Error(err))
		return o.finishTurn(ctx, req, conv, engineFailure, collector, nil, nil)
	}

	// The permission flag overrides the engine's intention outright: the
	// first-pass text is the reply and nothing is proposed or dispatched.
	if len(resp.ToolCalls) == 0 || !req.ToolsAllowed {
		return o.finishTurn(ctx, req, conv, resp.Content, collector, nil, nil)
	}

	ensureCallIDs(resp.ToolCalls)

	// Any state-changing call turns the whole batch into a proposal.
	if o.anyMutating(resp.ToolCalls) {
		reply := resp.Content
		if strings.TrimSpace(reply) == "" {
			reply = describeCalls(resp.ToolCalls) + "\n\nDo you want me to run this? (Accept/Decline)"
		}
		conv.Pending = &PendingAction{
			State:          StateProposed,
			Calls:          resp.ToolCalls,
			ActionText:     reply,
			ProposedAtTurn: conv.Turn,
		}
		return o.finishTurn(ctx, req, conv, reply, collector, nil, nil)
	}

	results := o.dispatch(ctx, req, resp.ToolCalls)
	reply := o.secondPass(ctx, req, conv, resp, resp.ToolCalls, results)
	sqlRes, codeRes := partitionResults(resp.ToolCalls, results)
	return o.finishTurn(ctx, req, conv, reply, collector, sqlRes, codeRes)
}

// handleConfirmed dispatches a confirmed pending action exactly once.
func (o *Orchestrator) handleConfirmed(ctx context.Context, req TurnRequest, conv *Conversation, collector *ArtifactCollector) (*TurnResult, error) {
	pending := conv.Pending
	conv.Pending = nil

	results := o.dispatch(ctx, req, pending.Calls)

	assistant := &llm.LLMResponse{Content: pending.ActionText, ToolCalls: pending.Calls}
	reply := o.secondPass(ctx, req, conv, assistant, pending.Calls, results)
	sqlRes, codeRes := partitionResults(pending.Calls, results)
	return o.finishTurn(ctx, req, conv, reply, collector, sqlRes, codeRes)
}

// handleExport dumps a table as CSV without conversational framing.
func (o *Orchestrator) handleExport(ctx context.Context, req TurnRequest, conv *Conversation, table string, collector *ArtifactCollector) (*TurnResult, error) {
	csvText, err := o.exportTable(ctx, req.TenantID, table)
	if err != nil {
		o.logger.Warn("table export failed",
			zap.String("table", table),
			zap.Error(err),
		)
		reply := fmt.Sprintf("Export failed: %v", err)
		return o.finishTurn(ctx, req, conv, reply, collector, nil, nil)
	}

	conv.AppendSummary(fmt.Sprintf("User exported table %s as CSV.", table))
	conv.Turn++
	return &TurnResult{
		Reply:     csvText,
		History:   conv.History,
		Artifacts: collector.Images(),
	}, nil
}

// dispatch executes tool calls concurrently and returns results in source
// order. Every slot is filled: executor failures become error results.
func (o *Orchestrator) dispatch(ctx context.Context, req TurnRequest, calls []llm.ToolCall) []*tool.Result {
	executor := tool.NewExecutor(o.registry, o.logger)
	executor.SetPermissionChecker(tool.NewPermissionChecker(tool.PermissionConfig{
		ToolsAllowed: req.ToolsAllowed,
	}))

	results := make([]*tool.Result, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call llm.ToolCall) {
			defer wg.Done()
			res, err := executor.Execute(ctx, call.Name, call.Input)
			if err != nil {
				res = tool.ErrorResult(tool.ErrorPrefix, err.Error())
			}
			results[i] = res
		}(i, call)
	}
	wg.Wait()
	return results
}

// secondPass feeds tool results back to the reasoning engine, tool-free,
// to produce the user-facing reply. On failure the raw transcript is
// returned instead of being silently dropped.
func (o *Orchestrator) secondPass(ctx context.Context, req TurnRequest, conv *Conversation, assistant *llm.LLMResponse, calls []llm.ToolCall, results []*tool.Result) string {
	system := buildSystemPrompt(req.DataSource, nil, conv.History)
	messages := []llm.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: req.Query},
		{Role: "assistant", Content: assistant.Content, ToolCalls: calls},
	}
	for i, call := range calls {
		messages = append(messages, llm.Message{
			Role:       "tool",
			Content:    results[i].Transcript(),
			ToolCallID: call.ID,
		})
	}

	resp, err := o.provider.Chat(ctx, messages, nil)
	if err != nil {
		o.logger.Error("second reasoning pass failed", zap.Error(err))
		return fmt.Sprintf("I ran the requested action but couldn't compose a reply. Raw results:\n\n%s",
			renderTranscript(calls, results))
	}
	return resp.Content
}

// finishTurn summarizes the exchange into one history line and assembles
// the result.
func (o *Orchestrator) finishTurn(ctx context.Context, req TurnRequest, conv *Conversation, reply string, collector *ArtifactCollector, sqlRes []*fabric.QueryResult, codeRes []*runner.ExecResult) (*TurnResult, error) {
	conv.AppendSummary(o.summarize(ctx, req.Query, reply))
	conv.Turn++

	return &TurnResult{
		Reply:       reply,
		History:     conv.History,
		Artifacts:   collector.Images(),
		SQLResults:  sqlRes,
		CodeResults: codeRes,
	}, nil
}

// summarize produces the one-line history entry for a completed exchange.
// Summarizer failure degrades to a local truncation, never fails the turn.
func (o *Orchestrator) summarize(ctx context.Context, query, reply string) string {
	messages := []llm.Message{
		{Role: "system", Content: summarizePrompt},
		{Role: "user", Content: fmt.Sprintf("User query: %s\n\nAssistant reply: %s", query, reply)},
	}
	resp, err := o.provider.Chat(ctx, messages, nil)
	if err != nil || strings.TrimSpace(resp.Content) == "" {
		if err != nil {
			o.logger.Warn("history summarizer failed", zap.Error(err))
		}
		return fallbackSummary(reply)
	}
	return resp.Content
}

// retrieveSnippets looks up reference material for the query. Retrieval
// failure degrades to an unenriched prompt.
func (o *Orchestrator) retrieveSnippets(ctx context.Context, req TurnRequest) []string {
	if o.ret == nil {
		return nil
	}
	corpus := retrieval.CorpusForDataSource(req.DataSource)
	snippets, err := o.ret.Retrieve(ctx, corpus, req.Query, retrieval.DefaultTopK)
	if err != nil {
		o.logger.Warn("reference retrieval failed",
			zap.String("corpus", corpus),
			zap.Error(err),
		)
		return nil
	}
	return snippets
}

// anyMutating reports whether any call targets a state-changing tool.
// Calls naming unknown tools count as mutating; they will fail at
// dispatch, but only after explicit confirmation.
func (o *Orchestrator) anyMutating(calls []llm.ToolCall) bool {
	for _, call := range calls {
		t, ok := o.registry.Get(call.Name)
		if !ok || t.Mutating() {
			return true
		}
	}
	return false
}

// ensureCallIDs fills in ids for providers that omit them, so results can
// be correlated in the second pass.
func ensureCallIDs(calls []llm.ToolCall) {
	for i := range calls {
		if calls[i].ID == "" {
			calls[i].ID = uuid.NewString()
		}
	}
}

// describeCalls renders proposed calls for the confirmation prompt when
// the reasoning engine produced no accompanying text.
func describeCalls(calls []llm.ToolCall) string {
	var b strings.Builder
	b.WriteString("I'd like to run the following:")
	for _, call := range calls {
		fmt.Fprintf(&b, "\n\n[%s]", call.Name)
		if q, ok := call.Input["query"].(string); ok {
			b.WriteString("\n" + q)
		} else if c, ok := call.Input["code"].(string); ok {
			b.WriteString("\n" + c)
		}
	}
	return b.String()
}

// renderTranscript renders tool outputs in source order for the fallback
// reply.
func renderTranscript(calls []llm.ToolCall, results []*tool.Result) string {
	var b strings.Builder
	for i, call := range calls {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%s OUTPUT]:\n%s", call.Name, results[i].Transcript())
	}
	return b.String()
}

// partitionResults maps tool results back to their structured forms for
// the TurnResult, in source order per kind.
func partitionResults(calls []llm.ToolCall, results []*tool.Result) ([]*fabric.QueryResult, []*runner.ExecResult) {
	var sqlRes []*fabric.QueryResult
	var codeRes []*runner.ExecResult
	for i, call := range calls {
		res := results[i]
		switch call.Name {
		case "run_sql":
			switch res.Kind {
			case tool.ResultRows:
				sqlRes = append(sqlRes, &fabric.QueryResult{
					Type:       fabric.ResultTypeRows,
					Columns:    res.Columns,
					Rows:       res.Rows,
					DurationMs: res.ExecutionTimeMs,
				})
			case tool.ResultExec:
				sqlRes = append(sqlRes, &fabric.QueryResult{
					Type:       fabric.ResultTypeExec,
					DurationMs: res.ExecutionTimeMs,
				})
			default:
				sqlRes = append(sqlRes, nil)
			}
		case "run_code":
			if res.Kind == tool.ResultError {
				codeRes = append(codeRes, &runner.ExecResult{Error: res.Text, Images: res.Images})
			} else {
				codeRes = append(codeRes, &runner.ExecResult{Output: res.Text, Images: res.Images})
			}
		}
	}
	return sqlRes, codeRes
}
