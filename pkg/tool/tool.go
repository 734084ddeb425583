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

// Package tool defines the closed set of capabilities the reasoning engine
// may invoke, together with their argument schemas and execution results.
package tool

import (
	"context"
	"encoding/json"
)

// Tool is a single named capability. Tools are registered once at
// construction time; the set is closed for the lifetime of the process.
type Tool interface {
	// Name returns the tool's unique identifier
	Name() string

	// Description returns a human-readable description for LLM context
	Description() string

	// InputSchema returns the JSON Schema for tool parameters
	InputSchema() *JSONSchema

	// Execute runs the tool with given parameters
	Execute(ctx context.Context, params map[string]interface{}) (*Result, error)

	// Mutating reports whether the tool changes external state and is
	// therefore subject to the propose/confirm handshake.
	Mutating() bool
}

// ResultKind tags the variant carried by a Result. The kind is decided once
// at the tool boundary and never re-inferred from string contents.
type ResultKind int

const (
	// ResultText is a plain textual success payload.
	ResultText ResultKind = iota

	// ResultRows is a normalized result set (columns plus plain-value rows).
	ResultRows

	// ResultExec is the sentinel for statements that produce no result set
	// (DDL/DML). Distinct from ResultRows with zero rows.
	ResultExec

	// ResultError is a human-readable error description. Tool failures
	// always surface as this variant, never as a Go error to the caller.
	ResultError
)

// String returns the kind name for logging.
func (k ResultKind) String() string {
	switch k {
	case ResultText:
		return "text"
	case ResultRows:
		return "rows"
	case ResultExec:
		return "exec"
	case ResultError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is the outcome of executing a tool call.
type Result struct {
	// Kind selects which of the payload fields below is meaningful.
	Kind ResultKind

	// Text carries the payload for ResultText and ResultError. Error text
	// carries a recognizable prefix such as "SQL error:" or
	// "Tool execution error:".
	Text string

	// Columns and Rows carry the payload for ResultRows. Row values are
	// plain Go values, safe to serialize for transport.
	Columns []string
	Rows    [][]interface{}

	// Images holds opaque encoded visual artifacts produced by the tool.
	Images [][]byte

	// ExecutionTimeMs is wall-clock execution time.
	ExecutionTimeMs int64
}

// IsError reports whether the result is the error variant.
func (r *Result) IsError() bool {
	return r.Kind == ResultError
}

// Transcript renders the result as text for the second reasoning pass.
func (r *Result) Transcript() string {
	switch r.Kind {
	case ResultRows:
		b, err := json.Marshal(map[string]interface{}{
			"columns": r.Columns,
			"rows":    r.Rows,
		})
		if err != nil {
			return "unrenderable result set"
		}
		return string(b)
	case ResultExec:
		return "Query executed"
	default:
		return r.Text
	}
}

// TextResult builds a plain text success result.
func TextResult(text string) *Result {
	return &Result{Kind: ResultText, Text: text}
}

// RowsResult builds a normalized result-set result.
func RowsResult(columns []string, rows [][]interface{}) *Result {
	return &Result{Kind: ResultRows, Columns: columns, Rows: rows}
}

// ExecResult builds the sentinel success result for resultless statements.
func ExecResult() *Result {
	return &Result{Kind: ResultExec}
}

// ErrorResult builds an error result from prefix and message.
func ErrorResult(prefix, message string) *Result {
	return &Result{Kind: ResultError, Text: prefix + " " + message}
}
