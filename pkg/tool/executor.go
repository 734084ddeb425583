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
package tool

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrorPrefix is the recognizable prefix attached to generic tool failures.
const ErrorPrefix = "Tool execution error:"

// Executor executes tools with permission checking and error containment.
// Failures inside a tool body never escape as Go errors; they become
// ResultError results fed back to the reasoning engine.
type Executor struct {
	registry *Registry
	checker  *PermissionChecker
	logger   *zap.Logger
}

// NewExecutor creates a new tool executor.
func NewExecutor(registry *Registry, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		registry: registry,
		logger:   logger,
	}
}

// SetPermissionChecker configures permission checking for tool execution.
func (e *Executor) SetPermissionChecker(checker *PermissionChecker) {
	e.checker = checker
}

// Execute executes a tool by name with the given parameters.
//
// An unregistered tool name is a hard error: the caller dispatched a call
// the registry never declared, which indicates a wiring bug, not a
// recoverable tool failure.
func (e *Executor) Execute(ctx context.Context, toolName string, params map[string]interface{}) (*Result, error) {
	t, ok := e.registry.Get(toolName)
	if !ok {
		return nil, fmt.Errorf("tool not found: %s", toolName)
	}

	if e.checker != nil {
		if err := e.checker.Check(toolName); err != nil {
			return ErrorResult(ErrorPrefix, err.Error()), nil
		}
	}

	start := time.Now()
	result, err := e.invoke(ctx, t, params)
	duration := time.Since(start)

	if err != nil {
		e.logger.Warn("tool execution failed",
			zap.String("tool", toolName),
			zap.Error(err),
			zap.Duration("duration", duration),
		)
		return &Result{
			Kind:            ResultError,
			Text:            fmt.Sprintf("%s %v", ErrorPrefix, err),
			ExecutionTimeMs: duration.Milliseconds(),
		}, nil
	}

	if result == nil {
		result = ExecResult()
	}
	// Executor timing is authoritative
	result.ExecutionTimeMs = duration.Milliseconds()

	e.logger.Debug("tool executed",
		zap.String("tool", toolName),
		zap.String("result_kind", result.Kind.String()),
		zap.Duration("duration", duration),
	)
	return result, nil
}

// invoke runs the tool body, converting panics into errors so a misbehaving
// tool cannot take down the turn.
func (e *Executor) invoke(ctx context.Context, t Tool, params map[string]interface{}) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("panic in tool %s: %v", t.Name(), r)
		}
	}()
	return t.Execute(ctx, params)
}
