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

import "fmt"

// PermissionChecker decides whether a tool may be executed this turn.
type PermissionChecker struct {
	toolsAllowed  bool
	disabledTools map[string]bool
}

// PermissionConfig holds permission configuration.
type PermissionConfig struct {
	// ToolsAllowed is the caller-supplied permission flag. When false, no
	// tool is ever dispatched this turn regardless of the reasoning
	// engine's decision.
	ToolsAllowed bool

	// DisabledTools are tool names that are never allowed.
	DisabledTools []string
}

// NewPermissionChecker creates a new permission checker.
func NewPermissionChecker(config PermissionConfig) *PermissionChecker {
	disabled := make(map[string]bool, len(config.DisabledTools))
	for _, name := range config.DisabledTools {
		disabled[name] = true
	}
	return &PermissionChecker{
		toolsAllowed:  config.ToolsAllowed,
		disabledTools: disabled,
	}
}

// Check returns nil if the tool may run, an error describing why otherwise.
func (pc *PermissionChecker) Check(toolName string) error {
	if !pc.toolsAllowed {
		return fmt.Errorf("tool '%s' not dispatched: tool use is disabled for this turn", toolName)
	}
	if pc.disabledTools[toolName] {
		return fmt.Errorf("tool '%s' is disabled by configuration", toolName)
	}
	return nil
}

// ToolsAllowed reports whether any tool may run this turn.
func (pc *PermissionChecker) ToolsAllowed() bool {
	return pc.toolsAllowed
}
