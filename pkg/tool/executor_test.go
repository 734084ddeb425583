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
	"errors"
	"strings"
	"testing"
)

type mockTool struct {
	name     string
	mutating bool
	result   *Result
	err      error
	panics   bool
	calls    int
}

func (m *mockTool) Name() string             { return m.name }
func (m *mockTool) Description() string      { return "mock tool" }
func (m *mockTool) InputSchema() *JSONSchema { return NewObjectSchema("mock", nil, nil) }
func (m *mockTool) Mutating() bool           { return m.mutating }

func (m *mockTool) Execute(ctx context.Context, params map[string]interface{}) (*Result, error) {
	m.calls++
	if m.panics {
		panic("mock tool panic")
	}
	return m.result, m.err
}

func TestExecutor_Execute(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&mockTool{name: "echo", result: TextResult("hello")})
	exec := NewExecutor(reg, nil)

	res, err := exec.Execute(context.Background(), "echo", nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.Kind != ResultText || res.Text != "hello" {
		t.Errorf("Expected text result 'hello', got kind=%s text=%q", res.Kind, res.Text)
	}
}

func TestExecutor_Execute_NotFound(t *testing.T) {
	exec := NewExecutor(NewRegistry(), nil)

	_, err := exec.Execute(context.Background(), "missing", nil)
	if err == nil {
		t.Fatal("Expected error for unregistered tool")
	}
	if !strings.Contains(err.Error(), "tool not found") {
		t.Errorf("Expected 'tool not found' error, got %v", err)
	}
}

func TestExecutor_Execute_ErrorContainment(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&mockTool{name: "broken", err: errors.New("kaboom")})
	exec := NewExecutor(reg, nil)

	res, err := exec.Execute(context.Background(), "broken", nil)
	if err != nil {
		t.Fatalf("Tool failure must not escape as error: %v", err)
	}
	if !res.IsError() {
		t.Fatal("Expected error result")
	}
	if !strings.HasPrefix(res.Text, ErrorPrefix) {
		t.Errorf("Expected error prefix, got %q", res.Text)
	}
	if !strings.Contains(res.Text, "kaboom") {
		t.Errorf("Expected original message in result, got %q", res.Text)
	}
}

func TestExecutor_Execute_PanicContainment(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&mockTool{name: "panicky", panics: true})
	exec := NewExecutor(reg, nil)

	res, err := exec.Execute(context.Background(), "panicky", nil)
	if err != nil {
		t.Fatalf("Panic must not escape as error: %v", err)
	}
	if !res.IsError() {
		t.Fatal("Expected error result from panicking tool")
	}
}

func TestExecutor_Execute_PermissionDenied(t *testing.T) {
	tool := &mockTool{name: "gated", result: TextResult("secret")}
	reg := NewRegistry()
	reg.Register(tool)
	exec := NewExecutor(reg, nil)
	exec.SetPermissionChecker(NewPermissionChecker(PermissionConfig{ToolsAllowed: false}))

	res, err := exec.Execute(context.Background(), "gated", nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !res.IsError() {
		t.Fatal("Expected error result when tools are disallowed")
	}
	if tool.calls != 0 {
		t.Errorf("Tool must not run when disallowed, ran %d times", tool.calls)
	}
}

func TestExecutor_Execute_DisabledTool(t *testing.T) {
	tool := &mockTool{name: "banned", result: TextResult("x")}
	reg := NewRegistry()
	reg.Register(tool)
	exec := NewExecutor(reg, nil)
	exec.SetPermissionChecker(NewPermissionChecker(PermissionConfig{
		ToolsAllowed:  true,
		DisabledTools: []string{"banned"},
	}))

	res, err := exec.Execute(context.Background(), "banned", nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !res.IsError() {
		t.Fatal("Expected error result for disabled tool")
	}
	if tool.calls != 0 {
		t.Errorf("Disabled tool must not run, ran %d times", tool.calls)
	}
}

func TestExecutor_Execute_NilResult(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&mockTool{name: "silent"})
	exec := NewExecutor(reg, nil)

	res, err := exec.Execute(context.Background(), "silent", nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.Kind != ResultExec {
		t.Errorf("Expected exec sentinel for nil result, got %s", res.Kind)
	}
}

func TestResult_Transcript(t *testing.T) {
	rows := RowsResult([]string{"id", "name"}, [][]interface{}{{1, "ada"}})
	got := rows.Transcript()
	if !strings.Contains(got, `"columns":["id","name"]`) {
		t.Errorf("Expected columns in transcript, got %q", got)
	}

	if got := ExecResult().Transcript(); got != "Query executed" {
		t.Errorf("Expected exec sentinel, got %q", got)
	}

	if got := RowsResult([]string{"id"}, nil).Transcript(); got == "Query executed" {
		t.Error("Empty result set must stay distinguishable from exec sentinel")
	}
}

func TestPermissionChecker_Check(t *testing.T) {
	pc := NewPermissionChecker(PermissionConfig{
		ToolsAllowed:  true,
		DisabledTools: []string{"run_code"},
	})
	if err := pc.Check("run_sql"); err != nil {
		t.Errorf("Expected run_sql to be allowed, got %v", err)
	}
	if err := pc.Check("run_code"); err == nil {
		t.Error("Expected disabled tool to be rejected")
	}

	off := NewPermissionChecker(PermissionConfig{})
	if err := off.Check("read_bucket"); err == nil {
		t.Error("Expected every tool to be rejected when tool use is off")
	}
}
