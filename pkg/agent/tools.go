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
package agent

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xbase-labs/xbase/pkg/fabric"
	"github.com/xbase-labs/xbase/pkg/runner"
	"github.com/xbase-labs/xbase/pkg/tenant"
	"github.com/xbase-labs/xbase/pkg/tool"
)

// Tool error prefixes recognizable by callers and tests.
const (
	sqlErrorPrefix      = "SQL error:"
	securityErrorPrefix = "SECURITY ERROR:"
)

// RunSQLTool executes SQL scoped to the active tenant schema. Every
// invocation re-resolves and re-verifies the schema on a freshly acquired
// session; the session may have been used by another tenant before.
type RunSQLTool struct {
	backend  fabric.SessionBackend
	resolver *tenant.Resolver
	logger   *zap.Logger
}

// NewRunSQLTool creates the SQL tool.
func NewRunSQLTool(backend fabric.SessionBackend, resolver *tenant.Resolver, logger *zap.Logger) *RunSQLTool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunSQLTool{backend: backend, resolver: resolver, logger: logger}
}

func (t *RunSQLTool) Name() string { return "run_sql" }

func (t *RunSQLTool) Description() string {
	return "Executes a SQL statement against the user's database. " +
		"The statement runs inside the user's own schema; other schemas are not visible. " +
		"Returns the result rows, or a success marker for statements without a result set."
}

func (t *RunSQLTool) InputSchema() *tool.JSONSchema {
	return tool.NewObjectSchema(
		"Parameters for SQL execution",
		map[string]*tool.JSONSchema{
			"query": tool.NewStringSchema("The SQL statement to execute (required)"),
		},
		[]string{"query"},
	)
}

func (t *RunSQLTool) Mutating() bool { return true }

func (t *RunSQLTool) Execute(ctx context.Context, params map[string]interface{}) (*tool.Result, error) {
	query, ok := params["query"].(string)
	if !ok || query == "" {
		return tool.ErrorResult(sqlErrorPrefix, "query is required"), nil
	}

	tc := TurnContextFromContext(ctx)
	if tc == nil || tc.TenantID == "" {
		return tool.ErrorResult(securityErrorPrefix, "no tenant context; refusing to execute"), nil
	}

	sess, err := t.backend.Acquire(ctx)
	if err != nil {
		return tool.ErrorResult(sqlErrorPrefix, err.Error()), nil
	}
	defer sess.Release()

	if _, err := t.resolver.ResolveAndActivate(ctx, sess, tc.TenantID); err != nil {
		if errors.Is(err, tenant.ErrSchemaVerification) {
			return tool.ErrorResult(securityErrorPrefix, "failed to switch schema"), nil
		}
		return tool.ErrorResult(sqlErrorPrefix, err.Error()), nil
	}

	res, err := sess.Execute(ctx, query)
	if err != nil {
		return tool.ErrorResult(sqlErrorPrefix, err.Error()), nil
	}

	if res.Type == fabric.ResultTypeExec {
		return tool.ExecResult(), nil
	}
	return tool.RowsResult(res.Columns, res.Rows), nil
}

// RunCodeTool delegates code execution to the external sandboxed runner.
type RunCodeTool struct {
	runner runner.Runner
	logger *zap.Logger
}

// NewRunCodeTool creates the code-execution tool.
func NewRunCodeTool(r runner.Runner, logger *zap.Logger) *RunCodeTool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunCodeTool{runner: r, logger: logger}
}

func (t *RunCodeTool) Name() string { return "run_code" }

func (t *RunCodeTool) Description() string {
	return "Executes Python code in an isolated sandbox and returns captured stdout, " +
		"error text, and any produced images. The user's data file (if any) is " +
		"available to the code as 'csv_content'."
}

func (t *RunCodeTool) InputSchema() *tool.JSONSchema {
	return tool.NewObjectSchema(
		"Parameters for code execution",
		map[string]*tool.JSONSchema{
			"code": tool.NewStringSchema("The code to execute (required)"),
		},
		[]string{"code"},
	)
}

func (t *RunCodeTool) Mutating() bool { return true }

func (t *RunCodeTool) Execute(ctx context.Context, params map[string]interface{}) (*tool.Result, error) {
	code, ok := params["code"].(string)
	if !ok || code == "" {
		return tool.ErrorResult(tool.ErrorPrefix, "code is required"), nil
	}

	var dataSourceRef string
	tc := TurnContextFromContext(ctx)
	if tc != nil {
		dataSourceRef = tc.DataSourceRef
	}

	res, err := t.runner.Run(ctx, code, dataSourceRef)
	if err != nil {
		return tool.ErrorResult(tool.ErrorPrefix, err.Error()), nil
	}

	if tc != nil && tc.Artifacts != nil && len(res.Images) > 0 {
		tc.Artifacts.Add(res.Images...)
	}

	if res.Error != "" {
		out := tool.ErrorResult(tool.ErrorPrefix, res.Error)
		out.Images = res.Images
		return out, nil
	}

	out := tool.TextResult(res.Output)
	out.Images = res.Images
	if len(res.Images) > 0 {
		out.Text = fmt.Sprintf("%s\n[%d image(s) produced]", res.Output, len(res.Images))
	}
	return out, nil
}

// ReadBucketTool returns the opaque external data-bucket handle for the
// current turn, so the model can pass it along to code execution.
type ReadBucketTool struct{}

// NewReadBucketTool creates the bucket pass-through tool.
func NewReadBucketTool() *ReadBucketTool { return &ReadBucketTool{} }

func (t *ReadBucketTool) Name() string { return "read_bucket" }

func (t *ReadBucketTool) Description() string {
	return "Returns the reference handle of the user's external data bucket for this session."
}

func (t *ReadBucketTool) InputSchema() *tool.JSONSchema {
	return tool.NewObjectSchema("No parameters", map[string]*tool.JSONSchema{}, nil)
}

func (t *ReadBucketTool) Mutating() bool { return false }

func (t *ReadBucketTool) Execute(ctx context.Context, params map[string]interface{}) (*tool.Result, error) {
	tc := TurnContextFromContext(ctx)
	if tc == nil || tc.DataSourceRef == "" {
		return tool.TextResult("no data bucket is attached to this session"), nil
	}
	return tool.TextResult(tc.DataSourceRef), nil
}
