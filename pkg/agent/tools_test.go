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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xbase-labs/xbase/pkg/fabric"
	"github.com/xbase-labs/xbase/pkg/runner"
	"github.com/xbase-labs/xbase/pkg/tenant"
	"github.com/xbase-labs/xbase/pkg/tool"
)

func sqlToolContext(tenantID string) context.Context {
	return WithTurnContext(context.Background(), &TurnContext{
		TenantID:      tenantID,
		DataSourceRef: "SQL:postgres",
		Artifacts:     NewArtifactCollector(),
	})
}

func TestRunSQLTool_Rows(t *testing.T) {
	session := &scriptedSession{results: map[string]*fabric.QueryResult{
		"SELECT 1": {Type: fabric.ResultTypeRows, Columns: []string{"?column?"}, Rows: [][]interface{}{{1}}},
	}}
	sqlTool := NewRunSQLTool(&fakeBackend{session: session}, tenant.NewResolver(nil), nil)

	res, err := sqlTool.Execute(sqlToolContext("tenant-a"), map[string]interface{}{"query": "SELECT 1"})
	require.NoError(t, err)
	assert.Equal(t, tool.ResultRows, res.Kind)
	assert.Equal(t, []string{"?column?"}, res.Columns)
	assert.True(t, session.released, "session must return to the pool")
}

func TestRunSQLTool_ExecSentinel(t *testing.T) {
	session := &scriptedSession{}
	sqlTool := NewRunSQLTool(&fakeBackend{session: session}, tenant.NewResolver(nil), nil)

	res, err := sqlTool.Execute(sqlToolContext("tenant-a"), map[string]interface{}{"query": "CREATE TABLE t (id int)"})
	require.NoError(t, err)
	assert.Equal(t, tool.ResultExec, res.Kind)
	assert.Equal(t, "Query executed", res.Transcript())
}

func TestRunSQLTool_NoTenant(t *testing.T) {
	sqlTool := NewRunSQLTool(&fakeBackend{session: &scriptedSession{}}, tenant.NewResolver(nil), nil)

	res, err := sqlTool.Execute(context.Background(), map[string]interface{}{"query": "SELECT 1"})
	require.NoError(t, err)
	require.True(t, res.IsError())
	assert.True(t, strings.HasPrefix(res.Text, securityErrorPrefix), "missing tenant is a security refusal, got %q", res.Text)
}

func TestRunSQLTool_SchemaVerificationFailure(t *testing.T) {
	// current_schema keeps reporting another tenant's schema.
	session := &scriptedSession{verifyAs: "schemaother"}
	sqlTool := NewRunSQLTool(&fakeBackend{session: session}, tenant.NewResolver(nil), nil)

	res, err := sqlTool.Execute(sqlToolContext("tenant-a"), map[string]interface{}{"query": "SELECT 1"})
	require.NoError(t, err)
	require.True(t, res.IsError())
	assert.True(t, strings.HasPrefix(res.Text, securityErrorPrefix))
	assert.Equal(t, 0, session.queryCount(), "no statement may run in an unverified namespace")
}

func TestRunSQLTool_SessionReuseAcrossTenants(t *testing.T) {
	// One pooled session serves two tenants in sequence; every call must
	// run inside its own tenant's schema, never the previous one's.
	session := &scriptedSession{}
	sqlTool := NewRunSQLTool(&fakeBackend{session: session}, tenant.NewResolver(nil), nil)

	_, err := sqlTool.Execute(sqlToolContext("tenant-a"), map[string]interface{}{"query": "INSERT INTO t VALUES (1)"})
	require.NoError(t, err)
	_, err = sqlTool.Execute(sqlToolContext("tenant-b"), map[string]interface{}{"query": "INSERT INTO t VALUES (2)"})
	require.NoError(t, err)

	require.Equal(t, []string{"schematenant_a", "schematenant_b"}, session.activeAt)
}

func TestRunSQLTool_MissingQuery(t *testing.T) {
	sqlTool := NewRunSQLTool(&fakeBackend{session: &scriptedSession{}}, tenant.NewResolver(nil), nil)

	res, err := sqlTool.Execute(sqlToolContext("tenant-a"), map[string]interface{}{})
	require.NoError(t, err)
	assert.True(t, res.IsError())
}

func TestRunCodeTool_Success(t *testing.T) {
	img := []byte("fakeimg")
	run := &fakeRunner{result: &runner.ExecResult{Output: "42", Images: [][]byte{img}}}
	codeTool := NewRunCodeTool(run, nil)

	tc := &TurnContext{DataSourceRef: "CSV:data.csv", Artifacts: NewArtifactCollector()}
	ctx := WithTurnContext(context.Background(), tc)

	res, err := codeTool.Execute(ctx, map[string]interface{}{"code": "print(42)"})
	require.NoError(t, err)
	assert.False(t, res.IsError())
	assert.Contains(t, res.Text, "42")
	assert.Equal(t, 1, tc.Artifacts.Count(), "images flow into the collector")
	assert.Equal(t, []string{"CSV:data.csv"}, run.refs)
}

func TestRunCodeTool_RunnerError(t *testing.T) {
	run := &fakeRunner{result: &runner.ExecResult{Error: "NameError: x is not defined"}}
	codeTool := NewRunCodeTool(run, nil)

	res, err := codeTool.Execute(sqlToolContext("tenant-a"), map[string]interface{}{"code": "x"})
	require.NoError(t, err)
	require.True(t, res.IsError())
	assert.True(t, strings.HasPrefix(res.Text, tool.ErrorPrefix))
	assert.Contains(t, res.Text, "NameError")
}

func TestReadBucketTool(t *testing.T) {
	bucketTool := NewReadBucketTool()
	assert.False(t, bucketTool.Mutating())

	res, err := bucketTool.Execute(sqlToolContext("tenant-a"), nil)
	require.NoError(t, err)
	assert.Equal(t, "SQL:postgres", res.Text)

	res, err = bucketTool.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, res.Text, "no data bucket")
}
