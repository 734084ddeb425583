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

// Package fabric defines the execution backend contract for tenant
// databases. Backends hand out sticky sessions so that namespace
// activation and the queries that follow share one pooled connection.
package fabric

import "context"

// Result set type tags for QueryResult.Type.
const (
	// ResultTypeRows marks a statement that produced a result set,
	// possibly with zero rows.
	ResultTypeRows = "rows"

	// ResultTypeExec marks a statement with no result set (DDL/DML).
	ResultTypeExec = "exec"
)

// QueryResult is a normalized query outcome. Row values are plain Go
// values; driver-native row objects never cross this boundary.
type QueryResult struct {
	// Type is ResultTypeRows or ResultTypeExec. A SELECT matching nothing
	// is ResultTypeRows with empty Rows; the two cases must stay
	// distinguishable for callers.
	Type string

	// Columns holds result column names in order (ResultTypeRows only).
	Columns []string

	// Rows holds row values as ordered plain-value sequences.
	Rows [][]interface{}

	// RowsAffected is the modify count (ResultTypeExec only).
	RowsAffected int64

	// DurationMs is statement execution time.
	DurationMs int64
}

// Session is a single sticky database session. Session state set by one
// call (such as the active schema) remains visible to later calls on the
// same Session and must not be assumed for any other Session.
type Session interface {
	// Execute runs one SQL statement and normalizes its outcome.
	Execute(ctx context.Context, sql string) (*QueryResult, error)

	// Release returns the session to the pool. The session must not be
	// used afterwards.
	Release()
}

// SessionBackend is a pooled database access point.
type SessionBackend interface {
	// Name identifies the backend for logs.
	Name() string

	// Acquire checks a session out of the pool. Sessions are reused across
	// callers, so any per-tenant session state must be re-established and
	// re-verified by the caller on every acquisition.
	Acquire(ctx context.Context) (Session, error)

	// Ping verifies connectivity.
	Ping(ctx context.Context) error

	// Close releases all pooled resources.
	Close() error
}
