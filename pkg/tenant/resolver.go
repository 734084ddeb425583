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

// Package tenant maps opaque tenant identifiers to isolated database
// schemas and activates them on a session before any query runs.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/xbase-labs/xbase/pkg/fabric"
)

// schemaPrefix keeps derived names clear of reserved schema names.
const schemaPrefix = "schema"

// ErrSchemaVerification is returned when the post-activation check does not
// match the expected schema. Execution must not proceed into an ambiguous
// namespace; callers fail closed on this error.
var ErrSchemaVerification = errors.New("security error: active schema does not match tenant schema")

// SchemaName derives the tenant's schema name from its opaque identifier.
// The transform is deterministic: every non-alphanumeric character becomes
// an underscore and the result is lowercased and prefixed.
func SchemaName(tenantID string) string {
	var b strings.Builder
	b.WriteString(schemaPrefix)
	for _, r := range strings.ToLower(tenantID) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

// Resolver activates tenant schemas on database sessions.
type Resolver struct {
	logger *zap.Logger
}

// NewResolver creates a new resolver.
func NewResolver(logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{logger: logger}
}

// ResolveAndActivate derives the tenant's schema name, creates the schema
// if absent, switches the session's search path to it, and verifies the
// switch took effect. The verification is repeated on every call: sessions
// are pooled and may carry a stale search path from a previous tenant.
func (r *Resolver) ResolveAndActivate(ctx context.Context, sess fabric.Session, tenantID string) (string, error) {
	if tenantID == "" {
		return "", fmt.Errorf("tenant id is required")
	}
	schema := SchemaName(tenantID)

	// Concurrent callers racing to create the same schema must both
	// succeed. IF NOT EXISTS does not fully close the race: the loser can
	// still see duplicate_schema or a pg_namespace unique violation, and
	// both mean the schema is there.
	if _, err := sess.Execute(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)); err != nil && !schemaAlreadyExists(err) {
		return "", fmt.Errorf("failed to ensure schema %s: %w", schema, err)
	}

	if _, err := sess.Execute(ctx, fmt.Sprintf("SET search_path TO %s", schema)); err != nil {
		return "", fmt.Errorf("failed to activate schema %s: %w", schema, err)
	}

	active, err := currentSchema(ctx, sess)
	if err != nil {
		return "", fmt.Errorf("failed to verify active schema: %w", err)
	}
	if active != schema {
		r.logger.Error("schema activation verification failed",
			zap.String("expected", schema),
			zap.String("active", active),
		)
		return "", fmt.Errorf("%w (expected %s, active %s)", ErrSchemaVerification, schema, active)
	}

	r.logger.Debug("tenant schema activated", zap.String("schema", schema))
	return schema, nil
}

// schemaAlreadyExists reports whether a CREATE SCHEMA failure means another
// session created the schema first (duplicate_schema 42P06, or a unique
// violation 23505 on pg_namespace).
func schemaAlreadyExists(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42P06" || pgErr.Code == "23505"
	}
	return false
}

// currentSchema reads the session's active schema.
func currentSchema(ctx context.Context, sess fabric.Session) (string, error) {
	res, err := sess.Execute(ctx, "SELECT current_schema()")
	if err != nil {
		return "", err
	}
	if res.Type != fabric.ResultTypeRows || len(res.Rows) == 0 || len(res.Rows[0]) == 0 {
		return "", fmt.Errorf("current_schema returned no rows")
	}
	name, ok := res.Rows[0][0].(string)
	if !ok {
		return "", fmt.Errorf("current_schema returned non-string value %T", res.Rows[0][0])
	}
	return name, nil
}
