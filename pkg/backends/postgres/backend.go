// Copyright © 2026 XBase Labs - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package postgres provides a fabric.SessionBackend implementation backed
// by a pgx/v5 connection pool.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xbase-labs/xbase/pkg/fabric"
)

// maxResultRows is the safety limit for SELECT query results to prevent OOM.
const maxResultRows = 10000

// Compile-time interface check
var _ fabric.SessionBackend = (*Backend)(nil)

// Backend implements fabric.SessionBackend for PostgreSQL.
type Backend struct {
	pool   *pgxpool.Pool
	name   string
	logger *zap.Logger
}

// Config holds connection configuration.
type Config struct {
	// URL is the postgres connection string.
	URL string

	// MaxPoolSize caps pooled connections (default 10).
	MaxPoolSize int32
}

// NewBackend creates a new postgres backend and verifies connectivity.
func NewBackend(ctx context.Context, name string, config Config, logger *zap.Logger) (*Backend, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("database URL is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	poolConfig, err := pgxpool.ParseConfig(config.URL)
	if err != nil {
		// Don't wrap the original error as it may contain credentials
		return nil, fmt.Errorf("invalid connection config for backend %s", name)
	}

	maxPoolSize := int32(10)
	if config.MaxPoolSize > 0 {
		maxPoolSize = config.MaxPoolSize
	}
	poolConfig.MaxConns = maxPoolSize
	poolConfig.HealthCheckPeriod = 30 * time.Second
	poolConfig.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to backend %s: %w", name, err)
	}

	logger.Info("postgres backend connected",
		zap.String("name", name),
		zap.Int32("max_pool_size", maxPoolSize),
	)

	return &Backend{pool: pool, name: name, logger: logger}, nil
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return b.name
}

// Acquire checks a connection out of the pool as a sticky session.
func (b *Backend) Acquire(ctx context.Context) (fabric.Session, error) {
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire session: %w", err)
	}
	return &session{conn: conn, logger: b.logger}, nil
}

// Ping verifies connectivity.
func (b *Backend) Ping(ctx context.Context) error {
	return b.pool.Ping(ctx)
}

// Close releases the pool.
func (b *Backend) Close() error {
	b.pool.Close()
	return nil
}

// session wraps one pooled connection.
type session struct {
	conn   *pgxpool.Conn
	logger *zap.Logger
}

// Execute runs one SQL statement on this session and normalizes the result.
func (s *session) Execute(ctx context.Context, query string) (*fabric.QueryResult, error) {
	start := time.Now()
	query = strings.TrimSpace(query)

	if isSelectQuery(query) {
		return s.executeSelect(ctx, query, start)
	}
	return s.executeModify(ctx, query, start)
}

func (s *session) executeSelect(ctx context.Context, query string, start time.Time) (*fabric.QueryResult, error) {
	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	cols := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		cols[i] = fd.Name
	}

	resultRows := make([][]interface{}, 0)
	for rows.Next() {
		if len(resultRows) >= maxResultRows {
			s.logger.Warn("query result truncated at row limit",
				zap.Int("limit", maxResultRows),
				zap.String("query_prefix", truncateQuery(query, 100)),
			)
			break
		}
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}
		row := make([]interface{}, len(values))
		copy(row, values)
		resultRows = append(resultRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return &fabric.QueryResult{
		Type:       fabric.ResultTypeRows,
		Columns:    cols,
		Rows:       resultRows,
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

func (s *session) executeModify(ctx context.Context, query string, start time.Time) (*fabric.QueryResult, error) {
	tag, err := s.conn.Exec(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	return &fabric.QueryResult{
		Type:         fabric.ResultTypeExec,
		RowsAffected: tag.RowsAffected(),
		DurationMs:   time.Since(start).Milliseconds(),
	}, nil
}

// Release returns the connection to the pool.
func (s *session) Release() {
	s.conn.Release()
}

// isSelectQuery reports whether the statement produces a result set.
func isSelectQuery(query string) bool {
	upper := strings.ToUpper(strings.TrimSpace(query))
	return strings.HasPrefix(upper, "SELECT") ||
		strings.HasPrefix(upper, "WITH") ||
		strings.HasPrefix(upper, "SHOW") ||
		strings.HasPrefix(upper, "EXPLAIN")
}

func truncateQuery(query string, maxLen int) string {
	if len(query) <= maxLen {
		return query
	}
	return query[:maxLen] + "..."
}
