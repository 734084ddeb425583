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
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/xbase-labs/xbase/pkg/fabric"
)

// exportMarker flags a bulk table export request. The reasoning engine is
// bypassed entirely for these: the table is dumped verbatim as CSV with no
// conversational framing.
const exportMarker = "#export"

// parseExportRequest extracts the table name from an export request, or
// returns ("", false) when the query is not one. The marker is recognized
// anywhere in the raw query text, not just at the start; the table is the
// first token following it.
func parseExportRequest(query string) (string, bool) {
	idx := strings.Index(query, exportMarker)
	if idx < 0 {
		return "", false
	}
	fields := strings.Fields(query[idx+len(exportMarker):])
	if len(fields) == 0 {
		return "", false
	}
	return fields[0], true
}

// validIdentifier accepts plain SQL identifiers only. The table name is
// interpolated into the statement, so anything else is rejected outright.
func validIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// exportTable dumps an entire table from the tenant's schema as CSV text:
// one header line, then one line per row.
func (o *Orchestrator) exportTable(ctx context.Context, tenantID, table string) (string, error) {
	if o.backend == nil || o.resolver == nil {
		return "", fmt.Errorf("no database backend configured")
	}
	if !validIdentifier(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}

	sess, err := o.backend.Acquire(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to acquire session: %w", err)
	}
	defer sess.Release()

	if _, err := o.resolver.ResolveAndActivate(ctx, sess, tenantID); err != nil {
		return "", err
	}

	res, err := sess.Execute(ctx, fmt.Sprintf("SELECT * FROM %s", table))
	if err != nil {
		return "", fmt.Errorf("failed to read table %s: %w", table, err)
	}
	if res.Type != fabric.ResultTypeRows {
		return "", fmt.Errorf("table %s produced no result set", table)
	}

	return renderCSV(res.Columns, res.Rows)
}

// renderCSV serializes a result set as CSV, header first.
func renderCSV(columns []string, rows [][]interface{}) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)

	if err := w.Write(columns); err != nil {
		return "", fmt.Errorf("failed to write csv header: %w", err)
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i := range record {
			if i < len(row) && row[i] != nil {
				record[i] = fmt.Sprintf("%v", row[i])
			} else {
				record[i] = ""
			}
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
