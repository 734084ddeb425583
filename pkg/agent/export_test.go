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
	"strings"
	"testing"
)

func TestParseExportRequest(t *testing.T) {
	tests := []struct {
		query string
		table string
		ok    bool
	}{
		{"#export users", "users", true},
		{"  #export orders  ", "orders", true},
		{"please #export users", "users", true},
		{"can you #export orders for me", "orders", true},
		{"#export one two", "one", true},
		{"#export", "", false},
		{"export users", "", false},
		{"show me the users table", "", false},
	}
	for _, tt := range tests {
		table, ok := parseExportRequest(tt.query)
		if ok != tt.ok || table != tt.table {
			t.Errorf("parseExportRequest(%q) = (%q, %v), want (%q, %v)",
				tt.query, table, ok, tt.table, tt.ok)
		}
	}
}

func TestValidIdentifier(t *testing.T) {
	valid := []string{"users", "order_items", "T1", "_private"}
	for _, name := range valid {
		if !validIdentifier(name) {
			t.Errorf("Expected %q to be valid", name)
		}
	}
	invalid := []string{"", "1users", "users;drop", "users table", `users"`, "users.accounts"}
	for _, name := range invalid {
		if validIdentifier(name) {
			t.Errorf("Expected %q to be invalid", name)
		}
	}
}

func TestRenderCSV(t *testing.T) {
	out, err := renderCSV(
		[]string{"id", "name"},
		[][]interface{}{
			{1, "ada"},
			{2, nil},
			{3, "says \"hi\""},
		},
	)
	if err != nil {
		t.Fatalf("renderCSV failed: %v", err)
	}

	lines := strings.Split(out, "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected header + 3 rows, got %d lines: %q", len(lines), out)
	}
	if lines[0] != "id,name" {
		t.Errorf("Expected header id,name, got %q", lines[0])
	}
	if lines[2] != "2," {
		t.Errorf("Expected nil to render empty, got %q", lines[2])
	}
	if !strings.Contains(lines[3], `"says ""hi"""`) {
		t.Errorf("Expected csv quoting, got %q", lines[3])
	}
}

func TestRenderCSV_EmptyTable(t *testing.T) {
	out, err := renderCSV([]string{"id"}, nil)
	if err != nil {
		t.Fatalf("renderCSV failed: %v", err)
	}
	if out != "id" {
		t.Errorf("Empty table exports header only, got %q", out)
	}
}
