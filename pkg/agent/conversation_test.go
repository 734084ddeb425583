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

func TestIsAffirmative(t *testing.T) {
	affirmative := []string{
		"Accept", "accept", "ACCEPT", "yes", "Yes.", "y", "ok", "OK!",
		"  okay  ", "run it", "go ahead", "sure",
	}
	for _, reply := range affirmative {
		if !IsAffirmative(reply) {
			t.Errorf("Expected %q to be affirmative", reply)
		}
	}

	notAffirmative := []string{
		"maybe", "yes but change the table first", "what does it do?",
		"decline", "", "accepting applications",
	}
	for _, reply := range notAffirmative {
		if IsAffirmative(reply) {
			t.Errorf("Expected %q to NOT be affirmative", reply)
		}
	}
}

func TestIsNegative(t *testing.T) {
	negative := []string{"Decline", "no", "N", "cancel", "stop", "don't", "abort."}
	for _, reply := range negative {
		if !IsNegative(reply) {
			t.Errorf("Expected %q to be negative", reply)
		}
	}
	if IsNegative("not sure") {
		t.Error("Ambiguous reply must not count as a decline")
	}
}

func TestAppendSummary_SingleLine(t *testing.T) {
	conv := &Conversation{}
	conv.AppendSummary("user asked about sales\nand the answer\nwas 42")

	if len(conv.History) != 1 {
		t.Fatalf("Expected 1 history entry, got %d", len(conv.History))
	}
	if strings.Contains(conv.History[0], "\n") {
		t.Errorf("History entry must be a single line, got %q", conv.History[0])
	}
}

func TestFallbackSummary(t *testing.T) {
	long := strings.Repeat("word ", 100)
	got := fallbackSummary(long + "\n" + long)
	if strings.Contains(got, "\n") {
		t.Error("Fallback summary must be single-line")
	}
	if len([]rune(got)) > maxFallbackSummary {
		t.Errorf("Fallback summary too long: %d runes", len([]rune(got)))
	}

	if got := fallbackSummary("short reply"); got != "short reply" {
		t.Errorf("Short replies must pass through, got %q", got)
	}
}
