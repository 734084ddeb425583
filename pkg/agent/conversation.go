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

	"github.com/xbase-labs/xbase/pkg/llm"
)

// ActionState tracks a proposed state-changing action through the
// confirmation handshake.
type ActionState int

const (
	// StateProposed: the model produced action text but has not been told
	// to run it.
	StateProposed ActionState = iota

	// StateConfirmed: the user replied affirmatively; the action may be
	// dispatched exactly once.
	StateConfirmed

	// StateDeclined: the user replied negatively; the action is dropped.
	StateDeclined
)

// PendingAction is the explicit record of a proposed state-changing tool
// call awaiting user confirmation. Storing it here, rather than relying on
// the reasoning engine to remember the protocol, makes the gate
// enforceable by the orchestrator alone.
type PendingAction struct {
	State ActionState

	// Calls are the tool calls awaiting confirmation, in source order.
	Calls []llm.ToolCall

	// ActionText is the literal action text shown to the user (e.g. the
	// exact SQL).
	ActionText string

	// ProposedAtTurn records which turn produced the proposal.
	ProposedAtTurn int
}

// Conversation is per-session state owned by the caller. The core mutates
// it during HandleTurn but never persists it. A single Conversation must
// not be driven by two concurrent turns; the caller serializes.
type Conversation struct {
	// History holds one-line summaries of completed turns, oldest first.
	// Full transcripts and tool outputs are never stored here.
	History []string

	// Pending is the action awaiting confirmation, nil when none.
	Pending *PendingAction

	// Turn counts completed turns.
	Turn int
}

// AppendSummary appends one summary line, enforcing the single-line
// invariant regardless of what the summarizer produced.
func (c *Conversation) AppendSummary(summary string) {
	summary = strings.TrimSpace(strings.ReplaceAll(summary, "\n", " "))
	c.History = append(c.History, summary)
}

// affirmativeReplies is the fixed lexicon recognizing confirmation. A
// fixed set keeps the gate deterministic; anything unrecognized is treated
// as a fresh query, never as consent.
var affirmativeReplies = map[string]bool{
	"accept":   true,
	"yes":      true,
	"y":        true,
	"ok":       true,
	"okay":     true,
	"confirm":  true,
	"run it":   true,
	"do it":    true,
	"go ahead": true,
	"sure":     true,
}

var negativeReplies = map[string]bool{
	"decline": true,
	"no":      true,
	"n":       true,
	"cancel":  true,
	"stop":    true,
	"don't":   true,
	"dont":    true,
	"abort":   true,
}

func normalizeReply(reply string) string {
	reply = strings.ToLower(strings.TrimSpace(reply))
	return strings.TrimRight(reply, ".!")
}

// IsAffirmative reports whether a user reply is an explicit confirmation.
func IsAffirmative(reply string) bool {
	return affirmativeReplies[normalizeReply(reply)]
}

// IsNegative reports whether a user reply is an explicit decline.
func IsNegative(reply string) bool {
	return negativeReplies[normalizeReply(reply)]
}
