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
	"fmt"
	"strings"
)

const basePrompt = `You are a data assistant that helps the user work with their personal database.
You answer questions about the data, write and run SQL, and run analysis code when asked.

Rules you must always follow:
- The user's data lives in their own database schema. Never reference any other schema.
- Before any SQL or code runs, show the user the EXACT statement or code you intend to run and ask them to reply "Accept" to run it or "Decline" to cancel. Nothing executes without confirmation.
- When code execution is needed, produce complete, self-contained code.
- Keep replies short and direct. Do not speculate about data you have not seen.`

// buildSystemPrompt assembles the per-turn system prompt: the base rules,
// the data-source descriptor, retrieved reference snippets, and the
// rolling one-line history.
func buildSystemPrompt(dataSource string, snippets []string, history []string) string {
	var b strings.Builder
	b.WriteString(basePrompt)

	if dataSource != "" {
		b.WriteString("\n\nThe user's data source for this session:\n")
		b.WriteString(dataSource)
	}

	if len(snippets) > 0 {
		b.WriteString("\n\nReference material that may help with this query:\n")
		for _, s := range snippets {
			b.WriteString("---\n")
			b.WriteString(strings.TrimSpace(s))
			b.WriteString("\n")
		}
	}

	if len(history) > 0 {
		b.WriteString("\n\nSummary of the conversation so far, one line per completed exchange, oldest first:\n")
		for i, line := range history {
			fmt.Fprintf(&b, "%d. %s\n", i+1, line)
		}
	}

	return b.String()
}

const summarizePrompt = `Summarise the user's query and the assistant's reply into one concise line for conversation history. Output only the single line, nothing else.`

// maxFallbackSummary bounds the fallback summary length in runes.
const maxFallbackSummary = 160

// fallbackSummary derives a history line locally when the summarizer is
// unavailable. Newlines are stripped and the text is truncated.
func fallbackSummary(reply string) string {
	line := strings.TrimSpace(strings.ReplaceAll(reply, "\n", " "))
	runes := []rune(line)
	if len(runes) > maxFallbackSummary {
		line = string(runes[:maxFallbackSummary])
	}
	return line
}
