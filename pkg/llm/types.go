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

// Package llm defines provider-neutral reasoning engine types. Providers
// (anthropic, openai-compatible) translate these to their wire formats.
package llm

import (
	"context"

	"github.com/xbase-labs/xbase/pkg/tool"
)

// ToolCall represents a tool invocation requested by the LLM.
type ToolCall struct {
	// ID correlates the call to its result in the follow-up pass
	ID string

	// Name is the tool name
	Name string

	// Input contains the tool arguments as decoded JSON
	Input map[string]interface{}
}

// Message represents a single message in the conversation.
type Message struct {
	// Role is the message sender (system, user, assistant, tool)
	Role string

	// Content is the message text
	Content string

	// ToolCalls contains tool invocations (if role is assistant)
	ToolCalls []ToolCall

	// ToolCallID is the id of the call this result answers (if role is tool)
	ToolCallID string
}

// Usage tracks LLM token usage.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// LLMResponse represents a response from the LLM.
type LLMResponse struct {
	// Content is the text response (possibly alongside tool calls)
	Content string

	// ToolCalls contains requested tool executions
	ToolCalls []ToolCall

	// StopReason indicates why the LLM stopped
	StopReason string

	// Usage tracks token usage
	Usage Usage
}

// Provider defines the interface for LLM providers.
type Provider interface {
	// Chat sends a conversation to the LLM and returns the response.
	// Pass an empty tool slice for tool-free invocations (summarization,
	// second-pass synthesis).
	Chat(ctx context.Context, messages []Message, tools []tool.Tool) (*LLMResponse, error)

	// Name returns the provider name
	Name() string

	// Model returns the model identifier
	Model() string
}
