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
	"sync"

	"github.com/xbase-labs/xbase/pkg/fabric"
	"github.com/xbase-labs/xbase/pkg/llm"
	"github.com/xbase-labs/xbase/pkg/runner"
	"github.com/xbase-labs/xbase/pkg/tool"
)

// fakeProvider replays scripted responses for reasoning calls. Summarizer
// calls are answered separately so scripts only cover reasoning passes.
type fakeProvider struct {
	mu        sync.Mutex
	responses []*llm.LLMResponse
	err       error
	summErr   error

	chatCalls int
	messages  [][]llm.Message
	lastTools []tool.Tool
}

func (p *fakeProvider) Chat(ctx context.Context, messages []llm.Message, tools []tool.Tool) (*llm.LLMResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(messages) > 0 && messages[0].Role == "system" && messages[0].Content == summarizePrompt {
		if p.summErr != nil {
			return nil, p.summErr
		}
		return &llm.LLMResponse{Content: "summary line"}, nil
	}

	p.chatCalls++
	p.messages = append(p.messages, messages)
	p.lastTools = tools
	if p.err != nil {
		return nil, p.err
	}
	if len(p.responses) == 0 {
		return &llm.LLMResponse{Content: "ok"}, nil
	}
	resp := p.responses[0]
	p.responses = p.responses[1:]
	return resp, nil
}

func (p *fakeProvider) Name() string  { return "fake" }
func (p *fakeProvider) Model() string { return "fake-model" }

// scriptedSession emulates a postgres session: schema management
// statements are handled like the real backend would, everything else is
// recorded and answered from the script.
type scriptedSession struct {
	mu          sync.Mutex
	active      string
	verifyAs    string // overrides current_schema() when set
	userQueries []string
	activeAt    []string // active schema at the moment of each user query
	results     map[string]*fabric.QueryResult
	released    bool
}

func (s *scriptedSession) Execute(ctx context.Context, sql string) (*fabric.QueryResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case strings.HasPrefix(sql, "CREATE SCHEMA IF NOT EXISTS"):
		return &fabric.QueryResult{Type: fabric.ResultTypeExec}, nil
	case strings.HasPrefix(sql, "SET search_path TO "):
		s.active = strings.TrimPrefix(sql, "SET search_path TO ")
		return &fabric.QueryResult{Type: fabric.ResultTypeExec}, nil
	case strings.Contains(sql, "current_schema"):
		active := s.active
		if s.verifyAs != "" {
			active = s.verifyAs
		}
		return &fabric.QueryResult{
			Type: fabric.ResultTypeRows,
			Rows: [][]interface{}{{active}},
		}, nil
	}

	s.userQueries = append(s.userQueries, sql)
	s.activeAt = append(s.activeAt, s.active)
	if res, ok := s.results[sql]; ok {
		return res, nil
	}
	return &fabric.QueryResult{Type: fabric.ResultTypeExec, RowsAffected: 1}, nil
}

func (s *scriptedSession) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
}

func (s *scriptedSession) queryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.userQueries)
}

// fakeBackend hands out the same scripted session to every caller.
type fakeBackend struct {
	session *scriptedSession
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Acquire(ctx context.Context) (fabric.Session, error) {
	return b.session, nil
}

func (b *fakeBackend) Ping(ctx context.Context) error { return nil }
func (b *fakeBackend) Close() error                   { return nil }

// fakeRunner answers every run with a fixed result.
type fakeRunner struct {
	mu     sync.Mutex
	result *runner.ExecResult
	calls  int
	refs   []string
}

func (r *fakeRunner) Run(ctx context.Context, code string, dataSourceRef string) (*runner.ExecResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.refs = append(r.refs, dataSourceRef)
	if r.result != nil {
		return r.result, nil
	}
	return &runner.ExecResult{Output: "done", DataSourceRef: dataSourceRef}, nil
}
