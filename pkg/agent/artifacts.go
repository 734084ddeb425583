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
	"sync"
)

// ArtifactCollector accumulates opaque visual artifacts (encoded image
// blobs) produced by code-execution tools during a turn. Safe for
// concurrent use; tool calls within a turn may run in parallel.
type ArtifactCollector struct {
	mu     sync.Mutex
	images [][]byte
}

// NewArtifactCollector creates an empty collector.
func NewArtifactCollector() *ArtifactCollector {
	return &ArtifactCollector{}
}

// Add appends artifacts to the collector.
func (a *ArtifactCollector) Add(images ...[]byte) {
	if len(images) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.images = append(a.images, images...)
}

// Images returns a copy of the collected artifacts.
func (a *ArtifactCollector) Images() [][]byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([][]byte, len(a.images))
	copy(out, a.images)
	return out
}

// Count returns how many artifacts were collected.
func (a *ArtifactCollector) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.images)
}

// turnContextKey keys the per-turn context value.
type turnContextKey struct{}

// TurnContext carries per-turn values tools need but the reasoning engine
// never supplies: the tenant identity for SQL scoping, the data-source
// handle for code execution, and the shared artifact collector.
type TurnContext struct {
	TenantID      string
	DataSourceRef string
	Artifacts     *ArtifactCollector
}

// WithTurnContext attaches turn state to the context for tool access.
func WithTurnContext(ctx context.Context, tc *TurnContext) context.Context {
	return context.WithValue(ctx, turnContextKey{}, tc)
}

// TurnContextFromContext extracts the turn state, nil if absent.
func TurnContextFromContext(ctx context.Context) *TurnContext {
	tc, _ := ctx.Value(turnContextKey{}).(*TurnContext)
	return tc
}
