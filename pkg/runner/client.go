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

// Package runner talks to the external sandboxed code-execution service.
// The service is treated as untrusted and stateless: every failure mode
// (non-2xx, timeout, malformed body) becomes a structured error result,
// never a fault escaping the tool boundary.
package runner

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds one code execution round trip.
const DefaultTimeout = 30 * time.Second

// Runner is the code-execution capability consumed by the run_code tool.
type Runner interface {
	// Run executes code in the sandbox. The returned ExecResult carries
	// either captured output or a human-readable error; Run itself only
	// errors on programmer mistakes (nil context etc.), never on sandbox
	// failures.
	Run(ctx context.Context, code string, dataSourceRef string) (*ExecResult, error)
}

// ExecResult is the outcome of one sandboxed execution.
type ExecResult struct {
	// Output is captured standard output ("" on failure).
	Output string

	// Error is a human-readable failure description ("" on success). A
	// timeout only means the call did not confirm success; no partial
	// side effects are assumed.
	Error string

	// Images holds decoded visual artifacts produced by the execution.
	Images [][]byte

	// DataSourceRef is the pass-through handle for the external data
	// bucket, echoed back by the service.
	DataSourceRef string
}

// wire formats of the runner service.
type runRequest struct {
	Code          string `json:"code"`
	DataSourceRef string `json:"data_source_reference,omitempty"`
}

type runResponse struct {
	Output        *string  `json:"output"`
	Error         *string  `json:"error"`
	Images        []string `json:"images,omitempty"`
	DataSourceRef string   `json:"data_source_reference,omitempty"`
}

// Client is the HTTP transport for the runner service.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ Runner = (*Client)(nil)

// Config holds runner client configuration.
type Config struct {
	// Endpoint is the runner service URL (required).
	Endpoint string

	// Timeout bounds one execution round trip (default 30s).
	Timeout time.Duration
}

// NewClient creates a new runner client.
func NewClient(config Config, logger *zap.Logger) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("runner endpoint is required")
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint:   config.Endpoint,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}, nil
}

// Run executes code in the external sandbox.
func (c *Client) Run(ctx context.Context, code string, dataSourceRef string) (*ExecResult, error) {
	body, err := json.Marshal(runRequest{Code: code, DataSourceRef: dataSourceRef})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeout or network failure: structured error result, not a fault.
		c.logger.Warn("runner call failed", zap.Error(err))
		return &ExecResult{
			Error:         fmt.Sprintf("code runner unreachable: %v", err),
			DataSourceRef: dataSourceRef,
		}, nil
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ExecResult{
			Error:         fmt.Sprintf("failed to read runner response: %v", err),
			DataSourceRef: dataSourceRef,
		}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("runner returned error status",
			zap.Int("status", resp.StatusCode),
		)
		return &ExecResult{
			Error:         fmt.Sprintf("code runner returned status %d: %s", resp.StatusCode, truncate(string(respBody), 500)),
			DataSourceRef: dataSourceRef,
		}, nil
	}

	var wire runResponse
	if err := json.Unmarshal(respBody, &wire); err != nil {
		return &ExecResult{
			Error:         fmt.Sprintf("code runner returned malformed JSON: %v", err),
			DataSourceRef: dataSourceRef,
		}, nil
	}

	result := &ExecResult{DataSourceRef: wire.DataSourceRef}
	if result.DataSourceRef == "" {
		result.DataSourceRef = dataSourceRef
	}
	if wire.Output != nil {
		result.Output = *wire.Output
	}
	if wire.Error != nil {
		result.Error = *wire.Error
	}
	for _, img := range wire.Images {
		decoded, err := base64.StdEncoding.DecodeString(img)
		if err != nil {
			// Keep the artifact opaque rather than dropping the whole result
			decoded = []byte(img)
		}
		result.Images = append(result.Images, decoded)
	}
	return result, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
