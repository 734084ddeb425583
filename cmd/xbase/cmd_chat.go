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
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	chromem "github.com/philippgille/chromem-go"
	"github.com/spf13/cobra"

	"github.com/xbase-labs/xbase/internal/log"
	"github.com/xbase-labs/xbase/pkg/agent"
	"github.com/xbase-labs/xbase/pkg/backends/postgres"
	"github.com/xbase-labs/xbase/pkg/llm/factory"
	"github.com/xbase-labs/xbase/pkg/retrieval"
	"github.com/xbase-labs/xbase/pkg/runner"
	"github.com/xbase-labs/xbase/pkg/tenant"
)

var (
	chatTenantID   string
	chatDataSource string
	chatNoTools    bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive assistant session for one tenant",
	Long:  `Starts a read-eval loop against the configured database. Type "stop" to exit.`,
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatTenantID, "tenant", "", "tenant identifier (required)")
	chatCmd.Flags().StringVar(&chatDataSource, "data-source", "SQL:postgres", "data source descriptor (SQL:... or CSV:...)")
	chatCmd.Flags().BoolVar(&chatNoTools, "no-tools", false, "disable all tool execution for the session")
	_ = chatCmd.MarkFlagRequired("tenant")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx := cmd.Context()
	logger := log.Logger()
	defer func() { _ = log.Sync() }()

	orch, cleanup, err := buildOrchestrator(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	conv := &agent.Conversation{}
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	fmt.Println("xbase assistant ready. Type \"stop\" to exit.")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "stop") {
			break
		}

		result, err := orch.HandleTurn(ctx, agent.TurnRequest{
			TenantID:     chatTenantID,
			DataSource:   chatDataSource,
			Query:        line,
			Conversation: conv,
			ToolsAllowed: !chatNoTools,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "turn failed: %v\n", err)
			continue
		}
		fmt.Println(result.Reply)
		if n := len(result.Artifacts); n > 0 {
			fmt.Printf("(%d image artifact(s) produced)\n", n)
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("stdin read failed")
		return err
	}
	return nil
}

// buildOrchestrator wires the orchestrator from configuration. The
// returned cleanup closes the database pool.
func buildOrchestrator(ctx context.Context) (*agent.Orchestrator, func(), error) {
	logger := log.Logger()

	provider, err := factory.NewProvider(factory.Config{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		Endpoint:    cfg.LLM.Endpoint,
		Temperature: cfg.LLM.Temperature,
	})
	if err != nil {
		return nil, nil, err
	}

	backend, err := postgres.NewBackend(ctx, "tenantdb", postgres.Config{
		URL:         cfg.Database.URL,
		MaxPoolSize: int32(cfg.Database.MaxPoolSize),
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	opts := []agent.Option{
		agent.WithLogger(logger),
		agent.WithBackend(backend, tenant.NewResolver(logger)),
	}

	if cfg.Runner.Endpoint != "" {
		rc, err := runner.NewClient(runner.Config{
			Endpoint: cfg.Runner.Endpoint,
			Timeout:  cfg.Runner.RunnerTimeout(),
		}, logger)
		if err != nil {
			backend.Close()
			return nil, nil, err
		}
		opts = append(opts, agent.WithRunner(rc))
	}

	if cfg.Retrieval.Enabled {
		embedFn := chromem.NewEmbeddingFuncOpenAI(cfg.Retrieval.EmbeddingAPIKey,
			chromem.EmbeddingModelOpenAI(cfg.Retrieval.EmbeddingModel))
		store, err := retrieval.NewStore(cfg.DataDir, embedFn)
		if err != nil {
			backend.Close()
			return nil, nil, err
		}
		opts = append(opts, agent.WithRetriever(store))
	}

	orch, err := agent.NewOrchestrator(provider, opts...)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}
	return orch, func() { backend.Close() }, nil
}
