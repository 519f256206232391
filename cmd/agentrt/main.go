// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command agentrt is a single-shot chat runner for an agent spec: it
// loads one AgentSpec, builds an Orchestrator, sends one message, and
// prints the response. It is deliberately not a REPL or a server —
// embedding hosts drive pkg/orchestrator directly for anything more.
//
// Usage:
//
//	agentrt chat --config agent.yaml "what's the weather in Paris?"
//	agentrt chat --config agent.yaml --stream "tell me a story"
//	agentrt info --config agent.yaml
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/kadirpekel/agentrt/pkg/config"
	"github.com/kadirpekel/agentrt/pkg/logger"
	"github.com/kadirpekel/agentrt/pkg/orchestrator"
	"github.com/kadirpekel/agentrt/pkg/session"
)

// CLI is the top-level kong command tree.
type CLI struct {
	Chat ChatCmd `cmd:"" help:"Send one message to the agent and print its response."`
	Info InfoCmd `cmd:"" help:"Show the agent's declared identity."`

	Config   string `short:"c" required:"" help:"Path to the agent spec YAML file." type:"path"`
	LogLevel string `help:"Log level (debug, info, warn, error)." default:"info"`
}

// ChatCmd runs a single turn and prints the result.
type ChatCmd struct {
	Message string `arg:"" help:"The message to send."`
	Stream  bool   `help:"Stream the response token-by-token instead of waiting for completion."`
}

func (c *ChatCmd) Run(cli *CLI) error {
	ctx := context.Background()

	spec, loader, err := config.LoadConfigFile(ctx, cli.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if loader != nil {
		defer loader.Close()
	}

	agent, err := orchestrator.Build(ctx, spec, orchestrator.Dependencies{})
	if err != nil {
		return fmt.Errorf("build agent: %w", err)
	}

	if !c.Stream {
		resp, err := agent.Chat(ctx, c.Message)
		if err != nil {
			return fmt.Errorf("chat: %w", err)
		}
		fmt.Println(resp.Content)
		return nil
	}

	chunks, err := agent.ChatStream(ctx, c.Message)
	if err != nil {
		return fmt.Errorf("chat stream: %w", err)
	}
	for chunk := range chunks {
		switch chunk.Kind {
		case session.ChunkContent:
			fmt.Print(chunk.Text)
		case session.ChunkError:
			fmt.Fprintln(os.Stderr, chunk.Message)
		}
	}
	fmt.Println()
	return nil
}

// InfoCmd prints the agent's static identity.
type InfoCmd struct{}

func (c *InfoCmd) Run(cli *CLI) error {
	ctx := context.Background()

	spec, loader, err := config.LoadConfigFile(ctx, cli.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if loader != nil {
		defer loader.Close()
	}

	agent, err := orchestrator.Build(ctx, spec, orchestrator.Dependencies{})
	if err != nil {
		return fmt.Errorf("build agent: %w", err)
	}

	info := agent.Info()
	fmt.Printf("Name:        %s\n", info.Name)
	if info.Version != "" {
		fmt.Printf("Version:     %s\n", info.Version)
	}
	if info.Description != "" {
		fmt.Printf("Description: %s\n", info.Description)
	}
	return nil
}

func main() {
	_ = config.LoadEnvFiles()

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("agentrt"),
		kong.Description("agentrt - single-shot runner for an LLM agent spec"),
		kong.UsageOnError(),
	)

	level, err := logger.ParseLevel(cli.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	logger.Init(level, os.Stderr, "simple")

	runErr := ctx.Run(&cli)
	ctx.FatalIfErrorf(runErr)
}
