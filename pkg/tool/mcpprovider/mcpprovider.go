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

// Package mcpprovider implements tool.Provider over an MCP (Model
// Context Protocol) server reached via stdio subprocess transport,
// using mark3labs/mcp-go for the wire protocol. This is the "remote
// protocols" tool origin named in spec §4.6; sse/streamable-http
// transports are left to a future provider since the contract
// (tool.Provider) does not change between transports.
package mcpprovider

import (
	"context"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kadirpekel/agentrt/pkg/agenterr"
	"github.com/kadirpekel/agentrt/pkg/tool"
)

// Config configures a stdio-launched MCP server.
type Config struct {
	Name    string
	Command string
	Args    []string
	Env     map[string]string
	Filter  []string // empty = expose every tool the server lists
}

// Provider connects lazily to an MCP server on first Tools() call and
// exposes its tools as tool.Tool instances, trusted at TrustMedium
// since the server is an external, out-of-process collaborator.
type Provider struct {
	cfg Config

	mu        sync.Mutex
	client    *client.Client
	connected bool
	filterSet map[string]bool
}

// New builds a Provider for the given stdio MCP server config.
func New(cfg Config) *Provider {
	var filterSet map[string]bool
	if len(cfg.Filter) > 0 {
		filterSet = make(map[string]bool, len(cfg.Filter))
		for _, name := range cfg.Filter {
			filterSet[name] = true
		}
	}
	return &Provider{cfg: cfg, filterSet: filterSet}
}

func (p *Provider) Name() string            { return p.cfg.Name }
func (p *Provider) TrustLevel() tool.TrustLevel { return tool.TrustMedium }

// Tools connects lazily and lists the server's tools, filtered per
// Config.Filter.
func (p *Provider) Tools(ctx context.Context) ([]tool.Tool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected {
		if err := p.connect(ctx); err != nil {
			return nil, agenterr.Wrapf(agenterr.KindTool, err, "mcpprovider: connect to %q", p.cfg.Name)
		}
	}

	listResp, err := p.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, agenterr.Wrapf(agenterr.KindTool, err, "mcpprovider: list tools from %q", p.cfg.Name)
	}

	var out []tool.Tool
	for _, t := range listResp.Tools {
		if p.filterSet != nil && !p.filterSet[t.Name] {
			continue
		}
		out = append(out, &wrappedTool{
			provider: p,
			name:     t.Name,
			desc:     t.Description,
			schema:   convertSchema(t.InputSchema),
		})
	}
	return out, nil
}

func (p *Provider) connect(ctx context.Context) error {
	env := make([]string, 0, len(p.cfg.Env))
	for k, v := range p.cfg.Env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}

	c, err := client.NewStdioMCPClient(p.cfg.Command, env, p.cfg.Args...)
	if err != nil {
		return fmt.Errorf("create mcp client: %w", err)
	}
	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("start mcp client: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ClientInfo = mcp.Implementation{Name: "agentrt", Version: "0.1.0"}
	initReq.Params.ProtocolVersion = "2024-11-05"
	if _, err := c.Initialize(ctx, initReq); err != nil {
		c.Close()
		return fmt.Errorf("initialize mcp client: %w", err)
	}

	p.client = c
	p.connected = true
	return nil
}

func convertSchema(schema mcp.ToolInputSchema) map[string]any {
	out := map[string]any{"type": "object"}
	if schema.Properties != nil {
		out["properties"] = schema.Properties
	}
	if len(schema.Required) > 0 {
		out["required"] = schema.Required
	}
	return out
}

// wrappedTool adapts one MCP-server-advertised tool to tool.Tool.
type wrappedTool struct {
	provider *Provider
	name     string
	desc     string
	schema   map[string]any
}

func (w *wrappedTool) Descriptor() tool.Descriptor {
	return tool.Descriptor{
		ID:          w.name,
		DisplayName: w.name,
		Description: w.desc,
		InputSchema: w.schema,
	}
}

func (w *wrappedTool) Execute(ctx context.Context, args map[string]any) (tool.Result, error) {
	w.provider.mu.Lock()
	c := w.provider.client
	w.provider.mu.Unlock()

	if c == nil {
		return tool.Result{}, agenterr.Newf(agenterr.KindTool, "mcpprovider: %q not connected", w.name)
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = w.name
	req.Params.Arguments = args

	resp, err := c.CallTool(ctx, req)
	if err != nil {
		return tool.Result{}, agenterr.Wrapf(agenterr.KindTool, err, "mcpprovider: call %q", w.name)
	}

	var text string
	for _, content := range resp.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			text += tc.Text
		}
	}

	return tool.Result{
		Output:  text,
		Success: !resp.IsError,
	}, nil
}
