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

// Package pluginprovider implements tool.Provider over an
// out-of-process executable speaking hashicorp/go-plugin's classic
// net/rpc protocol (spec §4.6's "out-of-process executables" tool
// origin). net/rpc is used rather than the gRPC transport so this
// provider needs no protobuf/grpc dependency — just go-plugin and
// go-hclog, matching the teacher's own plugin host pattern in
// pkg/plugins/grpc/loader.go, adapted from gRPC to net/rpc.
package pluginprovider

import (
	"context"
	"encoding/json"
	"net/rpc"
	"os/exec"

	"github.com/hashicorp/go-hclog"
	goplugin "github.com/hashicorp/go-plugin"

	"github.com/kadirpekel/agentrt/pkg/agenterr"
	"github.com/kadirpekel/agentrt/pkg/tool"
)

// Handshake is the shared handshake both host and plugin binary must
// agree on. Real deployments would pin MagicCookieValue per plugin
// type; a single constant is enough to exercise the protocol here.
var Handshake = goplugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "AGENTRT_TOOL_PLUGIN",
	MagicCookieValue: "v1",
}

// ToolDescriptorWire is the wire shape of a tool.Descriptor sent over
// net/rpc (plain JSON-able fields only).
type ToolDescriptorWire struct {
	ID          string
	DisplayName string
	Description string
	SchemaJSON  string
}

// ExecuteArgs is the net/rpc argument for an Execute call.
type ExecuteArgs struct {
	ToolID  string
	ArgJSON string
}

// ExecuteReply is the net/rpc reply for an Execute call.
type ExecuteReply struct {
	OutputJSON string
	Success    bool
	Error      string
}

// RPCClient is the client-side stub go-plugin dispenses; it is also
// the interface a plugin binary's server must satisfy.
type RPCClient interface {
	ListTools() ([]ToolDescriptorWire, error)
	Execute(args ExecuteArgs) (ExecuteReply, error)
}

// netRPCClient adapts net/rpc's generic *rpc.Client to RPCClient.
type netRPCClient struct{ client *rpc.Client }

func (c *netRPCClient) ListTools() ([]ToolDescriptorWire, error) {
	var reply []ToolDescriptorWire
	err := c.client.Call("Plugin.ListTools", struct{}{}, &reply)
	return reply, err
}

func (c *netRPCClient) Execute(args ExecuteArgs) (ExecuteReply, error) {
	var reply ExecuteReply
	err := c.client.Call("Plugin.Execute", args, &reply)
	return reply, err
}

// ToolPlugin is the go-plugin Plugin implementation for the net/rpc
// transport; only the client side is needed in this host process.
type ToolPlugin struct{}

func (ToolPlugin) Server(*goplugin.MuxBroker) (any, error) {
	return nil, agenterr.New(agenterr.KindOther, "pluginprovider: Server side is implemented by the plugin binary, not the host")
}

func (ToolPlugin) Client(_ *goplugin.MuxBroker, c *rpc.Client) (any, error) {
	return &netRPCClient{client: c}, nil
}

// Config configures an out-of-process tool plugin binary.
type Config struct {
	Name string
	Path string
	Args []string
}

// Provider launches and manages a single plugin binary exposing one or
// more tools over net/rpc, trusted at TrustLow since it is an
// arbitrary external executable.
type Provider struct {
	cfg    Config
	client *goplugin.Client
	rpc    RPCClient
}

// New builds a Provider for the given plugin binary config.
func New(cfg Config) *Provider {
	return &Provider{cfg: cfg}
}

func (p *Provider) Name() string                { return p.cfg.Name }
func (p *Provider) TrustLevel() tool.TrustLevel { return tool.TrustLow }

func (p *Provider) connect() error {
	if p.client != nil {
		return nil
	}

	cmd := exec.Command(p.cfg.Path, p.cfg.Args...)
	client := goplugin.NewClient(&goplugin.ClientConfig{
		HandshakeConfig: Handshake,
		Plugins:         map[string]goplugin.Plugin{"tool": ToolPlugin{}},
		Cmd:             cmd,
		Logger:          hclog.NewNullLogger(),
		AllowedProtocols: []goplugin.Protocol{
			goplugin.ProtocolNetRPC,
		},
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return agenterr.Wrapf(agenterr.KindTool, err, "pluginprovider: connect to %q", p.cfg.Name)
	}
	raw, err := rpcClient.Dispense("tool")
	if err != nil {
		client.Kill()
		return agenterr.Wrapf(agenterr.KindTool, err, "pluginprovider: dispense tool plugin %q", p.cfg.Name)
	}
	wrapped, ok := raw.(RPCClient)
	if !ok {
		client.Kill()
		return agenterr.Newf(agenterr.KindTool, "pluginprovider: %q did not return an RPCClient", p.cfg.Name)
	}

	p.client = client
	p.rpc = wrapped
	return nil
}

// Close terminates the plugin subprocess.
func (p *Provider) Close() {
	if p.client != nil {
		p.client.Kill()
	}
}

// Tools connects to the plugin binary (if not already) and lists its
// advertised tools.
func (p *Provider) Tools(_ context.Context) ([]tool.Tool, error) {
	if err := p.connect(); err != nil {
		return nil, err
	}

	wire, err := p.rpc.ListTools()
	if err != nil {
		return nil, agenterr.Wrapf(agenterr.KindTool, err, "pluginprovider: list tools from %q", p.cfg.Name)
	}

	out := make([]tool.Tool, 0, len(wire))
	for _, w := range wire {
		var schema map[string]any
		if w.SchemaJSON != "" {
			_ = json.Unmarshal([]byte(w.SchemaJSON), &schema)
		}
		out = append(out, &pluginTool{
			provider: p,
			desc: tool.Descriptor{
				ID:          w.ID,
				DisplayName: w.DisplayName,
				Description: w.Description,
				InputSchema: schema,
			},
		})
	}
	return out, nil
}

type pluginTool struct {
	provider *Provider
	desc     tool.Descriptor
}

func (t *pluginTool) Descriptor() tool.Descriptor { return t.desc }

func (t *pluginTool) Execute(_ context.Context, args map[string]any) (tool.Result, error) {
	argJSON, err := json.Marshal(args)
	if err != nil {
		return tool.Result{}, agenterr.Wrap(agenterr.KindTool, "pluginprovider: encode args", err)
	}

	reply, err := t.provider.rpc.Execute(ExecuteArgs{ToolID: t.desc.ID, ArgJSON: string(argJSON)})
	if err != nil {
		return tool.Result{}, agenterr.Wrapf(agenterr.KindTool, err, "pluginprovider: execute %q", t.desc.ID)
	}

	var output any
	if reply.OutputJSON != "" {
		_ = json.Unmarshal([]byte(reply.OutputJSON), &output)
	}

	return tool.Result{Output: output, Success: reply.Success, Error: reply.Error}, nil
}
