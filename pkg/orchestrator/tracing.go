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

package orchestrator

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracingConfig controls whether turns and tool calls emit OTel spans.
// The stdout exporter is used rather than an OTLP collector: this
// runtime is embedded (no sidecar assumed). Dependencies.Tracing only
// switches it on or off; Build has no way to take a host-supplied
// trace.TracerProvider.
type TracingConfig struct {
	Enabled bool
}

// InitTracerProvider builds a trace.TracerProvider per cfg. A disabled
// config returns a no-op provider so span creation is always safe to
// call unconditionally.
func InitTracerProvider(cfg TracingConfig) (trace.TracerProvider, error) {
	if !cfg.Enabled {
		return noop.NewTracerProvider(), nil
	}
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter)), nil
}

const tracerName = "github.com/kadirpekel/agentrt/pkg/orchestrator"

// Span attribute keys shared across turn and tool spans.
const (
	attrAgentName  = "agentrt.agent_name"
	attrState      = "agentrt.state"
	attrFinish     = "agentrt.finish_reason"
	attrToolName   = "agentrt.tool_name"
	attrIterations = "agentrt.tool_iterations"
)

func (o *Orchestrator) startTurnSpan(ctx context.Context, userInput string) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, "agentrt.turn",
		trace.WithAttributes(
			attribute.String(attrAgentName, o.spec.Name),
			attribute.String("agentrt.input_preview", truncate(userInput, 120)),
		),
	)
}

func (o *Orchestrator) startToolSpan(ctx context.Context, toolID string) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, "agentrt.tool_call",
		trace.WithAttributes(attribute.String(attrToolName, toolID)),
	)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
