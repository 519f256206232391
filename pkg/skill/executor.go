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

package skill

import (
	"context"
	"encoding/json"

	"github.com/kadirpekel/agentrt/pkg/agenterr"
	"github.com/kadirpekel/agentrt/pkg/llm"
	"github.com/kadirpekel/agentrt/pkg/message"
	"github.com/kadirpekel/agentrt/pkg/template"
	"github.com/kadirpekel/agentrt/pkg/tool"
)

// Executor runs a Definition's steps in order against the shared LLM
// registry, tool registry, and tool harness.
type Executor struct {
	LLM     *llm.Registry
	Tools   *tool.Registry
	Harness *tool.Harness
}

// NewExecutor builds an Executor.
func NewExecutor(llmRegistry *llm.Registry, tools *tool.Registry, harness *tool.Harness) *Executor {
	return &Executor{LLM: llmRegistry, Tools: tools, Harness: harness}
}

// Execute runs skill's steps against userInput, threading extra through
// the template context as `.Context`. The last step must be a prompt
// step; its response is returned as the skill's textual output. Any
// tool-step failure aborts the skill with a Skill-kind error.
func (e *Executor) Execute(ctx context.Context, def Definition, userInput string, extra any) (string, error) {
	sctx := NewContext(userInput, extra)

	for i, step := range def.Steps {
		switch {
		case step.IsTool():
			if err := e.runToolStep(ctx, i, *step.Tool, sctx); err != nil {
				return "", err
			}
		case step.IsPrompt():
			text, done, err := e.runPromptStep(ctx, i, len(def.Steps), *step.Prompt, sctx)
			if err != nil {
				return "", err
			}
			if done {
				return text, nil
			}
		default:
			return "", agenterr.New(agenterr.KindSkill, "skill: step has neither tool nor prompt")
		}
	}

	return "", agenterr.New(agenterr.KindSkill, "skill has no prompt step to generate a response")
}

func (e *Executor) runToolStep(ctx context.Context, index int, step ToolStep, sctx *Context) error {
	renderedArgs, err := renderArgs(step.Args, sctx)
	if err != nil {
		return err
	}

	t, err := e.Tools.Find(step.Tool)
	if err != nil {
		return agenterr.Wrapf(agenterr.KindSkill, err, "skill: tool %q not found", step.Tool)
	}

	result, err := e.Harness.Execute(ctx, t, renderedArgs)
	if err != nil {
		return agenterr.Wrapf(agenterr.KindSkill, err, "skill: tool %q execution failed", step.Tool)
	}

	resultValue := parseToolResult(result)
	sctx.AddResult(index, renderedArgs, resultValue)

	if !result.Success {
		return agenterr.Newf(agenterr.KindSkill, "tool %q failed: %v", step.Tool, result.Error)
	}
	return nil
}

func (e *Executor) runPromptStep(ctx context.Context, index, total int, step PromptStep, sctx *Context) (string, bool, error) {
	renderedPrompt, err := renderPrompt(step.Prompt, sctx)
	if err != nil {
		return "", false, err
	}

	provider, err := e.resolveProvider(step.LLM)
	if err != nil {
		return "", false, err
	}

	resp, err := provider.Complete(ctx, []message.ChatMessage{message.User(renderedPrompt)}, llm.Config{})
	if err != nil {
		return "", false, agenterr.Wrap(agenterr.KindSkill, "skill: prompt step LLM call failed", err)
	}

	sctx.AddResult(index, nil, resp.Text)

	if index == total-1 {
		return resp.Text, true, nil
	}
	return "", false, nil
}

func (e *Executor) resolveProvider(alias string) (llm.Provider, error) {
	if alias != "" {
		return e.LLM.Resolve(alias)
	}
	return e.LLM.Default()
}

// parseToolResult parses a tool's raw output as JSON if possible, else
// wraps it as {output, success}.
func parseToolResult(result tool.Result) any {
	text, ok := result.Output.(string)
	if !ok {
		return map[string]any{"output": result.Output, "success": result.Success}
	}
	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err == nil {
		return parsed
	}
	return map[string]any{"output": result.Output, "success": result.Success}
}

// renderArgs template-renders every string leaf of a tool step's
// argument tree against sctx, recursing through nested maps/slices.
func renderArgs(args map[string]any, sctx *Context) (map[string]any, error) {
	if args == nil {
		return map[string]any{}, nil
	}
	rendered, err := renderValue(args, sctx)
	if err != nil {
		return nil, err
	}
	out, _ := rendered.(map[string]any)
	return out, nil
}

func renderValue(value any, sctx *Context) (any, error) {
	switch v := value.(type) {
	case string:
		return renderPrompt(v, sctx)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, child := range v {
			rendered, err := renderValue(child, sctx)
			if err != nil {
				return nil, err
			}
			out[k] = rendered
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, child := range v {
			rendered, err := renderValue(child, sctx)
			if err != nil {
				return nil, err
			}
			out[i] = rendered
		}
		return out, nil
	default:
		return v, nil
	}
}

func renderPrompt(tmpl string, sctx *Context) (string, error) {
	steps := make([]template.StepView, len(sctx.StepResults))
	for i, r := range sctx.StepResults {
		steps[i] = template.StepView{Result: r.Result, Args: r.Args}
	}
	return template.Render(tmpl, template.Vars{
		UserInput: sctx.UserInput,
		Steps:     steps,
		Context:   sctx.Extra,
	})
}
