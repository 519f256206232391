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

// Package builtin ships the minimum set of concrete tools needed to
// exercise the tool.Tool interface, schema generation, and the
// security gate end to end. It is not a tool catalogue.
package builtin

import (
	"context"
	"fmt"
	"go/constant"
	"go/token"
	"go/types"

	"github.com/kadirpekel/agentrt/pkg/agenterr"
	"github.com/kadirpekel/agentrt/pkg/tool"
)

// CalculatorArgs is the typed argument shape calculator derives its
// JSON Schema from.
type CalculatorArgs struct {
	Expression string `json:"expression" jsonschema:"required,description=arithmetic expression to evaluate, e.g. (2 + 3) * 4"`
}

// Calculator evaluates a basic arithmetic expression.
type Calculator struct{}

// NewCalculator builds the calculator tool.
func NewCalculator() *Calculator { return &Calculator{} }

func (c *Calculator) Descriptor() tool.Descriptor {
	return tool.Descriptor{
		ID:          "calculator",
		DisplayName: "Calculator",
		Description: "Evaluates an arithmetic expression and returns the numeric result.",
		InputSchema: tool.SchemaFor(CalculatorArgs{}),
	}
}

func (c *Calculator) Execute(_ context.Context, args map[string]any) (tool.Result, error) {
	expr, _ := args["expression"].(string)
	if expr == "" {
		return tool.Result{}, agenterr.New(agenterr.KindInvalidSpec, "calculator: expression argument is required")
	}

	value, err := evalArithmetic(expr)
	if err != nil {
		return tool.Result{Success: false, Error: err.Error()}, nil
	}
	return tool.Result{Output: value, Success: true}, nil
}

// evalArithmetic evaluates a constant arithmetic expression using
// go/types' constant evaluator, which safely supports +, -, *, /, %,
// parentheses, and numeric literals without invoking a general-purpose
// expression interpreter.
func evalArithmetic(expr string) (float64, error) {
	tv, err := types.Eval(token.NewFileSet(), nil, token.NoPos, expr)
	if err != nil {
		return 0, fmt.Errorf("calculator: invalid expression: %w", err)
	}
	if tv.Value == nil {
		return 0, fmt.Errorf("calculator: expression did not evaluate to a constant")
	}

	switch tv.Value.Kind() {
	case constant.Int, constant.Float:
	default:
		return 0, fmt.Errorf("calculator: expression is not numeric")
	}
	f, _ := constant.Float64Val(constant.ToFloat(tv.Value))
	return f, nil
}
