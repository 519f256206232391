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

package template_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentrt/pkg/agenterr"
	"github.com/kadirpekel/agentrt/pkg/template"
)

func testVars() template.Vars {
	return template.Vars{
		UserInput: "What should I wear?",
		Steps: []template.StepView{
			{
				Args:   map[string]any{"location": "Seoul"},
				Result: map[string]any{"temperature": 15, "condition": "sunny"},
			},
		},
		Context: map[string]any{"user_name": "jay"},
	}
}

func TestRender_ComplexTemplate(t *testing.T) {
	tmpl := `User {{ .Context.user_name }} asked: {{ .UserInput }}
Current weather in {{ (index .Steps 0).Args.location }}: {{ (index .Steps 0).Result.temperature }}C, {{ (index .Steps 0).Result.condition }}`

	out, err := template.Render(tmpl, testVars())
	require.NoError(t, err)
	assert.Contains(t, out, "User jay asked: What should I wear?")
	assert.Contains(t, out, "Current weather in Seoul: 15C, sunny")
}

func TestRender_WhitespaceVariations(t *testing.T) {
	vars := testVars()
	out1, err1 := template.Render("{{.UserInput}}", vars)
	out2, err2 := template.Render("{{ .UserInput }}", vars)
	out3, err3 := template.Render("{{  .UserInput  }}", vars)

	require.NoError(t, err1)
	require.NoError(t, err2)
	require.NoError(t, err3)
	assert.Equal(t, "What should I wear?", out1)
	assert.Equal(t, out1, out2)
	assert.Equal(t, out1, out3)
}

func TestRender_Filters(t *testing.T) {
	out, err := template.Render("{{ .Context.user_name | upper }}", testVars())
	require.NoError(t, err)
	assert.Equal(t, "JAY", out)
}

func TestRender_ParseErrorIsTemplateKind(t *testing.T) {
	_, err := template.Render("{{ .Unclosed", template.Vars{})
	require.Error(t, err)
	assert.Equal(t, agenterr.KindTemplate, agenterr.KindOf(err))
}

func TestRender_CachesParsedTemplates(t *testing.T) {
	const tmpl = "{{ .UserInput }}!"
	vars := testVars()
	out1, err := template.Render(tmpl, vars)
	require.NoError(t, err)
	out2, err := template.Render(tmpl, vars)
	require.NoError(t, err)
	assert.Equal(t, out1, out2)
}
