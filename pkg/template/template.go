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

// Package template renders the prompt and tool-argument templates used
// by the skill subsystem (spec §4.7) against a shared per-skill context:
// the user's input, the ordered results of prior steps, and a free-form
// extra context map.
package template

import (
	"strings"
	"sync"
	"text/template"

	"github.com/kadirpekel/agentrt/pkg/agenterr"
)

// StepView is the template-visible view of one already-executed step:
// its parsed result and the (already-rendered) arguments it ran with.
type StepView struct {
	Result any
	Args   any
}

// Vars is the root object templates render against:
//
//	{{ .UserInput }}
//	{{ (index .Steps 0).Result.temperature }}
//	{{ .Context.user_name | upper }}
type Vars struct {
	UserInput string
	Steps     []StepView
	Context   any
}

var funcs = template.FuncMap{
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"trim":  strings.TrimSpace,
}

// cache memoises parsed templates by source text: skill steps are
// re-rendered on every invocation of the skill, so parsing the same
// template string repeatedly would be wasted work.
var (
	cacheMu sync.Mutex
	cache   = map[string]*template.Template{}
)

// Render parses (or reuses a cached parse of) text and executes it
// against vars, returning a TemplateError-kind error on either parse or
// execution failure.
func Render(text string, vars Vars) (string, error) {
	tmpl, err := parse(text)
	if err != nil {
		return "", agenterr.Wrap(agenterr.KindTemplate, "template: parse", err)
	}

	var out strings.Builder
	if err := tmpl.Execute(&out, vars); err != nil {
		return "", agenterr.Wrap(agenterr.KindTemplate, "template: render", err)
	}
	return out.String(), nil
}

func parse(text string) (*template.Template, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if t, ok := cache[text]; ok {
		return t, nil
	}
	t, err := template.New("skill").Option("missingkey=zero").Funcs(funcs).Parse(text)
	if err != nil {
		return nil, err
	}
	cache[text] = t
	return t, nil
}
