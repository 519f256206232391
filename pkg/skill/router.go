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
	"fmt"
	"strings"

	"github.com/kadirpekel/agentrt/pkg/agenterr"
	"github.com/kadirpekel/agentrt/pkg/llm"
	"github.com/kadirpekel/agentrt/pkg/message"
)

// Router picks at most one skill to run for a given turn, by asking the
// router LLM to choose among a (possibly state-filtered) set of
// candidate skills.
type Router struct {
	LLM    llm.Provider
	skills []Definition
}

// NewRouter builds a Router over the given candidate skills.
func NewRouter(provider llm.Provider, skills []Definition) *Router {
	return &Router{LLM: provider, skills: skills}
}

// AddSkill appends a skill to the router's candidate set.
func (r *Router) AddSkill(def Definition) { r.skills = append(r.skills, def) }

// Skills returns the router's full candidate set.
func (r *Router) Skills() []Definition { return r.skills }

// GetSkill looks up a skill by id among the router's candidates.
func (r *Router) GetSkill(id string) (Definition, bool) {
	for _, s := range r.skills {
		if s.ID == id {
			return s, true
		}
	}
	return Definition{}, false
}

// Select asks the router LLM to pick one skill id from the router's
// full candidate set, or none.
func (r *Router) Select(ctx context.Context, userInput string) (string, bool, error) {
	return r.selectFrom(ctx, userInput, r.skills)
}

// SelectFiltered restricts candidates to allowedIDs (e.g. the current
// state's allowed skill list) before asking the router LLM to pick.
func (r *Router) SelectFiltered(ctx context.Context, userInput string, allowedIDs []string) (string, bool, error) {
	if len(allowedIDs) == 0 {
		return "", false, nil
	}
	allowed := make(map[string]bool, len(allowedIDs))
	for _, id := range allowedIDs {
		allowed[id] = true
	}
	var filtered []Definition
	for _, s := range r.skills {
		if allowed[s.ID] {
			filtered = append(filtered, s)
		}
	}
	return r.selectFrom(ctx, userInput, filtered)
}

func (r *Router) selectFrom(ctx context.Context, userInput string, candidates []Definition) (string, bool, error) {
	if len(candidates) == 0 {
		return "", false, nil
	}
	if r.LLM == nil {
		return "", false, agenterr.New(agenterr.KindConfig, "skill: router has no LLM provider")
	}

	var desc strings.Builder
	for _, s := range candidates {
		fmt.Fprintf(&desc, "- %s: %s (trigger: %s)\n", s.ID, s.Description, s.Trigger)
	}

	prompt := fmt.Sprintf(`Analyze the user input and select an appropriate skill.

Available skills:
%s
User input: %q

Return ONLY the skill id if one matches. Return "none" if no skill matches.
Do not include any explanation.`, desc.String(), userInput)

	resp, err := r.LLM.Complete(ctx, []message.ChatMessage{message.User(prompt)}, llm.Config{})
	if err != nil {
		return "", false, agenterr.Wrap(agenterr.KindSkill, "skill: router LLM call failed", err)
	}

	selected := strings.ToLower(strings.TrimSpace(resp.Text))
	if selected == "none" || selected == "" {
		return "", false, nil
	}
	for _, s := range candidates {
		if strings.ToLower(s.ID) == selected {
			return s.ID, true, nil
		}
	}
	return "", false, nil
}
