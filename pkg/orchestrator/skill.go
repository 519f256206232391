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
	"log/slog"
)

// runSkillPath implements spec §4.1 step 4: ask the skill router to
// pick at most one skill scoped to the current state, run it, and
// report whether a skill ran at all. A skill error never aborts the
// turn (the error-handling design's "skill errors abort the skill,
// never silently" — the orchestrator falls back to the normal LLM
// path on any failure, logged rather than swallowed).
func (o *Orchestrator) runSkillPath(ctx context.Context, stateAllowedSkills []string, userInput string) (content string, ran bool) {
	if o.skillRouter == nil || len(stateAllowedSkills) == 0 {
		return "", false
	}

	id, matched, err := o.skillRouter.SelectFiltered(ctx, userInput, stateAllowedSkills)
	if err != nil {
		slog.Warn("orchestrator: skill routing failed, falling back to LLM path", "error", err)
		return "", false
	}
	if !matched {
		return "", false
	}

	def, ok := o.skillRouter.GetSkill(id)
	if !ok {
		return "", false
	}

	result, err := o.skillExecutor.Execute(ctx, def, userInput, nil)
	if err != nil {
		slog.Warn("orchestrator: skill execution failed, falling back to LLM path", "skill", id, "error", err)
		return "", false
	}
	return result, true
}
