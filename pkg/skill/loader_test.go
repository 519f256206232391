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

package skill_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentrt/pkg/skill"
)

func TestLoadRef_Inline(t *testing.T) {
	loader := skill.NewLoader()
	inline := skill.Definition{
		ID:          "test_skill",
		Description: "Test",
		Trigger:     "When testing",
		Steps:       []skill.Step{{Prompt: &skill.PromptStep{Prompt: "Hello"}}},
	}

	loaded, err := loader.LoadRef(skill.InlineRef(inline))
	require.NoError(t, err)
	assert.Equal(t, "test_skill", loaded.ID)
	assert.Len(t, loaded.Steps, 1)
}

func TestLoadByName_MissingSkillErrors(t *testing.T) {
	loader := skill.NewLoader()
	_, err := loader.LoadByName("nonexistent_skill")
	assert.Error(t, err)
}

func TestLoadByName_FindsFileInSearchPath(t *testing.T) {
	dir := t.TempDir()
	writeSkillFile(t, dir, "greeter.skill.yaml", `
id: greeter
description: Greets the user
trigger: When greeting
steps:
  - prompt: "Hello, {{ .UserInput }}!"
`)

	loader := skill.NewLoader()
	loader.AddSearchPath(dir)

	def, err := loader.LoadByName("greeter")
	require.NoError(t, err)
	assert.Equal(t, "greeter", def.ID)
	assert.Equal(t, "Greets the user", def.Description)
	require.Len(t, def.Steps, 1)
	assert.True(t, def.Steps[0].IsPrompt())
}

func TestLoadByName_CachesAfterFirstLoad(t *testing.T) {
	dir := t.TempDir()
	writeSkillFile(t, dir, "once.skill.yaml", `
id: once
description: loaded once
trigger: whenever
steps:
  - prompt: "hi"
`)

	loader := skill.NewLoader()
	loader.AddSearchPath(dir)

	_, err := loader.LoadByName("once")
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "once.skill.yaml")))

	def, err := loader.LoadByName("once")
	require.NoError(t, err)
	assert.Equal(t, "once", def.ID)
}

func TestLoadFromPath_CachesByDeclaredID(t *testing.T) {
	dir := t.TempDir()
	path := writeSkillFile(t, dir, "weird_filename.yaml", `
id: actual_id
description: d
trigger: t
steps: []
`)

	loader := skill.NewLoader()
	_, err := loader.LoadFromPath(path)
	require.NoError(t, err)

	cached, ok := loader.GetCached("actual_id")
	require.True(t, ok)
	assert.Equal(t, "actual_id", cached.ID)

	_, ok = loader.GetCached("weird_filename")
	assert.False(t, ok)
}

func TestGetCachedAndClearCache(t *testing.T) {
	dir := t.TempDir()
	writeSkillFile(t, dir, "cached.skill.yaml", `
id: cached_skill
description: Cached
trigger: When cached
steps: []
`)

	loader := skill.NewLoader()
	loader.AddSearchPath(dir)

	_, err := loader.LoadByName("cached_skill")
	require.NoError(t, err)

	_, ok := loader.GetCached("cached_skill")
	assert.True(t, ok)
	_, ok = loader.GetCached("unknown")
	assert.False(t, ok)

	loader.ClearCache()
	_, ok = loader.GetCached("cached_skill")
	assert.False(t, ok)
}

func TestLoadRefs_ResolvesEachRefInOrder(t *testing.T) {
	dir := t.TempDir()
	writeSkillFile(t, dir, "first.skill.yaml", `
id: first
description: d
trigger: t
steps: []
`)

	loader := skill.NewLoader()
	loader.AddSearchPath(dir)

	refs := []skill.Ref{
		skill.NameRef("first"),
		skill.InlineRef(skill.Definition{ID: "second"}),
	}

	defs, err := loader.LoadRefs(refs)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "first", defs[0].ID)
	assert.Equal(t, "second", defs[1].ID)
}

func TestWatch_ReloadsCacheOnFileChange(t *testing.T) {
	dir := t.TempDir()
	path := writeSkillFile(t, dir, "live.skill.yaml", `
id: live
description: v1
trigger: t
steps: []
`)

	loader := skill.NewLoader()
	loader.AddSearchPath(dir)

	def, err := loader.LoadByName("live")
	require.NoError(t, err)
	assert.Equal(t, "v1", def.Description)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop, err := loader.Watch(ctx)
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(path, []byte(`
id: live
description: v2
trigger: t
steps: []
`), 0o644))

	require.Eventually(t, func() bool {
		_, ok := loader.GetCached("live")
		return !ok
	}, 2*time.Second, 10*time.Millisecond)

	reloaded, err := loader.LoadByName("live")
	require.NoError(t, err)
	assert.Equal(t, "v2", reloaded.Description)
}

func writeSkillFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
