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

package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentrt/pkg/config"
)

const minimalSpecYAML = `
name: test-agent
llm:
  default: main
llms:
  main:
    model: gpt-4o-mini
    api_key: test-key
`

func writeSpecFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadConfigFile_ParsesDefaultsAndValidates(t *testing.T) {
	path := writeSpecFile(t, minimalSpecYAML)

	spec, loader, err := config.LoadConfigFile(context.Background(), path)
	require.NoError(t, err)
	defer loader.Close()

	assert.Equal(t, "test-agent", spec.Name)
	assert.Equal(t, "gpt-4o-mini", spec.LLMs["main"].Model)
	assert.Equal(t, "conversation", spec.Memory.Type)
}

func TestLoadConfigFile_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_AGENT_KEY", "expanded-key")
	path := writeSpecFile(t, `
name: test-agent
llm:
  default: main
llms:
  main:
    model: gpt-4o-mini
    api_key: ${TEST_AGENT_KEY}
`)

	spec, loader, err := config.LoadConfigFile(context.Background(), path)
	require.NoError(t, err)
	defer loader.Close()

	assert.Equal(t, "expanded-key", spec.LLMs["main"].APIKey)
}

func TestLoadConfigFile_InvalidSpecFailsValidation(t *testing.T) {
	path := writeSpecFile(t, "llm:\n  default: main\n")

	_, _, err := config.LoadConfigFile(context.Background(), path)
	require.Error(t, err)
}

func TestLoadConfigFile_MissingFile(t *testing.T) {
	_, _, err := config.LoadConfigFile(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
