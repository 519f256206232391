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

package llm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentrt/pkg/agenterr"
	"github.com/kadirpekel/agentrt/pkg/llm"
	"github.com/kadirpekel/agentrt/pkg/llm/llmtest"
)

func TestRegistry_RegisterAndResolve(t *testing.T) {
	r := llm.NewRegistry()
	p := llmtest.New("test-model", "hi")

	require.NoError(t, r.RegisterProvider("main", p))

	got, err := r.Resolve("main")
	require.NoError(t, err)
	assert.Same(t, p, got)
}

func TestRegistry_RegisterEmptyAlias(t *testing.T) {
	r := llm.NewRegistry()
	err := r.RegisterProvider("", llmtest.New("m"))
	require.Error(t, err)
	assert.Equal(t, agenterr.KindConfig, agenterr.KindOf(err))
}

func TestRegistry_DefaultMustBeRegistered(t *testing.T) {
	r := llm.NewRegistry()
	err := r.SetDefault("missing")
	require.Error(t, err)
	assert.Equal(t, agenterr.KindConfig, agenterr.KindOf(err))
}

func TestRegistry_DefaultAndRouterFallback(t *testing.T) {
	r := llm.NewRegistry()
	main := llmtest.New("main-model")
	require.NoError(t, r.RegisterProvider("main", main))
	require.NoError(t, r.SetDefault("main"))

	got, err := r.Default()
	require.NoError(t, err)
	assert.Same(t, main, got)

	// Router alias not nominated: falls back to default.
	got, err = r.Router()
	require.NoError(t, err)
	assert.Same(t, main, got)
}

func TestRegistry_MissingAliasIsConfigError(t *testing.T) {
	r := llm.NewRegistry()
	_, err := r.Resolve("nope")
	require.Error(t, err)
	assert.Equal(t, agenterr.KindConfig, agenterr.KindOf(err))
}
