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

package tool_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentrt/pkg/tool"
)

func TestSecurityPolicy_DisabledBlocksAllow(t *testing.T) {
	p := tool.SecurityPolicy{Enabled: false}
	require.Error(t, p.Allow())
}

func TestSecurityPolicy_RateLimit(t *testing.T) {
	p := tool.SecurityPolicy{Enabled: true, RateLimitPerMin: 2}
	require.NoError(t, p.Allow())
	require.NoError(t, p.Allow())
	require.Error(t, p.Allow())
}

func TestSecurityPolicy_DomainAllowList(t *testing.T) {
	p := tool.SecurityPolicy{Enabled: true, AllowedDomains: []string{"*.example.com"}}
	assert.NoError(t, p.CheckDomain("api.example.com"))
	assert.Error(t, p.CheckDomain("evil.com"))
}

func TestSecurityPolicy_BlockedWinsOverAllowed(t *testing.T) {
	p := tool.SecurityPolicy{Enabled: true, AllowedDomains: []string{"*.example.com"}, BlockedDomains: []string{"bad.example.com"}}
	assert.Error(t, p.CheckDomain("bad.example.com"))
	assert.NoError(t, p.CheckDomain("good.example.com"))
}

func TestSecurityPolicy_PathPrefix(t *testing.T) {
	p := tool.SecurityPolicy{Enabled: true, AllowedPathGlobs: []string{"/data/"}}
	assert.NoError(t, p.CheckPath("/data/file.txt"))
	assert.Error(t, p.CheckPath("/etc/passwd"))
}
