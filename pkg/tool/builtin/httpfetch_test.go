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

package builtin_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentrt/pkg/tool"
	"github.com/kadirpekel/agentrt/pkg/tool/builtin"
)

func TestHTTPFetch_InvalidURLRejected(t *testing.T) {
	f := builtin.NewHTTPFetch(nil)
	_, err := f.Execute(context.Background(), map[string]any{"url": "not-a-url"})
	require.Error(t, err)
}

func TestHTTPFetch_FetchesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	f := builtin.NewHTTPFetch(nil)
	res, err := f.Execute(context.Background(), map[string]any{"url": srv.URL})
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestHTTPFetch_DomainBlockedByPolicy(t *testing.T) {
	policy := &tool.SecurityPolicy{Enabled: true, AllowedDomains: []string{"allowed.example.com"}}
	f := builtin.NewHTTPFetch(policy)

	_, err := f.Execute(context.Background(), map[string]any{"url": "http://blocked.example.com/x"})
	require.Error(t, err)
}
