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

package llm

import (
	"github.com/kadirpekel/agentrt/pkg/agenterr"
	"github.com/kadirpekel/agentrt/pkg/registry"
)

// Registry resolves alias names to Providers. Agent configs may name
// multiple providers under aliases; the registry nominates a "default"
// alias and an optional "router" alias used by skill routing and
// transition evaluation. A missing alias is a Config error.
type Registry struct {
	*registry.BaseRegistry[Provider]
	defaultAlias string
	routerAlias  string
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{BaseRegistry: registry.NewBaseRegistry[Provider]()}
}

// RegisterProvider registers p under alias, failing on empty alias or
// nil provider, mirroring the teacher's RegisterLLM guard.
func (r *Registry) RegisterProvider(alias string, p Provider) error {
	if alias == "" {
		return agenterr.New(agenterr.KindConfig, "llm: alias cannot be empty")
	}
	if p == nil {
		return agenterr.New(agenterr.KindConfig, "llm: provider cannot be nil")
	}
	return r.Register(alias, p)
}

// SetDefault nominates the alias used for process_task and any
// capability with no specialised provider. The alias must already be
// registered.
func (r *Registry) SetDefault(alias string) error {
	if _, ok := r.Get(alias); !ok {
		return agenterr.Newf(agenterr.KindConfig, "llm: default alias %q not registered", alias)
	}
	r.defaultAlias = alias
	return nil
}

// SetRouter nominates the alias used for skill routing and transition
// evaluation. The alias must already be registered.
func (r *Registry) SetRouter(alias string) error {
	if _, ok := r.Get(alias); !ok {
		return agenterr.Newf(agenterr.KindConfig, "llm: router alias %q not registered", alias)
	}
	r.routerAlias = alias
	return nil
}

// Default returns the default provider, or a Config error if none was
// nominated.
func (r *Registry) Default() (Provider, error) {
	return r.resolve(r.defaultAlias, "default")
}

// Router returns the router provider if one was nominated, falling
// back to the default provider otherwise.
func (r *Registry) Router() (Provider, error) {
	if r.routerAlias != "" {
		return r.resolve(r.routerAlias, "router")
	}
	return r.Default()
}

// Resolve looks up an explicit alias, failing with a Config error if it
// is not registered.
func (r *Registry) Resolve(alias string) (Provider, error) {
	return r.resolve(alias, "named")
}

func (r *Registry) resolve(alias, kind string) (Provider, error) {
	if alias == "" {
		return nil, agenterr.Newf(agenterr.KindConfig, "llm: no %s provider configured", kind)
	}
	p, ok := r.Get(alias)
	if !ok {
		return nil, agenterr.Newf(agenterr.KindConfig, "llm: %s alias %q not registered", kind, alias)
	}
	return p, nil
}
