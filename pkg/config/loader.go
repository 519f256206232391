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

package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/kadirpekel/agentrt/pkg/config/provider"
)

// Loader loads and watches an AgentSpec from a provider.Provider.
type Loader struct {
	provider provider.Provider
	onChange func(*AgentSpec)
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithOnChange sets a callback invoked with the freshly reloaded spec
// whenever Watch observes a change.
func WithOnChange(fn func(*AgentSpec)) LoaderOption {
	return func(l *Loader) { l.onChange = fn }
}

// NewLoader builds a Loader reading from p.
func NewLoader(p provider.Provider, opts ...LoaderOption) *Loader {
	l := &Loader{provider: p}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads, parses, defaults, and validates the spec.
func (l *Loader) Load(ctx context.Context) (*AgentSpec, error) {
	data, err := l.provider.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("config: load: %w", err)
	}

	rawMap, err := parseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}

	expanded, ok := ExpandEnvVarsInData(rawMap).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("config: expanded document is not a mapping")
	}

	spec := &AgentSpec{}
	if err := decodeSpec(expanded, spec); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	spec.SetDefaults()
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return spec, nil
}

// Watch blocks, reloading the spec and invoking onChange each time the
// provider signals a change, until ctx is cancelled.
func (l *Loader) Watch(ctx context.Context) error {
	changes, err := l.provider.Watch(ctx)
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}

	if changes == nil {
		slog.Info("config: watching unsupported by provider", "type", l.provider.Type())
		<-ctx.Done()
		return ctx.Err()
	}

	slog.Info("config: watching for changes", "type", l.provider.Type())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			spec, err := l.Load(ctx)
			if err != nil {
				slog.Error("config: reload failed", "error", err)
				continue
			}
			slog.Info("config: reloaded")
			if l.onChange != nil {
				l.onChange(spec)
			}
		}
	}
}

// Close releases the underlying provider.
func (l *Loader) Close() error {
	return l.provider.Close()
}

// Provider returns the underlying provider.
func (l *Loader) Provider() provider.Provider {
	return l.provider
}

// parseBytes parses raw bytes as YAML, falling back to JSON (YAML is
// a JSON superset so this only matters for malformed-YAML-but-valid-
// nothing inputs in practice, kept for parity with plain JSON specs).
func parseBytes(data []byte) (map[string]any, error) {
	var result map[string]any
	if err := yaml.Unmarshal(data, &result); err == nil {
		return result, nil
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("not valid YAML or JSON: %w", err)
	}
	return result, nil
}

// decodeSpec re-marshals the env-expanded document to YAML and decodes
// it straight through yaml.Unmarshal, so that every sub-type's custom
// UnmarshalYAML (LLMSelector, skill.Ref, the recovery/disambiguation/
// hitl configs) runs its field-level defaulting and union parsing. A
// second mapstructure pass was considered for the teacher's weakly-
// typed coercion, but it cannot see yaml.Unmarshaler and would either
// be a no-op or clobber the unions depending on pass order, so it is
// dropped for this decode path (see DESIGN.md).
func decodeSpec(input map[string]any, spec *AgentSpec) error {
	asYAML, err := yaml.Marshal(input)
	if err != nil {
		return fmt.Errorf("re-marshal: %w", err)
	}
	if err := yaml.Unmarshal(asYAML, spec); err != nil {
		return fmt.Errorf("yaml decode: %w", err)
	}
	return nil
}

// LoadConfig is a convenience wrapper around provider.New + Loader.Load.
func LoadConfig(ctx context.Context, cfg provider.Config) (*AgentSpec, *Loader, error) {
	p, err := provider.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("config: create provider: %w", err)
	}

	loader := NewLoader(p)
	spec, err := loader.Load(ctx)
	if err != nil {
		p.Close()
		return nil, nil, err
	}
	return spec, loader, nil
}

// LoadConfigFile is a convenience wrapper loading an AgentSpec from a
// local YAML file.
func LoadConfigFile(ctx context.Context, path string) (*AgentSpec, *Loader, error) {
	return LoadConfig(ctx, provider.Config{Type: provider.TypeFile, Path: path})
}
