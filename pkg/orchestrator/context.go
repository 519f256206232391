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
	"io"
	"net/http"
	"os"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/kadirpekel/agentrt/pkg/agenterr"
	"github.com/kadirpekel/agentrt/pkg/config"
)

// refreshContext resolves every named entry in spec.Context per its
// refresh policy (spec §6's "context" map) and merges the result into
// the session's dynamic context bundle used by prompt templates and
// the persisted snapshot.
//
// RefreshOnce entries resolve only the first time they are seen
// (cached on the orchestrator for its lifetime); RefreshPerSession
// entries resolve once per Reset(); RefreshPerTurn entries resolve on
// every call. Kind runtime decodes Dependencies.RuntimeContext (an
// arbitrary host-supplied struct) into the bundle via mapstructure,
// since the host's shape is not known to this package.
func (o *Orchestrator) refreshContext(ctx context.Context) map[string]any {
	type due struct {
		name string
		src  config.ContextSource
	}

	o.contextMu.Lock()
	if o.contextValues == nil {
		o.contextValues = make(map[string]any, len(o.spec.Context))
	}
	var pending []due
	for name, src := range o.spec.Context {
		_, onceResolved := o.contextOnceDone[name]
		_, sessionResolved := o.contextSessionDone[name]

		switch src.Refresh {
		case config.RefreshOnce:
			if onceResolved {
				continue
			}
		case config.RefreshPerSession:
			if sessionResolved {
				continue
			}
		case config.RefreshPerTurn:
			// always resolve
		default:
			if onceResolved {
				continue
			}
		}
		pending = append(pending, due{name: name, src: src})
	}
	o.contextMu.Unlock()

	// Resolution (file/HTTP/callback I/O) happens with no lock held, so
	// a slow source never blocks concurrent readers of the context
	// bundle.
	resolved := make(map[string]any, len(pending))
	for _, d := range pending {
		value, err := o.resolveContextSource(ctx, d.src)
		if err != nil {
			// A failed context source does not abort the turn (it is
			// ambient enrichment, not a required input); the stale or
			// absent value is left in place.
			continue
		}
		resolved[d.name] = value
	}

	o.contextMu.Lock()
	for name, value := range resolved {
		o.contextValues[name] = value
		o.contextOnceDone[name] = struct{}{}
		o.contextSessionDone[name] = struct{}{}
	}
	out := make(map[string]any, len(o.contextValues))
	for k, v := range o.contextValues {
		out[k] = v
	}
	o.contextMu.Unlock()

	return out
}

// resetSessionContext clears the per-session refresh cache; called by
// Reset so RefreshPerSession entries re-resolve on the next turn.
func (o *Orchestrator) resetSessionContext() {
	o.contextMu.Lock()
	defer o.contextMu.Unlock()
	o.contextSessionDone = make(map[string]struct{})
}

func (o *Orchestrator) resolveContextSource(ctx context.Context, src config.ContextSource) (any, error) {
	switch src.Kind {
	case config.ContextEnv:
		return os.Getenv(src.EnvVar), nil

	case config.ContextFile:
		data, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, agenterr.Wrapf(agenterr.KindOther, err, "context: read file %q", src.Path)
		}
		return string(data), nil

	case config.ContextBuiltin:
		return resolveBuiltinContext(src.Builtin), nil

	case config.ContextHTTP:
		return o.resolveHTTPContext(ctx, src)

	case config.ContextCallback:
		if o.callbacks == nil {
			return nil, agenterr.Newf(agenterr.KindConfig, "context: no callback %q registered", src.Callback)
		}
		fn, ok := o.callbacks[src.Callback]
		if !ok {
			return nil, agenterr.Newf(agenterr.KindConfig, "context: no callback %q registered", src.Callback)
		}
		return fn(ctx)

	case config.ContextRuntime:
		return o.resolveRuntimeContext()

	default:
		return nil, agenterr.Newf(agenterr.KindConfig, "context: unknown source kind %q", src.Kind)
	}
}

func resolveBuiltinContext(name string) any {
	switch name {
	case "now":
		return time.Now().UTC().Format(time.RFC3339)
	case "hostname":
		h, _ := os.Hostname()
		return h
	default:
		return nil
	}
}

// resolveHTTPContext renders nothing dynamic (the URL/headers are static per spec §9's "mutable
// state across await" strategy: no lock is held across the request),
// performs the GET, and returns the body as a string.
func (o *Orchestrator) resolveHTTPContext(ctx context.Context, src config.ContextSource) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, agenterr.Wrap(agenterr.KindOther, "context: build http request", err)
	}
	for k, v := range src.Headers {
		req.Header.Set(k, v)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, agenterr.Wrap(agenterr.KindOther, "context: http request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, agenterr.Wrap(agenterr.KindOther, "context: read http response", err)
	}
	return string(body), nil
}

// resolveRuntimeContext decodes Dependencies.RuntimeContext (an
// arbitrary host-supplied struct, since this package cannot know its
// shape ahead of time) into a plain map for merging into the context
// bundle and template rendering.
func (o *Orchestrator) resolveRuntimeContext() (any, error) {
	if o.runtimeContext == nil {
		return nil, nil
	}
	var out map[string]any
	if err := mapstructure.Decode(o.runtimeContext, &out); err != nil {
		return nil, agenterr.Wrap(agenterr.KindConfig, "context: decode runtime context", err)
	}
	return out, nil
}
