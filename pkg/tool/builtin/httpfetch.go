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

package builtin

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kadirpekel/agentrt/pkg/agenterr"
	"github.com/kadirpekel/agentrt/pkg/tool"
)

// HTTPFetchArgs is the typed argument shape httpfetch derives its JSON
// Schema from.
type HTTPFetchArgs struct {
	URL string `json:"url" jsonschema:"required,description=absolute http(s) URL to fetch"`
}

// HTTPFetch performs a bounded HTTP GET. Execute itself checks the
// URL's host against Policy via CheckDomain before fetching; a nil
// Policy applies no domain restriction.
type HTTPFetch struct {
	Policy     *tool.SecurityPolicy
	Client     *http.Client
	MaxBytes   int64
}

// NewHTTPFetch builds the httpfetch tool, gated by policy. A nil
// policy means no domain restriction.
func NewHTTPFetch(policy *tool.SecurityPolicy) *HTTPFetch {
	return &HTTPFetch{
		Policy:   policy,
		Client:   &http.Client{Timeout: 10 * time.Second},
		MaxBytes: 1 << 20,
	}
}

func (h *HTTPFetch) Descriptor() tool.Descriptor {
	return tool.Descriptor{
		ID:          "httpfetch",
		DisplayName: "HTTP Fetch",
		Description: "Fetches the body of an http(s) URL, subject to the configured domain allowlist.",
		InputSchema: tool.SchemaFor(HTTPFetchArgs{}),
	}
}

func (h *HTTPFetch) Execute(ctx context.Context, args map[string]any) (tool.Result, error) {
	raw, _ := args["url"].(string)
	if raw == "" {
		return tool.Result{}, agenterr.New(agenterr.KindInvalidSpec, "httpfetch: url argument is required")
	}

	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return tool.Result{}, agenterr.Newf(agenterr.KindInvalidSpec, "httpfetch: invalid url %q", raw)
	}

	if h.Policy != nil {
		if err := h.Policy.CheckDomain(parsed.Hostname()); err != nil {
			return tool.Result{}, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return tool.Result{}, agenterr.Wrap(agenterr.KindTool, "httpfetch: build request", err)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return tool.Result{Success: false, Error: err.Error()}, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, h.MaxBytes))
	if err != nil {
		return tool.Result{Success: false, Error: err.Error()}, nil
	}

	return tool.Result{
		Output: map[string]any{
			"status": resp.StatusCode,
			"body":   string(body),
		},
		Success: resp.StatusCode < 400,
	}, nil
}
