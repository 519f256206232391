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

package tool

import (
	"strings"
	"sync"
	"time"

	"github.com/kadirpekel/agentrt/pkg/agenterr"
)

// SecurityPolicy gates execution of a single tool: enable/disable,
// rate limiting, domain allow/block lists for network tools, path
// prefix allowlist for file tools, and a flag routing the call through
// HITL before it is allowed to proceed.
type SecurityPolicy struct {
	Enabled          bool
	RateLimitPerMin  int // 0 = unlimited
	AllowedDomains   []string
	BlockedDomains   []string
	AllowedPathGlobs []string
	RequireApproval  bool

	mu      sync.Mutex
	bucket  int
	resetAt time.Time
}

// DefaultSecurityPolicy returns a policy with no restrictions beyond
// being enabled, suitable for trusted built-in tools.
func DefaultSecurityPolicy() SecurityPolicy {
	return SecurityPolicy{Enabled: true}
}

// Allow checks whether a call is permitted right now: the tool must be
// enabled and under its per-minute rate limit. It does not evaluate
// domain/path restrictions, which are argument-shape specific and
// checked by CheckDomain/CheckPath at the call site.
func (p *SecurityPolicy) Allow() error {
	if !p.Enabled {
		return agenterr.New(agenterr.KindTool, "tool: disabled by security policy")
	}
	if p.RateLimitPerMin <= 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	if now.After(p.resetAt) {
		p.bucket = 0
		p.resetAt = now.Add(time.Minute)
	}
	if p.bucket >= p.RateLimitPerMin {
		return agenterr.Newf(agenterr.KindTool, "tool: rate limit of %d/min exceeded", p.RateLimitPerMin)
	}
	p.bucket++
	return nil
}

// CheckDomain enforces the allow/block lists for a network tool's
// target host. An empty AllowedDomains list means all domains not
// explicitly blocked are permitted.
func (p *SecurityPolicy) CheckDomain(host string) error {
	for _, blocked := range p.BlockedDomains {
		if matchesDomain(host, blocked) {
			return agenterr.Newf(agenterr.KindTool, "tool: domain %q is blocked", host)
		}
	}
	if len(p.AllowedDomains) == 0 {
		return nil
	}
	for _, allowed := range p.AllowedDomains {
		if matchesDomain(host, allowed) {
			return nil
		}
	}
	return agenterr.Newf(agenterr.KindTool, "tool: domain %q is not in the allowed list", host)
}

// CheckPath enforces the path-prefix allowlist for a file tool. An
// empty AllowedPathGlobs list permits any path.
func (p *SecurityPolicy) CheckPath(path string) error {
	if len(p.AllowedPathGlobs) == 0 {
		return nil
	}
	for _, prefix := range p.AllowedPathGlobs {
		if strings.HasPrefix(path, prefix) {
			return nil
		}
	}
	return agenterr.Newf(agenterr.KindTool, "tool: path %q is outside the allowed prefixes", path)
}

func matchesDomain(host, pattern string) bool {
	host = strings.ToLower(host)
	pattern = strings.ToLower(pattern)
	if host == pattern {
		return true
	}
	return strings.HasPrefix(pattern, "*.") && strings.HasSuffix(host, pattern[1:])
}
