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

package hitl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kadirpekel/agentrt/pkg/hitl"
)

func TestMessageResolver_PrefersHandlerLanguageWhenSupported(t *testing.T) {
	resolver := hitl.NewMessageResolver(hitl.MessageLanguageConfig{Strategy: hitl.LanguagePreferHandler, Default: "en"})
	handler := hitl.NewLocalizedHandler(hitl.NewAutoApproveHandler(), "ko").WithSupported([]string{"ko", "en"})

	assert.Equal(t, "ko", resolver.ResolveBestLanguage(handler))
}

func TestMessageResolver_FallsBackWhenUnsupported(t *testing.T) {
	resolver := hitl.NewMessageResolver(hitl.MessageLanguageConfig{Strategy: hitl.LanguagePreferHandler, Default: "en"})
	handler := hitl.NewLocalizedHandler(hitl.NewAutoApproveHandler(), "fr").WithSupported([]string{"ko", "en"})

	assert.Equal(t, "en", resolver.ResolveBestLanguage(handler))
}

func TestMessageResolver_FixedStrategyIgnoresHandler(t *testing.T) {
	resolver := hitl.NewMessageResolver(hitl.MessageLanguageConfig{Strategy: hitl.LanguageFixed, Default: "en"})
	handler := hitl.NewLocalizedHandler(hitl.NewAutoApproveHandler(), "ko")

	assert.Equal(t, "en", resolver.ResolveBestLanguage(handler))
}

func TestMessageResolver_ResolveToolMessage_UsesTranslation(t *testing.T) {
	resolver := hitl.NewMessageResolver(hitl.MessageLanguageConfig{})
	msg := hitl.ApprovalMessage{
		Template:     "Approve?",
		Translations: map[string]string{"ko": "승인하시겠습니까?"},
	}

	assert.Equal(t, "승인하시겠습니까?", resolver.ResolveToolMessage(msg, "ko"))
	assert.Equal(t, "Approve?", resolver.ResolveToolMessage(msg, "en"))
}
