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

package hitl

// MessageResolver picks the language and the concrete template string
// an ApprovalMessage is rendered with, given a handler's language
// preference and the configured strategy.
type MessageResolver struct {
	Config MessageLanguageConfig
}

// NewMessageResolver builds a resolver over cfg.
func NewMessageResolver(cfg MessageLanguageConfig) MessageResolver {
	return MessageResolver{Config: cfg}
}

// ResolveBestLanguage picks the language an approval message should be
// rendered in for handler, given the configured strategy.
func (r MessageResolver) ResolveBestLanguage(handler ApprovalHandler) string {
	return resolveBestLanguage(r.Config, handler)
}

func resolveBestLanguage(cfg MessageLanguageConfig, handler ApprovalHandler) string {
	def := cfg.Default
	if def == "" {
		def = "en"
	}
	if cfg.Strategy != LanguagePreferHandler || handler == nil {
		return def
	}
	preferred := handler.PreferredLanguage()
	if preferred == "" {
		return def
	}
	supported := handler.SupportedLanguages()
	if supported == nil {
		return preferred
	}
	for _, lang := range supported {
		if lang == preferred {
			return preferred
		}
	}
	return def
}

// ResolveToolMessage picks the template string for msg in language
// lang, falling back to msg.Template when no translation exists.
func (r MessageResolver) ResolveToolMessage(msg ApprovalMessage, lang string) string {
	return resolveToolMessage(msg, lang)
}

func resolveToolMessage(msg ApprovalMessage, lang string) string {
	if translated, ok := msg.Translations[lang]; ok && translated != "" {
		return translated
	}
	return msg.Template
}
