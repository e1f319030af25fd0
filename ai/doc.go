// Copyright 2025 Poiesic Systems
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

// Package ai provides abstractions for the language-model services consulted
// during a search.
//
// Two decision services are modeled:
//
//   - IntentClassifier: resolves a query into a core.QueryAnalysis
//   - RelevanceJudge: decides which listings actually match the query
//
// AIProvider aggregates them for convenient initialization.
//
// # Implementation Packages
//
//   - ai/openai: langchaingo client for OpenAI-compatible chat APIs
//   - ai/keyword: deterministic keyword classifier, always available and used
//     as the fallback when the model is slow, failing or malformed
//   - ai/mock: test doubles with injectable behavior and call counts
//
// Callers must treat every service as optional. The orchestrator time-boxes
// each call and degrades to deterministic logic on any error.
//
// # Usage Example
//
//	provider, err := openai.NewProvider(ai.NewConfig(ai.WithHost("http://localhost:11434")))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	analysis, err := provider.IntentClassifier().ClassifyIntent(ctx, "wireless earbuds under $50")
package ai
