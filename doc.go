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

// Package cartwise aggregates product listings from several retailers into one
// ranked response.
//
// An Engine fans a query out to every retailer gateway in parallel, drops
// listings that fail fraud or relevance checks, computes landed costs and
// scores the survivors. Optional language-model agents rewrite the query per
// retailer and judge relevance; without them the engine runs keyword-only.
// Every request is recorded to a request log kept in Badger.
//
//	eng, err := cartwise.NewEngine(cartwise.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer eng.Close()
//	resp := eng.Search(ctx, search.Request{Query: "wireless earbuds"})
package cartwise
