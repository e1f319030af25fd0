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

// Package search orchestrates a shopping search across retailers.
//
// A Searcher drives one request through these stages:
//   - intent classification by an external agent, falling back to keyword rules
//   - a concurrent fan-out to the retailer gateways of the requested market
//   - fraud filtering, price bounds and an optional relevance judgement
//   - landed cost and multi-axis ranking
//   - at most one refinement fan-out when the results are thin
//   - price/speed weighting, membership adjustment and interleaving by retailer
//
// Search never fails for ordinary reasons: provider and agent failures degrade
// to partial or empty results, recorded in the response. Only construction
// errors are returned. A Searcher keeps no per-request state and is safe for
// concurrent use.
package search
