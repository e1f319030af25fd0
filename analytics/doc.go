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

// Package analytics records one log per search request.
//
// Recording is fire-and-forget: a Sink never blocks the response path and
// never reports failure to the caller. LogSink writes a structured log line;
// Dispatcher persists logs through a storage.RequestLogRepository on a
// bounded, non-blocking worker pool and drops logs when the pool is saturated.
package analytics
