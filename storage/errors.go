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

package storage

import "errors"

var (
	// ErrNotFound is returned when no request log has the requested id.
	ErrNotFound = errors.New("request log not found")

	// ErrStorageClosed is returned by every operation after Close.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrInvalidQuery is returned for an inverted date range or a non-positive limit.
	ErrInvalidQuery = errors.New("invalid query parameters")

	// ErrInvalidPath is returned when the database directory is missing or unusable.
	ErrInvalidPath = errors.New("invalid database path")

	// ErrSerializationFailed wraps failures decoding a stored request log.
	ErrSerializationFailed = errors.New("serialization failed")

	// ErrTruncatedData is returned when a stored key or id is shorter than expected.
	ErrTruncatedData = errors.New("truncated data")
)
