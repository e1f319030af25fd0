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

package search

import "errors"

var (
	// ErrNoGateways is returned when a searcher is built without provider gateways.
	ErrNoGateways = errors.New("at least one provider gateway required")

	// ErrNilGateway is returned when a gateway in the list is nil.
	ErrNilGateway = errors.New("provider gateway is nil")

	// ErrDuplicateGateway is returned when two gateways serve the same retailer.
	ErrDuplicateGateway = errors.New("duplicate gateway for retailer")

	// ErrInvalidPoolSize is returned when the fan-out pool size is not positive.
	ErrInvalidPoolSize = errors.New("pool size must be greater than 0")

	// ErrInvalidTimeout is returned when a timeout option is not positive.
	ErrInvalidTimeout = errors.New("timeout must be positive")
)
