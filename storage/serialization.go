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

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/cartwise/core"
)

// MarshalID serializes an ID to bytes. IDs are written big-endian with a fixed
// width so that key scans return them in numeric order.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	if len(data) < 8 {
		return 0, fmt.Errorf("%w: id needs 8 bytes, got %d", ErrTruncatedData, len(data))
	}
	return core.ID(binary.BigEndian.Uint64(data)), nil
}

// MarshalRequestLog serializes a RequestLog to bytes.
func MarshalRequestLog(log *core.RequestLog) []byte {
	buf := make([]byte, core.RequestLogMUS.Size(*log))
	core.RequestLogMUS.Marshal(*log, buf)
	return buf
}

// UnmarshalRequestLog deserializes a RequestLog from bytes.
func UnmarshalRequestLog(data []byte) (*core.RequestLog, error) {
	log, _, err := core.RequestLogMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &log, nil
}
