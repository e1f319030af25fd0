package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/cartwise/core"
)

// Key prefixes for different data types
const (
	requestLogPrefix     = "reqlog"
	requestLogDatePrefix = "reqlogd"
	requestLogIDSeq      = "reqlogseq"
)

// makeRequestLogKey generates a key for a request log by ID.
func makeRequestLogKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", requestLogPrefix, id))
}

// makeRequestLogDateKey generates a composite key for the date index.
// Format: prefix:timestamp:id
func makeRequestLogDateKey(timestamp time.Time, id core.ID) []byte {
	prefix := []byte(requestLogDatePrefix + ":")
	buf := make([]byte, len(prefix)+16) // 8 bytes for timestamp + 8 bytes for ID
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialRequestLogDateKey generates a partial key for date range queries.
// Format: prefix:timestamp
func makePartialRequestLogDateKey(timestamp time.Time) []byte {
	prefix := []byte(requestLogDatePrefix + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	return buf
}
