package idgen

import (
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// requestCounter backs a monotonically increasing request_id, per spec.md
// §6: "Each request carries a monotonically increasing request_id".
var requestCounter uint64

// NextRequestID returns the next monotonically increasing request id for
// outbound API calls.
func NextRequestID() uint64 {
	return atomic.AddUint64(&requestCounter, 1)
}

// ShortUUID returns an 8-character hex uuid fragment for short correlation
// ids. Adapted from the teacher's
// pkg/utils.generateShortUUID.
func ShortUUID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:8]
}
