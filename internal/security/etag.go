package security

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ETagFromTime derives an opaque entity tag from a row's update timestamp,
// used for If-Match optimistic concurrency.
func ETagFromTime(ts time.Time) string {
	base := fmt.Sprintf("%d.%09d:", ts.Unix(), ts.Nanosecond())
	sum := sha256.Sum256([]byte(base))
	return hex.EncodeToString(sum[:])
}
