package agentkit

import (
	"time"

	"github.com/google/uuid"
)

// NewID generates a globally unique, time-sortable UUIDv7 (RFC 9562).
// Used for RunHandle ids. Kernel ids have their own short format (see
// StepwiseExecutor.newKernelID), and graph node and edge ids are
// positional ("n0", "e0", ...).
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NowUnix returns the current time as Unix seconds.
func NowUnix() int64 {
	return time.Now().Unix()
}
