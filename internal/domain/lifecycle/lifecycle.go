// Package lifecycle holds shared lifecycle tuning shared by servers and
// infrastructure components.
package lifecycle

import "time"

// DefaultTimeout bounds startup probes and graceful shutdown.
const DefaultTimeout = 10 * time.Second
