package base

import "time"

// RequestTTL bounds how long a correlated request waits for a reply
// before the outgoing table evicts it.
const RequestTTL = 3 * time.Second

// RetryDelay is the pause between attempts of SendWithRetry.
const RetryDelay = 1 * time.Second
