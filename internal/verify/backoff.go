package verify

import "time"

const (
	baseRetryDelay = 30 * time.Second
	maxRetryDelay  = 30 * time.Minute
	maxAttempts    = 10
)

// retryDelay returns the exponential backoff delay for the given attempt
// number (1-based): 30s, 1m, 2m, ... capped at 30m.
func retryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := baseRetryDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return delay
}

// nextRetryAt schedules the next automatic attempt, or nil once the
// attempt budget is exhausted and only a manual re-verify can resume.
func nextRetryAt(attempt int) *time.Time {
	if attempt >= maxAttempts {
		return nil
	}
	at := time.Now().Add(retryDelay(attempt))
	return &at
}
