package utils

import (
	"context"
	"time"

	"github.com/google/uuid"
)

var sleep = time.Sleep

// WaitFor blocks for d or until ctx is done, whichever comes first.
func WaitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sleep(d)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// NewRunID returns a time-ordered identifier used to correlate the log lines of one command run.
func NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}
