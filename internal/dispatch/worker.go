package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrAttemptTimeout is returned when a send did not finish in time.
	ErrAttemptTimeout = errors.New("delivery attempt timed out")
	// ErrUndeliverable is returned by senders that know a retry cannot help.
	ErrUndeliverable = errors.New("message cannot be delivered")
)

// Sender delivers text to an E.164 recipient without the leading '+'. Send may
// ignore ctx and never return.
type Sender interface {
	Send(ctx context.Context, recipient, text string) error
}

// Terminator is implemented by senders that can be killed mid-send. After
// Terminate the sender must be usable again for the next attempt.
type Terminator interface {
	Terminate() error
}

// Attempt runs one send bounded by timeout. A send still running when the
// timeout expires is terminated and the attempt fails with ErrAttemptTimeout.
func Attempt(ctx context.Context, sender Sender, timeout time.Duration, recipient, text string) error {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- sender.Send(attemptCtx, recipient, text)
	}()

	select {
	case err := <-done:
		return err
	case <-attemptCtx.Done():
	}

	if t, ok := sender.(Terminator); ok {
		if err := t.Terminate(); err != nil {
			return errors.Join(ErrAttemptTimeout, fmt.Errorf("terminate sender: %w", err))
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return ErrAttemptTimeout
}
