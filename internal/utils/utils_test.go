package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestWaitForReturnsOnContextCancel(t *testing.T) {
	original := sleep
	started := make(chan struct{})
	release := make(chan struct{})
	sleep = func(time.Duration) {
		close(started)
		<-release
	}
	defer func() { sleep = original }()

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- WaitFor(ctx, time.Hour) }()

	<-started
	cancel()

	if err := <-result; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	close(release)
}

func TestWaitForSleeps(t *testing.T) {
	original := sleep
	var slept time.Duration
	sleep = func(d time.Duration) { slept = d }
	defer func() { sleep = original }()

	if err := WaitFor(context.Background(), 3*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if slept != 3*time.Second {
		t.Fatalf("expected 3s sleep, got %s", slept)
	}

	if err := WaitFor(context.Background(), 0); err != nil {
		t.Fatalf("zero duration must not fail: %v", err)
	}
}

func TestNewRunID(t *testing.T) {
	first := NewRunID()
	second := NewRunID()

	if first == second {
		t.Fatalf("expected distinct run ids")
	}

	parsed, err := uuid.Parse(first)
	if err != nil {
		t.Fatalf("run id is not a uuid: %v", err)
	}

	if parsed.Version() != 7 {
		t.Fatalf("expected version 7, got %d", parsed.Version())
	}
}
