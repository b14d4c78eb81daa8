package whatsapp

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/interview-automator/internal/dispatch"
)

const helperEnv = "WHATSAPP_WORKER_HELPER"

// scriptedSender hangs for recipient "hang", rejects "reject" and fails "fail".
type scriptedSender struct{}

func (scriptedSender) Send(_ context.Context, recipient, _ string) error {
	switch recipient {
	case "hang":
		time.Sleep(time.Hour)
	case "reject":
		return dispatch.ErrUndeliverable
	case "fail":
		return errors.New("chat did not load")
	}
	return nil
}

// TestHelperProcess is the worker side of the process tests.
func TestHelperProcess(t *testing.T) {
	if os.Getenv(helperEnv) != "1" {
		return
	}
	if err := Serve(context.Background(), os.Stdin, os.Stdout, scriptedSender{}); err != nil {
		os.Exit(1)
	}
	os.Exit(0)
}

func newHelperProcess() *Process {
	p := NewProcess(zap.NewNop(), os.Args[0], "-test.run=^TestHelperProcess$")
	p.Env = []string{helperEnv + "=1"}
	return p
}

func TestServe(t *testing.T) {
	t.Parallel()

	in := strings.NewReader("{\"recipient\":\"919812345678\",\"text\":\"hi\"}\n{\"recipient\":\"reject\"}\nnot json\n")
	var out bytes.Buffer

	if err := Serve(context.Background(), in, &out, scriptedSender{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 responses, got %q", out.String())
	}
	if lines[0] != "{}" {
		t.Fatalf("unexpected success response %q", lines[0])
	}
	if !strings.Contains(lines[1], `"undeliverable":true`) {
		t.Fatalf("unexpected reject response %q", lines[1])
	}
	if !strings.Contains(lines[2], "decode request") {
		t.Fatalf("unexpected decode response %q", lines[2])
	}
}

func TestProcessSends(t *testing.T) {
	p := newHelperProcess()
	defer p.Close()

	ctx := context.Background()
	if err := p.Send(ctx, "919812345678", "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Send(ctx, "reject", "hello"); !errors.Is(err, dispatch.ErrUndeliverable) {
		t.Fatalf("expected undeliverable, got %v", err)
	}
	if err := p.Send(ctx, "fail", "hello"); err == nil || !strings.Contains(err.Error(), "chat did not load") {
		t.Fatalf("expected worker error, got %v", err)
	}
}

func TestProcessIsKilledOnTimeout(t *testing.T) {
	p := newHelperProcess()
	defer p.Close()

	ctx := context.Background()
	err := dispatch.Attempt(ctx, p, 200*time.Millisecond, "hang", "hello")
	if !errors.Is(err, dispatch.ErrAttemptTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}

	if err := dispatch.Attempt(ctx, p, 5*time.Second, "919812345678", "hello"); err != nil {
		t.Fatalf("expected a fresh worker to deliver, got %v", err)
	}
}
