package whatsapp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/interview-automator/internal/dispatch"
)

type request struct {
	Recipient string `json:"recipient"`
	Text      string `json:"text"`
}

type response struct {
	Error         string `json:"error,omitempty"`
	Undeliverable bool   `json:"undeliverable,omitempty"`
}

// Serve answers send requests read line by line from in, one JSON response
// line per request. It returns when in is exhausted.
func Serve(ctx context.Context, in io.Reader, out io.Writer, sender dispatch.Sender) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	enc := json.NewEncoder(out)

	for scanner.Scan() {
		var req request
		var resp response

		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			resp.Error = fmt.Sprintf("decode request: %v", err)
		} else if err := sender.Send(ctx, req.Recipient, req.Text); err != nil {
			resp.Error = err.Error()
			resp.Undeliverable = errors.Is(err, dispatch.ErrUndeliverable)
		}

		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}

	return scanner.Err()
}

// Process sends through a worker child process speaking the Serve protocol.
// The child is started on first use and replaced after Terminate.
type Process struct {
	Path string
	Args []string
	Env  []string

	logger *zap.Logger

	mu    sync.Mutex
	child *child
}

type child struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	out   *bufio.Reader

	reaped  sync.Once
	waitErr error
}

// kill stops the child and reaps it once.
func (c *child) kill() error {
	err := c.cmd.Process.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		err = nil
	}
	c.wait()
	return err
}

func (c *child) wait() error {
	c.reaped.Do(func() { c.waitErr = c.cmd.Wait() })
	return c.waitErr
}

// NewProcess creates a sender running path with args for every worker.
func NewProcess(logger *zap.Logger, path string, args ...string) *Process {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Process{Path: path, Args: args, logger: logger}
}

func (p *Process) current() (*child, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.child != nil {
		return p.child, nil
	}

	cmd := exec.Command(p.Path, p.Args...)
	cmd.Env = append(os.Environ(), p.Env...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("worker stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start worker: %w", err)
	}

	p.logger.Debug("worker started", zap.Int("pid", cmd.Process.Pid))
	p.child = &child{cmd: cmd, stdin: stdin, out: bufio.NewReader(stdout)}
	return p.child, nil
}

// Send forwards one message to the worker and waits for its answer.
func (p *Process) Send(_ context.Context, recipient, text string) error {
	c, err := p.current()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(request{Recipient: recipient, Text: text})
	if err != nil {
		return err
	}

	if _, err := c.stdin.Write(append(payload, '\n')); err != nil {
		p.drop(c)
		return fmt.Errorf("write to worker: %w", err)
	}

	line, err := c.out.ReadBytes('\n')
	if err != nil {
		p.drop(c)
		return fmt.Errorf("read from worker: %w", err)
	}

	var resp response
	if err := json.Unmarshal(line, &resp); err != nil {
		return fmt.Errorf("decode worker response: %w", err)
	}

	switch {
	case resp.Undeliverable:
		return fmt.Errorf("%w: %s", dispatch.ErrUndeliverable, resp.Error)
	case resp.Error != "":
		return errors.New(resp.Error)
	}

	return nil
}

// Terminate kills the running worker. The next Send starts a new one.
func (p *Process) Terminate() error {
	p.mu.Lock()
	c := p.child
	p.child = nil
	p.mu.Unlock()

	if c == nil {
		return nil
	}

	p.logger.Warn("killing worker", zap.Int("pid", c.cmd.Process.Pid))
	if err := c.kill(); err != nil {
		return fmt.Errorf("kill worker: %w", err)
	}
	return nil
}

// Close stops the worker gracefully by closing its input.
func (p *Process) Close() error {
	p.mu.Lock()
	c := p.child
	p.child = nil
	p.mu.Unlock()

	if c == nil {
		return nil
	}

	_ = c.stdin.Close()
	return c.wait()
}

// drop forgets c after a protocol failure and reaps it.
func (p *Process) drop(c *child) {
	p.mu.Lock()
	if p.child == c {
		p.child = nil
	}
	p.mu.Unlock()

	_ = c.kill()
}
