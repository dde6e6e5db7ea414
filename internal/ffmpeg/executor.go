package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/exec"
	"sync"
)

// ExecResult holds the outcome of a single one-shot ffmpeg invocation.
type ExecResult struct {
	Stdout string
	Stderr string
	Err    error
}

// Execute runs a command to completion and captures its output. Used for
// version queries and test encodes.
func Execute(ctx context.Context, name string, args ...string) ExecResult {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return ExecResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
		Err:    err,
	}
}

// Process is a running ffmpeg encoder fed through its stdin.
type Process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *syncBuffer

	once    sync.Once
	waitErr error
}

// Start launches args[0] with args[1:] and returns a Process ready to
// receive raw frames. Cancelling ctx kills the child.
func Start(ctx context.Context, args []string) (*Process, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("ffmpeg: empty command")
	}
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdin: %w", err)
	}
	p := &Process{cmd: cmd, stdin: stdin, stderr: &syncBuffer{}}
	cmd.Stderr = p.stderr

	if err := cmd.Start(); err != nil {
		kind := error(nil)
		if isNotFound(err) {
			kind = ErrEncoderMissing
		}
		return nil, &ExecError{Err: err, Kind: kind}
	}
	return p, nil
}

// Write sends one raw frame. A write failure means ffmpeg has gone away;
// the process is reaped and its stderr classified.
func (p *Process) Write(frame []byte) error {
	if _, err := p.stdin.Write(frame); err != nil {
		werr := p.Close()
		var ee *ExecError
		if errors.As(werr, &ee) {
			if ee.Kind == nil {
				ee.Kind = ErrBrokenPipe
			}
			return ee
		}
		return &ExecError{Stderr: p.stderr.String(), Err: err, Kind: ErrBrokenPipe}
	}
	return nil
}

// Close ends the input stream and waits for ffmpeg to finish writing the
// container. It is safe to call more than once; later calls return the
// first result.
func (p *Process) Close() error {
	p.once.Do(func() {
		_ = p.stdin.Close()
		if err := p.cmd.Wait(); err != nil {
			stderr := p.stderr.String()
			p.waitErr = &ExecError{Stderr: stderr, Err: err, Kind: Classify(stderr)}
		}
	})
	return p.waitErr
}

func isNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist)
}

// syncBuffer guards the stderr buffer written by exec's copy goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
