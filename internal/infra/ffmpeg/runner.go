// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/ManuGH/ffgate/internal/log"
	"github.com/ManuGH/ffgate/internal/procgroup"
	"github.com/rs/zerolog"
)

const (
	stderrTailLines = 40
	stderrTailBytes = 4096
	maxStdoutBytes  = 16 << 20
)

// Runner runs one tool invocation to completion.
type Runner interface {
	Run(ctx context.Context, args []string) error
}

// Executor runs an external binary in its own process group. Cancelling
// ctx terminates the whole group (SIGTERM, then SIGKILL after KillGrace).
type Executor struct {
	// Tool is the logical name used in errors and logs.
	Tool       string
	BinaryPath string
	KillGrace  time.Duration
	Logger     zerolog.Logger

	// stdoutLimit caps what Output keeps in memory.
	stdoutLimit int64
}

var _ Runner = (*Executor)(nil)

func NewExecutor(tool, binaryPath string, killGrace time.Duration, logger zerolog.Logger) *Executor {
	if binaryPath == "" {
		binaryPath = tool
	}
	if killGrace <= 0 {
		killGrace = 5 * time.Second
	}
	return &Executor{
		Tool:       tool,
		BinaryPath: binaryPath,
		KillGrace:  killGrace,
		Logger:     logger,

		stdoutLimit: maxStdoutBytes,
	}
}

// Run executes the binary and discards stdout.
func (e *Executor) Run(ctx context.Context, args []string) error {
	return e.run(ctx, args, io.Discard)
}

// Output executes the binary and returns stdout. Output past the limit is
// drained and reported once the process has exited.
func (e *Executor) Output(ctx context.Context, args []string) ([]byte, error) {
	limit := e.stdoutLimit
	if limit <= 0 {
		limit = maxStdoutBytes
	}
	var buf bytes.Buffer
	lw := &limitedWriter{w: &buf, n: limit}
	if err := e.run(ctx, args, lw); err != nil {
		return nil, err
	}
	if lw.overflow {
		return nil, fmt.Errorf("%s: output exceeds %d bytes", e.Tool, limit)
	}
	return buf.Bytes(), nil
}

func (e *Executor) run(ctx context.Context, args []string, stdout io.Writer) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", e.Tool, err)
	}

	// #nosec G204 -- binary comes from operator config; args are built from validated options
	cmd := exec.Command(e.BinaryPath, args...)
	procgroup.Set(cmd)
	cmd.Stdout = stdout

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("%s: stderr pipe: %w", e.Tool, err)
	}

	logger := log.WithContext(ctx, e.Logger)
	start := time.Now()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", e.Tool, err)
	}

	pid := cmd.Process.Pid
	logger.Debug().
		Str(log.FieldEvent, "process.start").
		Str(log.FieldBinary, e.Tool).
		Int(log.FieldPID, pid).
		Strs("args", args).
		Msg("process started")

	ring := NewRingBuffer(stderrTailLines)
	waitCh := make(chan error, 1)
	go func() {
		collectLines(stderr, ring)
		waitCh <- cmd.Wait()
	}()

	var waitErr error
	select {
	case waitErr = <-waitCh:
	case <-ctx.Done():
		_ = procgroup.Terminate(cmd, waitCh, e.KillGrace)
		logger.Warn().
			Str(log.FieldEvent, "process.canceled").
			Str(log.FieldBinary, e.Tool).
			Int(log.FieldPID, pid).
			Dur(log.FieldDuration, time.Since(start)).
			Err(ctx.Err()).
			Msg("process terminated")
		return fmt.Errorf("%s: %w", e.Tool, ctx.Err())
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return fmt.Errorf("%s: wait: %w", e.Tool, waitErr)
		}
		xe := &ExitError{
			Tool:     e.Tool,
			ExitCode: exitErr.ExitCode(),
			Stderr:   ring.Tail(stderrTailBytes),
			Err:      waitErr,
		}
		logger.Warn().
			Str(log.FieldEvent, "process.failed").
			Str(log.FieldBinary, e.Tool).
			Int(log.FieldPID, pid).
			Int(log.FieldExitCode, xe.ExitCode).
			Dur(log.FieldDuration, time.Since(start)).
			Str("stderr_tail", lastLine(xe.Stderr)).
			Msg("process exited with error")
		return xe
	}

	logger.Debug().
		Str(log.FieldEvent, "process.exit").
		Str(log.FieldBinary, e.Tool).
		Int(log.FieldPID, pid).
		Dur(log.FieldDuration, time.Since(start)).
		Msg("process finished")
	return nil
}

// collectLines feeds r into ring line by line. ffmpeg rewrites progress
// lines with '\r', so both separators end a line. Reading continues to EOF
// even past an oversized line so the child never blocks on a full pipe.
func collectLines(r io.Reader, ring *RingBuffer) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 64*1024)
	sc.Split(scanCRLF)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			ring.Add(line)
		}
	}
	_, _ = io.Copy(io.Discard, r)
}

func scanCRLF(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// limitedWriter keeps the first n bytes and discards the rest. It never
// fails, so the pipe keeps draining and the child cannot block on it.
type limitedWriter struct {
	w        io.Writer
	n        int64
	overflow bool
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	if l.overflow {
		return len(p), nil
	}
	if int64(len(p)) > l.n {
		l.overflow = true
		return len(p), nil
	}
	n, err := l.w.Write(p)
	l.n -= int64(n)
	return n, err
}
