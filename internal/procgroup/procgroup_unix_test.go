// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build linux

package procgroup

import (
	"errors"
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startGroup(t *testing.T, script string) (*exec.Cmd, <-chan error) {
	t.Helper()
	cmd := exec.Command("sh", "-c", script)
	Set(cmd)
	require.NoError(t, cmd.Start())

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	// give sh a moment to fork its children
	time.Sleep(100 * time.Millisecond)
	return cmd, waitCh
}

func TestSet_MakesGroupLeader(t *testing.T) {
	cmd, waitCh := startGroup(t, "sleep 10")
	pid := cmd.Process.Pid

	pgid, err := syscall.Getpgid(pid)
	require.NoError(t, err)
	assert.Equal(t, pid, pgid, "process should lead its own group")

	require.NoError(t, Signal(cmd, syscall.SIGKILL))
	<-waitCh
}

func TestTerminate_GracefulExit(t *testing.T) {
	cmd, waitCh := startGroup(t, "sleep 10 & sleep 10")
	pgid := cmd.Process.Pid

	err := Terminate(cmd, waitCh, 2*time.Second)
	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr), "expected exit error, got %v", err)

	status, ok := exitErr.Sys().(syscall.WaitStatus)
	require.True(t, ok)
	assert.Equal(t, syscall.SIGTERM, status.Signal())

	assert.Eventually(t, func() bool {
		return errors.Is(syscall.Kill(-pgid, syscall.Signal(0)), syscall.ESRCH)
	}, 2*time.Second, 20*time.Millisecond, "process group should be gone")
}

func TestTerminate_EscalatesToSIGKILL(t *testing.T) {
	cmd, waitCh := startGroup(t, "trap '' TERM; while :; do sleep 0.05; done")
	pgid := cmd.Process.Pid

	start := time.Now()
	err := Terminate(cmd, waitCh, 200*time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)

	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr), "expected exit error, got %v", err)
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	require.True(t, ok)
	assert.Equal(t, syscall.SIGKILL, status.Signal())

	assert.Eventually(t, func() bool {
		return errors.Is(syscall.Kill(-pgid, syscall.Signal(0)), syscall.ESRCH)
	}, 2*time.Second, 20*time.Millisecond)
}

func TestTerminate_AlreadyExited(t *testing.T) {
	cmd := exec.Command("true")
	Set(cmd)
	require.NoError(t, cmd.Start())
	waitCh := make(chan error, 1)
	waitCh <- cmd.Wait()

	assert.NoError(t, Terminate(cmd, waitCh, 50*time.Millisecond))
}

func TestSignal_NotStarted(t *testing.T) {
	assert.ErrorIs(t, Signal(exec.Command("true"), syscall.SIGTERM), ErrNotStarted)
	assert.NoError(t, Terminate(nil, nil, time.Millisecond))
}
