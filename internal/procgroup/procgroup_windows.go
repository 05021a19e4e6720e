// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build windows

package procgroup

import (
	"os/exec"
	"syscall"
)

// Set is a no-op on Windows.
func Set(cmd *exec.Cmd) {}

// Signal maps SIGKILL to Process.Kill. Windows has no reliable SIGTERM,
// so other signals are ignored and Terminate escalates after the grace.
func Signal(cmd *exec.Cmd, sig syscall.Signal) error {
	if cmd == nil || cmd.Process == nil {
		return ErrNotStarted
	}
	if sig == syscall.SIGKILL {
		if err := cmd.Process.Kill(); err != nil && !isGone(err) {
			return err
		}
	}
	return nil
}
