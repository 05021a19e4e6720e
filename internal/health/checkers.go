// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	binaryCheckTimeout = 5 * time.Second
	binaryCacheTTL     = 30 * time.Second
)

// BinaryChecker verifies that an external tool can be executed by running
// "<bin> -version". Results are cached briefly and concurrent probes share
// one execution, so a burst of readiness probes spawns one process.
type BinaryChecker struct {
	name string
	path string
	ttl  time.Duration

	group singleflight.Group

	mu      sync.Mutex
	last    CheckResult
	checked time.Time
}

// NewBinaryChecker creates a checker for the binary at path (or in PATH).
func NewBinaryChecker(name, path string) *BinaryChecker {
	return &BinaryChecker{name: name, path: path, ttl: binaryCacheTTL}
}

func (c *BinaryChecker) Name() string {
	return c.name
}

func (c *BinaryChecker) Check(ctx context.Context) CheckResult {
	if res, ok := c.cached(); ok {
		return res
	}

	v, _, _ := c.group.Do(c.name, func() (any, error) {
		if res, ok := c.cached(); ok {
			return res, nil
		}
		res := c.run(ctx)
		c.mu.Lock()
		c.last, c.checked = res, time.Now()
		c.mu.Unlock()
		return res, nil
	})
	return v.(CheckResult)
}

func (c *BinaryChecker) cached() (CheckResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.checked.IsZero() || time.Since(c.checked) >= c.ttl {
		return CheckResult{}, false
	}
	return c.last, true
}

func (c *BinaryChecker) run(ctx context.Context) CheckResult {
	bin, err := exec.LookPath(c.path)
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: "binary not found", Message: c.path}
	}

	ctx, cancel := context.WithTimeout(ctx, binaryCheckTimeout)
	defer cancel()

	// #nosec G204 -- binary path comes from operator config
	out, err := exec.CommandContext(ctx, bin, "-version").Output()
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error(), Message: bin}
	}
	return CheckResult{Status: StatusHealthy, Message: firstLine(out)}
}

func firstLine(b []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(b))
	if sc.Scan() {
		return sc.Text()
	}
	return ""
}

// DirChecker verifies that a directory exists and is writable.
type DirChecker struct {
	name string
	path string
}

// NewDirChecker creates a checker for a workspace directory.
func NewDirChecker(name, path string) *DirChecker {
	return &DirChecker{name: name, path: path}
}

func (c *DirChecker) Name() string {
	return c.name
}

func (c *DirChecker) Check(_ context.Context) CheckResult {
	if err := checkWritableDir(c.path); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error(), Message: c.path}
	}
	return CheckResult{Status: StatusHealthy, Message: "writable"}
}

func checkWritableDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("directory does not exist: %s", path)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	f, err := os.CreateTemp(path, ".write_test-*")
	if err != nil {
		return fmt.Errorf("directory is not writable: %s (error: %v)", path, err)
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(filepath.Clean(name))
	return nil
}
