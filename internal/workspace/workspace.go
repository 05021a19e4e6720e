// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package workspace owns the temporary directories requests read from and
// write to. Every file is named with a random UUID so concurrent requests
// never collide.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ManuGH/ffgate/internal/log"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	uploadsDir = "uploads"
	outputsDir = "outputs"
	dirPerm    = 0o750
	maxExtLen  = 10
)

// Workspace is a root directory with an uploads/ and an outputs/ subdirectory.
type Workspace struct {
	root    string
	uploads string
	outputs string
	logger  zerolog.Logger
}

// New creates (if needed) the directory layout below root.
func New(root string) (*Workspace, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("workspace root is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}
	w := &Workspace{
		root:    abs,
		uploads: filepath.Join(abs, uploadsDir),
		outputs: filepath.Join(abs, outputsDir),
		logger:  log.WithComponent("workspace"),
	}
	for _, dir := range []string{w.uploads, w.outputs} {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return w, nil
}

func (w *Workspace) Root() string       { return w.root }
func (w *Workspace) UploadsDir() string { return w.uploads }
func (w *Workspace) OutputsDir() string { return w.outputs }

// Dirs returns the directories the sweeper scans.
func (w *Workspace) Dirs() []string {
	return []string{w.uploads, w.outputs}
}

// SaveUpload streams r into a new file in uploads/ and returns its path and
// size. The file only becomes visible under its final name once fully
// written. ext is taken from the client's filename and sanitized.
func (w *Workspace) SaveUpload(ctx context.Context, r io.Reader, ext string) (string, int64, error) {
	path := filepath.Join(w.uploads, uuid.NewString()+SanitizeExt(ext))
	n, err := commitFile(ctx, path, r)
	if err != nil {
		return "", n, err
	}
	return path, n, nil
}

// OutputPath reserves a unique file name in outputs/ with the given extension.
// The file itself is created by the external tool.
func (w *Workspace) OutputPath(ext string) string {
	return filepath.Join(w.outputs, uuid.NewString()+SanitizeExt(ext))
}

// SegmentDir creates an empty, uniquely named directory in outputs/ for
// multi-file results.
func (w *Workspace) SegmentDir() (string, error) {
	dir := filepath.Join(w.outputs, uuid.NewString())
	if err := os.Mkdir(dir, dirPerm); err != nil {
		return "", fmt.Errorf("create segment dir: %w", err)
	}
	return dir, nil
}

// Remove deletes paths (files or directories) best effort. Failures are
// logged, never returned: the sweeper catches anything left behind.
func (w *Workspace) Remove(ctx context.Context, paths ...string) {
	logger := log.WithContext(ctx, w.logger)
	for _, p := range paths {
		if p == "" {
			continue
		}
		if !w.contains(p) {
			logger.Warn().
				Str(log.FieldEvent, "workspace.remove_outside").
				Str(log.FieldPath, p).
				Msg("refusing to remove path outside workspace")
			continue
		}
		if err := os.RemoveAll(p); err != nil {
			logger.Warn().
				Err(err).
				Str(log.FieldEvent, "workspace.remove_failed").
				Str(log.FieldPath, p).
				Msg("failed to remove temp file")
		}
	}
}

func (w *Workspace) contains(p string) bool {
	rel, err := filepath.Rel(w.root, filepath.Clean(p))
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// SanitizeExt lowercases ext, adds the leading dot and drops anything that
// is not a short alphanumeric extension.
func SanitizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if ext == "" || len(ext) > maxExtLen {
		return ""
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return "." + ext
}
