// SPDX-License-Identifier: MIT

package media

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ManuGH/ffgate/internal/infra/ffmpeg"
)

const (
	archiveExt  = "zip"
	archiveMIME = "application/zip"
)

// segmentPrefix is the fixed part of ffmpeg.SegmentPattern.
var segmentPrefix = strings.SplitN(ffmpeg.SegmentPattern, "%", 2)[0]

// zipSegments packs the numbered segments in dir into dst. Entries are
// stored, not deflated: the segments are already compressed media.
func zipSegments(ctx context.Context, dir, ext, dst string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read segments: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasPrefix(e.Name(), segmentPrefix) && strings.HasSuffix(e.Name(), ext) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return fmt.Errorf("%w: no segments", ErrNoOutput)
	}
	// Zero-padded counters sort lexically; ffmpeg widens past 999.
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) < len(names[j])
		}
		return names[i] < names[j]
	})

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	zw := zip.NewWriter(f)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			_ = zw.Close()
			_ = f.Close()
			return err
		}
		if err := addStored(zw, filepath.Join(dir, name), name); err != nil {
			_ = zw.Close()
			_ = f.Close()
			return err
		}
	}

	if err := zw.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("finish archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	return nil
}

func addStored(zw *zip.Writer, path, name string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open segment: %w", err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("stat segment: %w", err)
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("segment header: %w", err)
	}
	hdr.Name = name
	hdr.Method = zip.Store

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("copy %s: %w", name, err)
	}
	return nil
}
