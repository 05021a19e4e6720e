// SPDX-License-Identifier: MIT

//go:build windows

package workspace

import (
	"context"
	"fmt"
	"io"
	"os"
)

// commitFile writes r to path. renameio has no Windows support, so a
// partial file is removed on failure instead.
func commitFile(_ context.Context, path string, r io.Reader) (int64, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return 0, fmt.Errorf("create upload: %w", err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return n, fmt.Errorf("write upload: %w", err)
	}
	return n, nil
}
