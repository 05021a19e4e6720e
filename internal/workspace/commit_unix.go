// SPDX-License-Identifier: MIT

//go:build !windows

package workspace

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/ManuGH/ffgate/internal/log"
	"github.com/google/renameio/v2"
)

// commitFile writes r to path with renameio. The bytes land in a pending
// file next to path that is fsynced and renamed into place only when
// complete, so a crash leaves a dot file the sweeper eventually removes.
func commitFile(ctx context.Context, path string, r io.Reader) (int64, error) {
	logger := log.WithComponentFromContext(ctx, "workspace")

	pending, err := renameio.NewPendingFile(path,
		renameio.WithTempDir(filepath.Dir(path)),
		renameio.WithPermissions(0o600),
	)
	if err != nil {
		return 0, fmt.Errorf("create pending upload: %w", err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending upload")
		}
	}()

	n, err := io.Copy(pending, r)
	if err != nil {
		return n, fmt.Errorf("write upload: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return n, fmt.Errorf("commit upload: %w", err)
	}
	return n, nil
}
