// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package media

import "errors"

var (
	// ErrBusy means no job slot became free within the queue timeout.
	ErrBusy = errors.New("server busy")
	// ErrNoOutput means the tool exited cleanly but wrote nothing usable.
	ErrNoOutput = errors.New("tool produced no output")
)
