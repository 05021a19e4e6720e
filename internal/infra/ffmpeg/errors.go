// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ffmpeg

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOption marks a client-supplied option that failed validation.
	ErrInvalidOption = errors.New("invalid option")
	// ErrUnsupportedFormat marks a format outside the catalogue or not valid for the operation.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// FormatError names a rejected format and the formats the operation
// accepts. It unwraps to ErrUnsupportedFormat.
type FormatError struct {
	Name      string
	Supported []string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnsupportedFormat, e.Name)
}

func (e *FormatError) Unwrap() error { return ErrUnsupportedFormat }

// ExitError reports a tool that ran and exited unsuccessfully.
type ExitError struct {
	// Tool is the logical name ("ffmpeg", "ffprobe"), not the binary path.
	Tool     string
	ExitCode int
	// Stderr holds the last lines the tool wrote to stderr.
	Stderr string
	Err    error
}

func (e *ExitError) Error() string {
	if e.ExitCode < 0 {
		return fmt.Sprintf("%s terminated by signal", e.Tool)
	}
	return fmt.Sprintf("%s exited with code %d", e.Tool, e.ExitCode)
}

func (e *ExitError) Unwrap() error { return e.Err }

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOption, fmt.Sprintf(format, args...))
}
