// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldJobID     = "job_id"
	FieldTraceID   = "trace_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldBinary    = "binary"
	FieldPID       = "pid"
	FieldExitCode  = "exit_code"

	// Media fields
	FieldFormat = "format"
	FieldCodec  = "codec"

	// Path / HTTP fields
	FieldPath       = "path"
	FieldRoute      = "route"
	FieldMethod     = "method"
	FieldStatus     = "status"
	FieldRemoteAddr = "remote_addr"
	FieldBytes      = "bytes"
	FieldDuration   = "duration"
)
