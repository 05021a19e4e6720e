// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by HTTP and job spans.
const (
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"

	JobOperationKey = "job.operation"
	JobFormatKey    = "job.format"
	JobBinaryKey    = "job.binary"
	JobExitCodeKey  = "job.exit_code"
	JobInputBytes   = "job.input_bytes"
	JobOutputBytes  = "job.output_bytes"
	JobQueueWaitMS  = "job.queue_wait_ms"

	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// JobAttributes describes one media job. Empty format is omitted.
func JobAttributes(operation, format string, inputBytes int64) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(JobOperationKey, operation),
		attribute.Int64(JobInputBytes, inputBytes),
	}
	if format != "" {
		attrs = append(attrs, attribute.String(JobFormatKey, format))
	}
	return attrs
}

// ProcessAttributes describes a finished external process.
func ProcessAttributes(binary string, exitCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(JobBinaryKey, binary),
		attribute.Int(JobExitCodeKey, exitCode),
	}
}

// ErrorAttributes classifies a failure; nil errors yield nothing.
func ErrorAttributes(errType string, err error) []attribute.KeyValue {
	if err == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.String(ErrorTypeKey, errType),
		attribute.String("error.message", err.Error()),
	}
}
