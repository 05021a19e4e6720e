// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "errors"

var (
	// ErrConfigFileNotFound is returned when an explicit config path does not exist.
	ErrConfigFileNotFound = errors.New("config file not found")

	// ErrInvalidConfigFile is returned when the YAML cannot be decoded or has unknown keys.
	ErrInvalidConfigFile = errors.New("invalid config file")
)
