// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

// Package config loads the x0x configuration file.
//
// Configuration comes from a single YAML file specified by:
//   - the X0X_CONFIG environment variable, or
//   - the --config flag passed to the command
//
// There are no fallbacks or automatic discovery. Environment
// variables never override file values; the only expansion performed
// is ${VAR} and ${VAR:-default} in path fields, for portability.
package config
