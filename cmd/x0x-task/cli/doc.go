// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command tree framework for x0x-task:
// declarative command definitions with pflag flag sets, structured
// help output, and typo suggestions for unknown commands and flags.
package cli
