// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

// Command x0x-task manages shared task lists from the terminal:
// local mutations against the persisted replica, sealed delta
// export/import for offline synchronization, keyring management,
// and an interactive TUI.
package main
