// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

// Package tui is the interactive terminal view of one replica: an
// ordered task table with claim/complete/add/remove keybindings, a
// fuzzy filter, and a markdown-rendered description pane.
//
// The model treats the engine as the single source of truth. It
// holds no task state of its own: every change — a local keypress
// or a remote delta merged by the engine — lands as a refresh
// message that re-reads the ordered snapshot. Remote-supplied
// strings are ANSI-stripped before they reach the renderer.
package tui
