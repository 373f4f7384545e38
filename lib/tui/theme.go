// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package tui

import "github.com/charmbracelet/lipgloss"

// Theme holds the color assignments for the task view. Fields are
// lipgloss colors so styles can be built per-render at the current
// width.
type Theme struct {
	NormalText   lipgloss.Color
	FaintText    lipgloss.Color
	Header       lipgloss.Color
	Border       lipgloss.Color
	Selected     lipgloss.Color
	SelectedText lipgloss.Color
	Claimed      lipgloss.Color
	Done         lipgloss.Color
	Urgent       lipgloss.Color
	MatchHit     lipgloss.Color
}

// DefaultTheme is tuned for dark terminals with 256-color support.
func DefaultTheme() Theme {
	return Theme{
		NormalText:   lipgloss.Color("252"),
		FaintText:    lipgloss.Color("243"),
		Header:       lipgloss.Color("81"),
		Border:       lipgloss.Color("238"),
		Selected:     lipgloss.Color("237"),
		SelectedText: lipgloss.Color("255"),
		Claimed:      lipgloss.Color("179"),
		Done:         lipgloss.Color("71"),
		Urgent:       lipgloss.Color("203"),
		MatchHit:     lipgloss.Color("212"),
	}
}
