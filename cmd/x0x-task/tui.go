// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/saorsa-labs/x0x-go/cmd/x0x-task/cli"
	"github.com/saorsa-labs/x0x-go/lib/tui"
)

func tuiCommand() *cli.Command {
	flags := &commonFlags{}
	return &cli.Command{
		Name:    "tui",
		Summary: "browse and edit the list interactively",
		Description: "Tui opens the full-screen task view: an ordered table with\n" +
			"claim, complete, add, and remove keybindings, a fuzzy filter,\n" +
			"and a markdown-rendered description pane. Changes persist to\n" +
			"the store as they happen.",
		Usage: "x0x-task tui [flags]",
		Flags: func() *pflag.FlagSet {
			return flags.newFlagSet("tui")
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("unexpected arguments: %v", args)
			}
			ctx := context.Background()
			s, err := openSession(ctx, flags, false)
			if err != nil {
				return err
			}
			defer s.close()

			program := tea.NewProgram(tui.NewModel(s.engine), tea.WithAltScreen())
			_, err = program.Run()
			return err
		},
	}
}
