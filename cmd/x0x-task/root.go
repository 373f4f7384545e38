// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/saorsa-labs/x0x-go/cmd/x0x-task/cli"
)

// rootCommand builds the full x0x-task command tree.
func rootCommand() *cli.Command {
	return &cli.Command{
		Name:    "x0x-task",
		Summary: "shared task lists that merge instead of conflict",
		Description: "x0x-task manages replicated task lists. Every mutation is a\n" +
			"CRDT operation: replicas edit independently, exchange sealed\n" +
			"deltas, and converge to the same state regardless of delivery\n" +
			"order or duplication.",
		Subcommands: []*cli.Command{
			initCommand(),
			addCommand(),
			removeCommand(),
			claimCommand(),
			completeCommand(),
			titleCommand(),
			describeCommand(),
			assignCommand(),
			priorityCommand(),
			reorderCommand(),
			listCommand(),
			nameCommand(),
			syncCommand(),
			keyringCommand(),
			importCommand(),
			diagCommand(),
			tuiCommand(),
		},
	}
}
