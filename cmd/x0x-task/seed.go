// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"

	"github.com/saorsa-labs/x0x-go/cmd/x0x-task/cli"
	"github.com/saorsa-labs/x0x-go/lib/tasklist"
)

// seedFile is the shape of a task seed file: JSON with comments and
// trailing commas allowed.
type seedFile struct {
	// Name optionally sets the list name.
	Name string `json:"name"`

	Tasks []seedTask `json:"tasks"`
}

type seedTask struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	// Priority is a display name: none, low, medium, high, urgent.
	Priority string `json:"priority"`
}

func importCommand() *cli.Command {
	flags := &commonFlags{}
	return &cli.Command{
		Name:    "import",
		Summary: "seed tasks from a JSONC file",
		Description: "Import bulk-creates tasks from a JSON file (comments and\n" +
			"trailing commas allowed). Each entry becomes a regular\n" +
			"AddTask mutation, so imports merge with concurrent edits\n" +
			"like any other change.",
		Usage: "x0x-task import <file> [flags]",
		Examples: []cli.Example{
			{Description: "Seed a fresh list", Command: "x0x-task import backlog.jsonc"},
		},
		Flags: func() *pflag.FlagSet { return flags.newFlagSet("import") },
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one <file> argument")
			}
			data, err := readInput(args[0])
			if err != nil {
				return err
			}
			var seed seedFile
			if err := json.Unmarshal(jsonc.ToJSON(data), &seed); err != nil {
				return fmt.Errorf("parsing %s: %w", args[0], err)
			}
			if len(seed.Tasks) == 0 && seed.Name == "" {
				return fmt.Errorf("%s contains no tasks", args[0])
			}

			return withSession(flags, func(ctx context.Context, s *session) error {
				if seed.Name != "" {
					if err := s.engine.UpdateName(ctx, seed.Name); err != nil {
						return err
					}
				}
				for i, entry := range seed.Tasks {
					if entry.Title == "" {
						return fmt.Errorf("task %d has no title", i)
					}
					id, err := s.engine.AddTask(ctx, entry.Title, entry.Description)
					if err != nil {
						return err
					}
					if entry.Priority != "" {
						priority, err := tasklist.ParsePriority(entry.Priority)
						if err != nil {
							return fmt.Errorf("task %d: %w", i, err)
						}
						if err := s.engine.UpdatePriority(ctx, id, priority); err != nil {
							return err
						}
					}
				}
				fmt.Printf("imported %d tasks\n", len(seed.Tasks))
				return nil
			})
		},
	}
}
