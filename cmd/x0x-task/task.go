// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/saorsa-labs/x0x-go/cmd/x0x-task/cli"
	"github.com/saorsa-labs/x0x-go/lib/ref"
	"github.com/saorsa-labs/x0x-go/lib/tasklist"
)

// withSession runs fn inside an open session, flushing and closing
// afterwards.
func withSession(flags *commonFlags, fn func(ctx context.Context, s *session) error) error {
	ctx := context.Background()
	s, err := openSession(ctx, flags, false)
	if err != nil {
		return err
	}
	runErr := fn(ctx, s)
	if closeErr := s.close(); runErr == nil {
		runErr = closeErr
	}
	return runErr
}

func addCommand() *cli.Command {
	flags := &commonFlags{}
	var description string
	return &cli.Command{
		Name:    "add",
		Summary: "add a task",
		Usage:   "x0x-task add <title> [flags]",
		Examples: []cli.Example{
			{Description: "Add a task with a description", Command: `x0x-task add "fix the roof" --description "before winter"`},
		},
		Flags: func() *pflag.FlagSet {
			fs := flags.newFlagSet("add")
			fs.StringVar(&description, "description", "", "task description (markdown)")
			return fs
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one title argument")
			}
			return withSession(flags, func(ctx context.Context, s *session) error {
				id, err := s.engine.AddTask(ctx, args[0], description)
				if err != nil {
					return err
				}
				fmt.Println(id)
				return nil
			})
		},
	}
}

func removeCommand() *cli.Command {
	flags := &commonFlags{}
	return &cli.Command{
		Name:    "remove",
		Summary: "remove a task from the list",
		Usage:   "x0x-task remove <task> [flags]",
		Flags:   func() *pflag.FlagSet { return flags.newFlagSet("remove") },
		Run: func(args []string) error {
			return taskAction(flags, args, func(ctx context.Context, s *session, id ref.TaskID) error {
				return s.engine.RemoveTask(ctx, id)
			})
		},
	}
}

func claimCommand() *cli.Command {
	flags := &commonFlags{}
	return &cli.Command{
		Name:    "claim",
		Summary: "claim a task for this peer",
		Usage:   "x0x-task claim <task> [flags]",
		Flags:   func() *pflag.FlagSet { return flags.newFlagSet("claim") },
		Run: func(args []string) error {
			return taskAction(flags, args, func(ctx context.Context, s *session, id ref.TaskID) error {
				return s.engine.ClaimTask(ctx, id)
			})
		},
	}
}

func completeCommand() *cli.Command {
	flags := &commonFlags{}
	return &cli.Command{
		Name:    "complete",
		Summary: "mark a task done",
		Usage:   "x0x-task complete <task> [flags]",
		Flags:   func() *pflag.FlagSet { return flags.newFlagSet("complete") },
		Run: func(args []string) error {
			return taskAction(flags, args, func(ctx context.Context, s *session, id ref.TaskID) error {
				return s.engine.CompleteTask(ctx, id)
			})
		},
	}
}

func titleCommand() *cli.Command {
	flags := &commonFlags{}
	return &cli.Command{
		Name:    "title",
		Summary: "rewrite a task's title",
		Usage:   "x0x-task title <task> <new-title> [flags]",
		Flags:   func() *pflag.FlagSet { return flags.newFlagSet("title") },
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected <task> and <new-title>")
			}
			return taskAction(flags, args[:1], func(ctx context.Context, s *session, id ref.TaskID) error {
				return s.engine.UpdateTitle(ctx, id, args[1])
			})
		},
	}
}

func describeCommand() *cli.Command {
	flags := &commonFlags{}
	var fromFile string
	return &cli.Command{
		Name:    "describe",
		Summary: "rewrite a task's description",
		Usage:   "x0x-task describe <task> [<description>] [flags]",
		Flags: func() *pflag.FlagSet {
			fs := flags.newFlagSet("describe")
			fs.StringVar(&fromFile, "from-file", "", "read the description from a file (\"-\" for stdin)")
			return fs
		},
		Run: func(args []string) error {
			if len(args) < 1 {
				return fmt.Errorf("expected a <task> argument")
			}
			var description string
			switch {
			case fromFile == "" && len(args) == 2:
				description = args[1]
			case fromFile != "" && len(args) == 1:
				data, err := readInput(fromFile)
				if err != nil {
					return err
				}
				description = string(data)
			default:
				return fmt.Errorf("pass either a description argument or --from-file")
			}
			return taskAction(flags, args[:1], func(ctx context.Context, s *session, id ref.TaskID) error {
				return s.engine.UpdateDescription(ctx, id, description)
			})
		},
	}
}

func assignCommand() *cli.Command {
	flags := &commonFlags{}
	return &cli.Command{
		Name:    "assign",
		Summary: "assign a task to a peer",
		Usage:   "x0x-task assign <task> <peer-hex|none> [flags]",
		Flags:   func() *pflag.FlagSet { return flags.newFlagSet("assign") },
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected <task> and <peer-hex|none>")
			}
			var assignee ref.PeerID
			if args[1] != "none" {
				parsed, err := ref.ParsePeerID(args[1])
				if err != nil {
					return err
				}
				assignee = parsed
			}
			return taskAction(flags, args[:1], func(ctx context.Context, s *session, id ref.TaskID) error {
				return s.engine.UpdateAssignee(ctx, id, assignee)
			})
		},
	}
}

func priorityCommand() *cli.Command {
	flags := &commonFlags{}
	return &cli.Command{
		Name:    "priority",
		Summary: "set a task's priority",
		Usage:   "x0x-task priority <task> <none|low|medium|high|urgent> [flags]",
		Flags:   func() *pflag.FlagSet { return flags.newFlagSet("priority") },
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected <task> and a priority level")
			}
			priority, err := tasklist.ParsePriority(args[1])
			if err != nil {
				return err
			}
			return taskAction(flags, args[:1], func(ctx context.Context, s *session, id ref.TaskID) error {
				return s.engine.UpdatePriority(ctx, id, priority)
			})
		},
	}
}

func reorderCommand() *cli.Command {
	flags := &commonFlags{}
	return &cli.Command{
		Name:    "reorder",
		Summary: "rewrite the display order",
		Description: "Reorder takes the complete new order as task references, one\n" +
			"per argument. Every live task must appear exactly once.",
		Usage: "x0x-task reorder <task>... [flags]",
		Flags: func() *pflag.FlagSet { return flags.newFlagSet("reorder") },
		Run: func(args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("expected the full task order as arguments")
			}
			return withSession(flags, func(ctx context.Context, s *session) error {
				order := make([]ref.TaskID, 0, len(args))
				for _, raw := range args {
					id, err := resolveTask(s.engine, raw)
					if err != nil {
						return err
					}
					order = append(order, id)
				}
				return s.engine.Reorder(ctx, order)
			})
		},
	}
}

func listCommand() *cli.Command {
	flags := &commonFlags{}
	var showAll bool
	return &cli.Command{
		Name:    "list",
		Summary: "show the ordered task list",
		Usage:   "x0x-task list [flags]",
		Flags: func() *pflag.FlagSet {
			fs := flags.newFlagSet("list")
			fs.BoolVar(&showAll, "all", false, "include completed tasks (default: hide done)")
			return fs
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("list takes no arguments")
			}
			return withSession(flags, func(ctx context.Context, s *session) error {
				if name := s.engine.Name(); name != "" {
					fmt.Printf("%s\n\n", name)
				}
				tasks := s.engine.TasksOrdered()
				if !showAll {
					visible := tasks[:0]
					for _, task := range tasks {
						if task.State != tasklist.StateDone {
							visible = append(visible, task)
						}
					}
					tasks = visible
				}
				printTasks(os.Stdout, tasks)
				return nil
			})
		},
	}
}

func nameCommand() *cli.Command {
	flags := &commonFlags{}
	return &cli.Command{
		Name:    "name",
		Summary: "show or set the list name",
		Usage:   "x0x-task name [<new-name>] [flags]",
		Flags:   func() *pflag.FlagSet { return flags.newFlagSet("name") },
		Run: func(args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("expected at most one <new-name> argument")
			}
			return withSession(flags, func(ctx context.Context, s *session) error {
				if len(args) == 0 {
					fmt.Println(s.engine.Name())
					return nil
				}
				return s.engine.UpdateName(ctx, args[0])
			})
		},
	}
}

// taskAction resolves a single task reference and runs one mutation
// against it.
func taskAction(flags *commonFlags, args []string, fn func(ctx context.Context, s *session, id ref.TaskID) error) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one <task> argument")
	}
	return withSession(flags, func(ctx context.Context, s *session) error {
		id, err := resolveTask(s.engine, args[0])
		if err != nil {
			return err
		}
		if err := fn(ctx, s, id); err != nil {
			if errors.Is(err, tasklist.ErrUnknownTask) {
				return fmt.Errorf("task %s is not on the list", args[0])
			}
			return err
		}
		return nil
	})
}

// readInput reads a file argument, with "-" meaning stdin.
func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(strings.TrimSpace(path))
	if err != nil {
		return nil, err
	}
	return data, nil
}
