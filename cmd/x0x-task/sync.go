// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/saorsa-labs/x0x-go/cmd/x0x-task/cli"
	"github.com/saorsa-labs/x0x-go/lib/codec"
	"github.com/saorsa-labs/x0x-go/lib/crdt"
	"github.com/saorsa-labs/x0x-go/lib/sealed"
)

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:    "sync",
		Summary: "exchange sealed deltas through files",
		Description: "Sync moves state between replicas without a live transport:\n" +
			"export writes a sealed delta file, import applies one. The\n" +
			"files are safe to relay over any channel; they are\n" +
			"authenticated and bound to the group and key epoch.",
		Subcommands: []*cli.Command{
			syncExportCommand(),
			syncImportCommand(),
		},
	}
}

func syncExportCommand() *cli.Command {
	flags := &commonFlags{}
	var out, markerPath string
	return &cli.Command{
		Name:    "export",
		Summary: "write a sealed delta file",
		Description: "Export produces the delta covering everything the receiver\n" +
			"has not seen. The receiver's knowledge comes from a marker\n" +
			"file (its version vector, produced by a previous export);\n" +
			"without one the delta carries the full state, which any\n" +
			"replica can bootstrap from.",
		Usage: "x0x-task sync export --out <file> [flags]",
		Examples: []cli.Example{
			{Description: "Full-state bootstrap file", Command: "x0x-task sync export --out bootstrap.x0x"},
			{Description: "Incremental since the last exchange", Command: "x0x-task sync export --out delta.x0x --marker peer-b.marker"},
		},
		Flags: func() *pflag.FlagSet {
			fs := flags.newFlagSet("export")
			fs.StringVar(&out, "out", "", "output file for the sealed delta (required)")
			fs.StringVar(&markerPath, "marker", "", "marker file holding the receiver's version vector; updated after export")
			return fs
		},
		Run: func(args []string) error {
			if len(args) != 0 || out == "" {
				return fmt.Errorf("export takes no arguments and requires --out")
			}
			ctx := context.Background()
			s, err := openSession(ctx, flags, true)
			if err != nil {
				return err
			}
			defer s.close()

			since := crdt.NewVersion()
			if markerPath != "" {
				if data, err := os.ReadFile(markerPath); err == nil {
					if err := codec.Unmarshal(data, &since); err != nil {
						return fmt.Errorf("parsing marker %s: %w", markerPath, err)
					}
				} else if !os.IsNotExist(err) {
					return err
				}
			}

			delta := s.engine.ProduceDelta(since)
			if delta.Empty() {
				fmt.Fprintln(os.Stderr, "receiver is caught up; nothing to export")
				return nil
			}
			key, err := s.keys.ResolveKey(ctx, s.group, s.epoch)
			if err != nil {
				return err
			}
			encrypted, err := sealed.Seal(delta, s.group, s.epoch, key)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, encrypted.Encode(), 0o644); err != nil {
				return err
			}

			if markerPath != "" {
				marker, err := codec.Marshal(s.engine.Version())
				if err != nil {
					return err
				}
				if err := os.WriteFile(markerPath, marker, 0o644); err != nil {
					return err
				}
			}
			fmt.Printf("exported %s (epoch %d)\n", out, s.epoch)
			return nil
		},
	}
}

func syncImportCommand() *cli.Command {
	flags := &commonFlags{}
	var in string
	return &cli.Command{
		Name:    "import",
		Summary: "apply a sealed delta file",
		Usage:   "x0x-task sync import --in <file> [flags]",
		Flags: func() *pflag.FlagSet {
			fs := flags.newFlagSet("import")
			fs.StringVar(&in, "in", "", "sealed delta file to apply (required)")
			return fs
		},
		Run: func(args []string) error {
			if len(args) != 0 || in == "" {
				return fmt.Errorf("import takes no arguments and requires --in")
			}
			ctx := context.Background()
			s, err := openSession(ctx, flags, true)
			if err != nil {
				return err
			}
			defer s.close()

			payload, err := os.ReadFile(in)
			if err != nil {
				return err
			}
			if err := s.engine.HandleIncoming(ctx, payload); err != nil {
				return err
			}
			fmt.Printf("applied %s; %d tasks on the list\n", in, len(s.engine.TasksOrdered()))
			return nil
		},
	}
}
