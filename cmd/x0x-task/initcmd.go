// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"crypto/rand"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/saorsa-labs/x0x-go/cmd/x0x-task/cli"
	"github.com/saorsa-labs/x0x-go/lib/config"
	"github.com/saorsa-labs/x0x-go/lib/ref"
)

func initCommand() *cli.Command {
	flags := &commonFlags{}
	var listName string
	return &cli.Command{
		Name:    "init",
		Summary: "create an identity and a first list",
		Description: "Init generates a peer identity, derives a list ID from the\n" +
			"list name, and writes both into the config file. Run it once\n" +
			"per replica; rerunning refuses to overwrite an existing\n" +
			"identity.",
		Usage: "x0x-task init [flags]",
		Examples: []cli.Example{
			{Description: "Bootstrap with a named list", Command: `X0X_CONFIG=~/.config/x0x.yaml x0x-task init --name "house projects"`},
		},
		Flags: func() *pflag.FlagSet {
			fs := flags.newFlagSet("init")
			fs.StringVar(&listName, "name", "tasks", "name of the initial list")
			return fs
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("init takes no arguments")
			}
			path, err := flags.configPath()
			if err != nil {
				return err
			}

			cfg := config.Default()
			if data, err := os.ReadFile(path); err == nil && len(data) > 0 {
				loaded, err := config.LoadFile(path)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if cfg.Identity.Peer != "" {
				return fmt.Errorf("%s already holds an identity; refusing to overwrite", path)
			}

			// The peer ID is the keyed digest of fresh key
			// material, the same derivation a real public key
			// would go through.
			var seed [32]byte
			if _, err := rand.Read(seed[:]); err != nil {
				return fmt.Errorf("generating peer identity: %w", err)
			}
			peer := ref.DerivePeerID(seed[:])

			listID := ref.DeriveListID(peer, time.Now().UnixMilli(), listName)
			cfg.Identity.Peer = peer.String()
			if cfg.Lists == nil {
				cfg.Lists = make(map[string]config.ListConfig)
			}
			cfg.Lists["default"] = config.ListConfig{ID: listID.String()}

			if err := cfg.Save(path); err != nil {
				return err
			}
			fmt.Printf("peer: %s\nlist %q: %s\nconfig: %s\n", peer, listName, listID, path)
			return nil
		},
	}
}
