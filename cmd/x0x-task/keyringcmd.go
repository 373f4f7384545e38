// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/saorsa-labs/x0x-go/cmd/x0x-task/cli"
	"github.com/saorsa-labs/x0x-go/lib/keyring"
	"github.com/saorsa-labs/x0x-go/lib/ref"
)

func keyringCommand() *cli.Command {
	return &cli.Command{
		Name:    "keyring",
		Summary: "manage group master secrets",
		Description: "The keyring holds one master secret per sealing group,\n" +
			"encrypted at rest under a passphrase. Per-epoch delta keys\n" +
			"are derived from the master secret; rotating the epoch needs\n" +
			"no keyring change.",
		Subcommands: []*cli.Command{
			keyringInitCommand(),
			keyringAddGroupCommand(),
			keyringListCommand(),
		},
	}
}

// keyringPath resolves the keyring location: --keyring wins, then
// the config file's setting.
func keyringPath(flags *commonFlags, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	cfg, err := flags.loadConfig()
	if err != nil {
		return "", err
	}
	if cfg.Keyring == "" {
		return "", fmt.Errorf("no keyring configured; pass --keyring or set `keyring:` in the config")
	}
	return cfg.Keyring, nil
}

func keyringInitCommand() *cli.Command {
	flags := &commonFlags{}
	var path string
	return &cli.Command{
		Name:    "init",
		Summary: "create an empty keyring file",
		Usage:   "x0x-task keyring init --keyring <file> [flags]",
		Flags: func() *pflag.FlagSet {
			fs := flags.newFlagSet("init")
			fs.StringVar(&path, "keyring", "", "keyring file to create")
			return fs
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("keyring init takes no arguments")
			}
			target, err := keyringPath(flags, path)
			if err != nil {
				return err
			}
			if _, err := os.Stat(target); err == nil {
				return fmt.Errorf("%s already exists; refusing to overwrite", target)
			}
			passphrase, err := readPassphrase("new keyring passphrase: ")
			if err != nil {
				return err
			}
			if err := keyring.New().Save(target, passphrase); err != nil {
				return err
			}
			fmt.Printf("keyring created: %s\n", target)
			return nil
		},
	}
}

func keyringAddGroupCommand() *cli.Command {
	flags := &commonFlags{}
	var path, secretHex string
	return &cli.Command{
		Name:    "add-group",
		Summary: "add a group master secret",
		Description: "Add-group installs a group's master secret. Without --secret\n" +
			"a fresh random secret is generated and printed once, for\n" +
			"distribution to the other replicas of the group.",
		Usage: "x0x-task keyring add-group <group-hex> [flags]",
		Flags: func() *pflag.FlagSet {
			fs := flags.newFlagSet("add-group")
			fs.StringVar(&path, "keyring", "", "keyring file")
			fs.StringVar(&secretHex, "secret", "", "master secret as 64 hex chars (default: generate)")
			return fs
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one <group-hex> argument")
			}
			group, err := ref.ParseGroupID(args[0])
			if err != nil {
				return err
			}
			target, err := keyringPath(flags, path)
			if err != nil {
				return err
			}

			var secret []byte
			generated := false
			if secretHex != "" {
				secret, err = hex.DecodeString(secretHex)
				if err != nil || len(secret) != keyring.SecretSize {
					return fmt.Errorf("--secret must be %d hex-encoded bytes", keyring.SecretSize)
				}
			} else {
				secret, err = keyring.NewMasterSecret()
				if err != nil {
					return err
				}
				generated = true
			}

			passphrase, err := readPassphrase("keyring passphrase: ")
			if err != nil {
				return err
			}
			ring, err := keyring.Load(target, passphrase)
			if err != nil {
				return err
			}
			if err := ring.AddGroup(group, secret); err != nil {
				return err
			}
			if err := ring.Save(target, passphrase); err != nil {
				return err
			}
			fmt.Printf("group %s added\n", group)
			if generated {
				fmt.Printf("master secret (share with group members, then discard):\n%s\n", hex.EncodeToString(secret))
			}
			return nil
		},
	}
}

func keyringListCommand() *cli.Command {
	flags := &commonFlags{}
	var path string
	return &cli.Command{
		Name:    "list",
		Summary: "list the groups in the keyring",
		Usage:   "x0x-task keyring list [flags]",
		Flags: func() *pflag.FlagSet {
			fs := flags.newFlagSet("list")
			fs.StringVar(&path, "keyring", "", "keyring file")
			return fs
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("keyring list takes no arguments")
			}
			target, err := keyringPath(flags, path)
			if err != nil {
				return err
			}
			passphrase, err := readPassphrase("keyring passphrase: ")
			if err != nil {
				return err
			}
			ring, err := keyring.Load(target, passphrase)
			if err != nil {
				return err
			}
			for _, group := range ring.Groups() {
				fmt.Println(group)
			}
			return nil
		},
	}
}
