// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/saorsa-labs/x0x-go/cmd/x0x-task/cli"
	"github.com/saorsa-labs/x0x-go/lib/codec"
	"github.com/saorsa-labs/x0x-go/lib/sealed"
)

func diagCommand() *cli.Command {
	var sealedInput bool
	return &cli.Command{
		Name:    "diag",
		Summary: "dump a delta or snapshot in CBOR diagnostic notation",
		Description: "Diag decodes a CBOR payload and prints it in diagnostic\n" +
			"notation for inspection. For sealed delta files it prints\n" +
			"the envelope header (group, epoch, ciphertext size) without\n" +
			"needing any key.",
		Usage: "x0x-task diag <file> [flags]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("diag", pflag.ContinueOnError)
			fs.BoolVar(&sealedInput, "sealed", false, "treat the input as a sealed delta envelope")
			return fs
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one <file> argument")
			}
			data, err := readInput(args[0])
			if err != nil {
				return err
			}

			if sealedInput {
				encrypted, err := sealed.Decode(data)
				if err != nil {
					return err
				}
				fmt.Printf("group: %s\nepoch: %d\nciphertext: %d bytes\n",
					encrypted.Group, encrypted.Epoch, len(encrypted.Ciphertext))
				return nil
			}

			diag, err := codec.Diagnose(data)
			if err != nil {
				return err
			}
			fmt.Println(diag)
			return nil
		},
	}
}
