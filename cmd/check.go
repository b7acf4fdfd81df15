// Copyright 2026 The Packrat Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var checkCommand = &cobra.Command{
	Use:   "check <grammar-file> [grammar-file ...]",
	Short: "Check that grammar files compile",
	Long:  `Check that grammar files compile, reporting undefined labels and notation errors.`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		os.Exit(runCheck(args, os.Stdout, os.Stderr))
	},
}

func runCheck(args []string, stdout, stderr io.Writer) int {
	code := 0
	for _, path := range args {
		g, err := loadGrammar(path)
		if err != nil {
			fmt.Fprintln(stderr, "error:", err)
			code = 1
			continue
		}
		fmt.Fprintf(stdout, "%s: %d rules, default %q\n", path, len(g.Rules()), g.DefaultRule())
	}
	return code
}

func init() {
	RootCommand.AddCommand(checkCommand)
}
