// Copyright 2026 The Packrat Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/packrat-dev/packrat/peg"
)

var rulesCommand = &cobra.Command{
	Use:   "rules <grammar-file>",
	Short: "List the rules of a grammar",
	Long:  `List the rules of a grammar in definition order, with their definitions rendered back into rule notation.`,
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		os.Exit(runRules(args, os.Stdout, os.Stderr))
	},
}

func runRules(args []string, stdout, stderr io.Writer) int {
	g, err := loadGrammar(args[0])
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	table := tablewriter.NewWriter(stdout)
	table.SetHeader([]string{"Rule", "Definition"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	for _, name := range g.Rules() {
		display := name
		if name == g.DefaultRule() {
			display += " (default)"
		}
		table.Append([]string{display, peg.ExprString(g.Rule(name))})
	}
	table.Render()
	return 0
}

func init() {
	RootCommand.AddCommand(rulesCommand)
}
