// Copyright 2026 The Packrat Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/packrat-dev/packrat/peg"
)

type parseParams struct {
	rule    string
	partial bool
}

var configuredParseParams parseParams

var parseCommand = &cobra.Command{
	Use:   "parse <grammar-file> [input-file]",
	Short: "Parse text with a grammar",
	Long: `Parse text with a grammar and print the resulting tree.

The input is read from the named file, or from stdin when no input file
is given. By default the whole input must match; --partial stops at the
end of the match instead.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(_ *cobra.Command, args []string) {
		os.Exit(runParse(args, &configuredParseParams, os.Stdout, os.Stderr, os.Stdin))
	},
}

func runParse(args []string, params *parseParams, stdout, stderr io.Writer, stdin io.Reader) int {
	g, err := loadGrammar(args[0])
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	if params.rule != "" {
		if g, err = g.Default(params.rule); err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
	}
	text, err := readInput(args[1:], stdin)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	logrus.WithFields(logrus.Fields{"rule": g.DefaultRule(), "bytes": len(text)}).Debug("Parsing input.")
	var n *peg.Node
	if params.partial {
		n, err = g.Match(text)
	} else {
		n, err = g.Parse(text)
	}
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 2
	}
	fmt.Fprintln(stdout, n.Pretty(nil))
	return 0
}

func loadGrammar(path string) (*peg.Grammar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g, err := peg.NewGrammar(string(data))
	if err != nil {
		return nil, errors.Wrapf(err, "compiling %s", path)
	}
	logrus.WithFields(logrus.Fields{"path": path, "rules": len(g.Rules())}).Debug("Compiled grammar.")
	return g, nil
}

func readInput(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		return string(data), err
	}
	data, err := io.ReadAll(stdin)
	return string(data), err
}

func init() {
	parseCommand.Flags().StringVarP(&configuredParseParams.rule, "rule", "r", "", "start from the named rule instead of the default")
	parseCommand.Flags().BoolVarP(&configuredParseParams.partial, "partial", "p", false, "allow the match to stop before the end of the input")
	RootCommand.AddCommand(parseCommand)
}
