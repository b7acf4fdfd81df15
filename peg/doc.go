// Copyright 2026 The Packrat Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package peg implements a packrat parser for Parsing Expression Grammars.
//
// A Grammar is compiled from a textual rule notation into a graph of
// Expression nodes. Matching is memoized per (expression identity, input
// position), which makes parsing linear in the input length. The resulting
// parse tree of Node values can be folded into an arbitrary host value with a
// NodeVisitor.
//
// The usual entry point is NewGrammar:
//
//	g, err := peg.NewGrammar(`
//	    greeting = "Hello" ", " name
//	    name     = ~"[A-Z][a-z]*"
//	`)
//	node, err := g.Parse("Hello, World")
//
// Grammars are immutable after construction and safe for concurrent use; each
// Parse or Match call owns its memoization state.
package peg
