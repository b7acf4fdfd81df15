// Copyright 2026 The Packrat Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package peg

import (
	"fmt"
	"strings"
)

// ParseError signals that an expression failed to match the input. Pos is
// the rightmost position reached by any failed atomic expression, Expr the
// last such expression recorded there, and Rule the named rule that was
// being matched when it failed.
type ParseError struct {
	Text string
	Pos  int
	Expr Expression
	Rule string
}

// Line returns the 1-based line number of the failure position.
func (e *ParseError) Line() int {
	return 1 + strings.Count(e.Text[:e.Pos], "\n")
}

// Column returns the 1-based column number of the failure position.
func (e *ParseError) Column() int {
	if i := strings.LastIndexByte(e.Text[:e.Pos], '\n'); i >= 0 {
		return e.Pos - i
	}
	return e.Pos + 1
}

func (e *ParseError) snippet() string {
	tail := e.Text[e.Pos:]
	if len(tail) > 20 {
		tail = tail[:20]
	}
	return tail
}

func (e *ParseError) ruleName() string {
	if e.Rule != "" {
		return e.Rule
	}
	if e.Expr != nil && e.Expr.ExprName() != "" {
		return e.Expr.ExprName()
	}
	return "<unnamed>"
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("rule %q didn't match at %q (line %d, column %d)",
		e.ruleName(), e.snippet(), e.Line(), e.Column())
}

// IncompleteParseError signals that the top-level expression matched but
// did not consume the entire input.
type IncompleteParseError struct {
	ParseError
}

// Tail returns the unconsumed remainder of the input.
func (e *IncompleteParseError) Tail() string {
	return e.Text[e.Pos:]
}

func (e *IncompleteParseError) Error() string {
	return fmt.Sprintf("rule %q matched in its entirety, but it didn't consume all the text. The non-matching portion of the text begins with %q (line %d, column %d)",
		e.ruleName(), e.snippet(), e.Line(), e.Column())
}

// UndefinedLabel signals that a grammar references a rule that was never
// defined. Circular and forward references are fine; missing definitions
// are not. Offset is the position of the reference in the grammar source.
type UndefinedLabel struct {
	Label  string
	Offset int
}

func (e *UndefinedLabel) Error() string {
	return fmt.Sprintf("the label %q was never defined", e.Label)
}

// VisitationError wraps an error raised by a visitor handler with the node
// being visited and, when available, the root of the traversal, so the
// failure can be located in the printed tree.
type VisitationError struct {
	Err  error
	Node *Node
	Root *Node
}

func (e *VisitationError) Unwrap() error {
	return e.Err
}

func (e *VisitationError) Error() string {
	tree := e.Root
	if tree == nil {
		tree = e.Node
	}
	if tree == nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s\n\nParse tree:\n%s", e.Err, tree.Pretty(e.Node))
}

// BadGrammar signals that the rule definitions handed to NewGrammar contain
// syntax errors. It wraps the error raised while parsing or compiling them,
// usually a *ParseError against the rule notation itself.
type BadGrammar struct {
	Err error
}

func (e *BadGrammar) Unwrap() error {
	return e.Err
}

func (e *BadGrammar) Error() string {
	return fmt.Sprintf("bad grammar: %s", e.Err)
}
