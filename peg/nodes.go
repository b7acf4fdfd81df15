// Copyright 2026 The Packrat Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package peg

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// source is the subject of a parse: either plain text or a token stream.
// It also carries the byte/rune index maps needed to translate regexp2
// match offsets, which are rune-based, into the byte positions the rest
// of the engine works in.
type source struct {
	text     string
	tokens   []Token
	isTokens bool
	isASCII  bool

	// Lazily built on first regex match against non-ASCII text.
	byteToRune []int
	runeToByte []int
}

func newTextSource(text string) *source {
	s := &source{text: text, isASCII: true}
	for i := 0; i < len(text); i++ {
		if text[i] >= utf8.RuneSelf {
			s.isASCII = false
			break
		}
	}
	return s
}

func newTokenSource(tokens []Token) *source {
	return &source{tokens: tokens, isTokens: true, isASCII: true}
}

func (s *source) len() int {
	if s.isTokens {
		return len(s.tokens)
	}
	return len(s.text)
}

func (s *source) slice(i, j int) string {
	if s.isTokens {
		parts := make([]string, 0, j-i)
		for _, t := range s.tokens[i:j] {
			parts = append(parts, t.Type)
		}
		return strings.Join(parts, " ")
	}
	return s.text[i:j]
}

func (s *source) describe() string {
	if s.isTokens {
		return s.slice(0, len(s.tokens))
	}
	return s.text
}

func (s *source) buildIndex() {
	if s.byteToRune != nil {
		return
	}
	s.byteToRune = make([]int, len(s.text)+1)
	s.runeToByte = make([]int, 0, utf8.RuneCountInString(s.text)+1)
	r := 0
	for b := range s.text {
		s.runeToByte = append(s.runeToByte, b)
		s.byteToRune[b] = r
		r++
	}
	s.runeToByte = append(s.runeToByte, len(s.text))
	s.byteToRune[len(s.text)] = r
	for b := 1; b < len(s.text); b++ {
		if !utf8.RuneStart(s.text[b]) {
			s.byteToRune[b] = s.byteToRune[b-1]
		}
	}
}

// runeIdx converts a byte offset into text to a rune offset.
func (s *source) runeIdx(bytePos int) int {
	if s.isASCII {
		return bytePos
	}
	s.buildIndex()
	return s.byteToRune[bytePos]
}

// byteIdx converts a rune offset back to a byte offset.
func (s *source) byteIdx(runePos int) int {
	if s.isASCII {
		return runePos
	}
	s.buildIndex()
	return s.runeToByte[runePos]
}

// Node is one vertex of a parse tree. Start and End index into the parsed
// text (bytes) or token stream (tokens). Nodes produced by a Regex
// expression carry the underlying regexp2 match so capture groups remain
// reachable.
type Node struct {
	ExprName string
	Start    int
	End      int
	Children []*Node
	Match    *regexp2.Match

	src *source
}

// Text returns the span of input this node matched.
func (n *Node) Text() string {
	return n.src.slice(n.Start, n.End)
}

// FullText returns the complete input the node's tree was parsed from.
func (n *Node) FullText() string {
	return n.src.describe()
}

// Equal reports whether two parse trees have the same shape, names, and
// spans. It ignores the regex match details.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.ExprName != other.ExprName || n.Start != other.Start || n.End != other.End {
		return false
	}
	if len(n.Children) != len(other.Children) {
		return false
	}
	for i, c := range n.Children {
		if !c.Equal(other.Children[i]) {
			return false
		}
	}
	return true
}

func (n *Node) String() string {
	return n.Pretty(nil)
}

// Pretty renders the tree one node per line, indented by depth. If marked
// is non-nil, the line for that node gets a trailing marker. This is the
// format VisitationError uses to show where a traversal failed.
func (n *Node) Pretty(marked *Node) string {
	var b strings.Builder
	n.pretty(&b, 0, marked)
	return b.String()
}

func (n *Node) pretty(b *strings.Builder, depth int, marked *Node) {
	if depth > 0 {
		b.WriteByte('\n')
	}
	b.WriteString(strings.Repeat(" ", depth*4))
	kind := "Node"
	if n.Match != nil {
		kind = "RegexNode"
	}
	if n.ExprName != "" {
		fmt.Fprintf(b, "<%s called %q matching %q>", kind, n.ExprName, n.Text())
	} else {
		fmt.Fprintf(b, "<%s matching %q>", kind, n.Text())
	}
	if n == marked {
		b.WriteString("  <-- *** We were here. ***")
	}
	for _, c := range n.Children {
		c.pretty(b, depth+1, marked)
	}
}
