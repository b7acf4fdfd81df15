// Copyright 2026 The Packrat Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package peg

import (
	"strings"

	"github.com/pkg/errors"
)

// Grammar is a compiled set of named rules. The first rule defined in the
// source text is the default, the one Parse and Match apply. Grammars are
// immutable once built and safe for concurrent use.
type Grammar struct {
	rules       map[string]Expression
	order       []string
	defaultName string
	defaultRule Expression
}

// GrammarOption configures grammar construction.
type GrammarOption func(*grammarOpts)

type grammarOpts struct {
	customs []customRule
}

type customRule struct {
	name string
	expr Expression
}

// WithRule adds a hand-built rule to the grammar under the given name.
// A textual definition of the same name takes precedence over it.
func WithRule(name string, e Expression) GrammarOption {
	return func(o *grammarOpts) {
		o.customs = append(o.customs, customRule{name: name, expr: e})
	}
}

// NewGrammar compiles rule definitions written in the rule notation into a
// Grammar. Empty or comment-only source is legal and yields a grammar with
// no default rule, useful as a base for WithRule.
func NewGrammar(source string, opts ...GrammarOption) (*Grammar, error) {
	return newGrammar(source, false, opts...)
}

func newGrammar(source string, tokenMode bool, opts ...GrammarOption) (*Grammar, error) {
	var o grammarOpts
	for _, opt := range opts {
		opt(&o)
	}
	rules, order, defaultName, err := compileGrammar(source, tokenMode, o.customs)
	if err != nil {
		return nil, err
	}
	g := &Grammar{rules: rules, order: order, defaultName: defaultName}
	if defaultName != "" {
		g.defaultRule = rules[defaultName]
	}
	return g, nil
}

// Parse applies the default rule to the whole of text.
func (g *Grammar) Parse(text string) (*Node, error) {
	return g.ParseFrom(text, 0)
}

// ParseFrom applies the default rule to text starting at pos, requiring it
// to consume everything from pos to the end.
func (g *Grammar) ParseFrom(text string, pos int) (*Node, error) {
	if g.defaultRule == nil {
		return nil, errors.New("grammar has no default rule")
	}
	return parseSource(g.defaultRule, newTextSource(text), pos)
}

// Match applies the default rule at the start of text without requiring a
// complete consume.
func (g *Grammar) Match(text string) (*Node, error) {
	return g.MatchFrom(text, 0)
}

// MatchFrom applies the default rule at pos without requiring a complete
// consume.
func (g *Grammar) MatchFrom(text string, pos int) (*Node, error) {
	if g.defaultRule == nil {
		return nil, errors.New("grammar has no default rule")
	}
	return matchSource(g.defaultRule, newTextSource(text), pos)
}

// Default returns a view of the grammar with a different default rule. The
// rule set is shared, not copied.
func (g *Grammar) Default(name string) (*Grammar, error) {
	e, ok := g.rules[name]
	if !ok {
		return nil, errors.Errorf("no rule named %q", name)
	}
	return &Grammar{rules: g.rules, order: g.order, defaultName: name, defaultRule: e}, nil
}

// Rule returns the expression bound to name, or nil.
func (g *Grammar) Rule(name string) Expression {
	return g.rules[name]
}

// Rules returns the rule names in definition order.
func (g *Grammar) Rules() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// DefaultRule returns the name of the default rule, or "".
func (g *Grammar) DefaultRule() string {
	return g.defaultName
}

// String renders the grammar back into rule notation, default rule first.
// For grammars built purely from text, parsing the result yields an
// equivalent grammar.
func (g *Grammar) String() string {
	var b strings.Builder
	writeRule := func(name string) {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(name)
		b.WriteString(" = ")
		b.WriteString(g.rules[name].rhs())
	}
	if g.defaultName != "" {
		writeRule(g.defaultName)
	}
	for _, name := range g.order {
		if name == g.defaultName {
			continue
		}
		writeRule(name)
	}
	return b.String()
}
