// Copyright 2026 The Packrat Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package peg

import (
	"github.com/pkg/errors"
)

// Token is one element of a pre-lexed input stream. Only Type takes part
// in matching; nodes built over a token stream record their Start and End
// as indices into the token slice.
type Token struct {
	Type string
}

// TokenLiteral matches a single token whose Type equals Value. It is what
// string literals compile to inside a token grammar.
type TokenLiteral struct {
	exprName
	Value string
}

func NewTokenLiteral(value string) *TokenLiteral {
	return &TokenLiteral{Value: value}
}

func (t *TokenLiteral) match(m *matcher, pos int) (*Node, bool) {
	if !m.src.isTokens {
		return nil, false
	}
	if pos >= len(m.src.tokens) || m.src.tokens[pos].Type != t.Value {
		return nil, false
	}
	return &Node{ExprName: t.Name, Start: pos, End: pos + 1, src: m.src}, true
}

func (t *TokenLiteral) prec() int { return precAtom }
func (t *TokenLiteral) rhs() string {
	return quoteString(t.Value)
}

// TokenGrammar is a Grammar whose literals match token types instead of
// text. Regexes make no sense against a token stream, so grammars that
// contain them are rejected at construction.
type TokenGrammar struct {
	Grammar
}

// NewTokenGrammar compiles rule definitions into a grammar over token
// streams.
func NewTokenGrammar(source string, opts ...GrammarOption) (*TokenGrammar, error) {
	g, err := newGrammar(source, true, opts...)
	if err != nil {
		return nil, err
	}
	return &TokenGrammar{Grammar: *g}, nil
}

// ParseTokens applies the default rule to the whole token stream.
func (g *TokenGrammar) ParseTokens(tokens []Token) (*Node, error) {
	if g.defaultRule == nil {
		return nil, errors.New("grammar has no default rule")
	}
	return parseSource(g.defaultRule, newTokenSource(tokens), 0)
}

// MatchTokens applies the default rule at the start of the token stream
// without requiring it to consume every token.
func (g *TokenGrammar) MatchTokens(tokens []Token) (*Node, error) {
	if g.defaultRule == nil {
		return nil, errors.New("grammar has no default rule")
	}
	return matchSource(g.defaultRule, newTokenSource(tokens), 0)
}
