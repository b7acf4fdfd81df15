// Copyright 2026 The Packrat Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package peg

import (
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/pkg/errors"
)

// Expression is one node of a grammar's expression graph. Expressions are
// compared by pointer identity, which is what the packrat cache keys on, so
// a given expression value must not be mutated once matching has begun.
type Expression interface {
	// ExprName returns the rule name this expression is bound to, or ""
	// for anonymous subexpressions.
	ExprName() string

	match(m *matcher, pos int) (*Node, bool)
	rhs() string
	prec() int
	setName(name string)
}

// exprName is embedded by every expression variant.
type exprName struct {
	Name string
}

func (b *exprName) ExprName() string    { return b.Name }
func (b *exprName) setName(name string) { b.Name = name }

// Named binds a rule name to an expression and returns it. Hand-built
// graphs use this where compiled grammars get names from rule definitions.
func Named(name string, e Expression) Expression {
	e.setName(name)
	return e
}

// MatcherFunc is a custom matching rule. It receives the full input text
// and a byte position and returns the position after the match, or a
// negative value if it does not match there.
type MatcherFunc func(text string, pos int) int

// Literal matches an exact string.
type Literal struct {
	exprName
	Value string
}

func NewLiteral(value string) *Literal {
	return &Literal{Value: value}
}

func (l *Literal) match(m *matcher, pos int) (*Node, bool) {
	if m.src.isTokens {
		return nil, false
	}
	if !strings.HasPrefix(m.src.text[pos:], l.Value) {
		return nil, false
	}
	return &Node{ExprName: l.Name, Start: pos, End: pos + len(l.Value), src: m.src}, true
}

// Regex matches a regular expression anchored at the current position.
// Flags is the subset of i, l, m, s, u, x; l and u are accepted for
// compatibility with existing grammars and have no effect, since matching
// is always Unicode-aware.
type Regex struct {
	exprName
	Pattern string
	Flags   string

	re *regexp2.Regexp
}

func NewRegex(pattern, flags string) (*Regex, error) {
	var opts regexp2.RegexOptions
	for _, f := range strings.ToLower(flags) {
		switch f {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			opts |= regexp2.Singleline
		case 'x':
			opts |= regexp2.IgnorePatternWhitespace
		case 'u', 'l':
			// Locale and Unicode flags carry no meaning here.
		default:
			return nil, errors.Errorf("unsupported regex flag %q in ~%s%s", f, quoteString(pattern), flags)
		}
	}
	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "compiling regex %s", quoteString(pattern))
	}
	return &Regex{Pattern: pattern, Flags: flags, re: re}, nil
}

func mustRegex(pattern, flags string) *Regex {
	r, err := NewRegex(pattern, flags)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Regex) match(m *matcher, pos int) (*Node, bool) {
	if m.src.isTokens {
		return nil, false
	}
	rp := m.src.runeIdx(pos)
	mt, err := r.re.FindStringMatchStartingAt(m.src.text, rp)
	if err != nil || mt == nil || mt.Index != rp {
		return nil, false
	}
	end := m.src.byteIdx(mt.Index + mt.Length)
	return &Node{ExprName: r.Name, Start: pos, End: end, Match: mt, src: m.src}, true
}

// Sequence matches its members one after another, each starting where the
// previous one ended.
type Sequence struct {
	exprName
	Members []Expression
}

func NewSequence(members ...Expression) *Sequence {
	return &Sequence{Members: members}
}

func (s *Sequence) match(m *matcher, pos int) (*Node, bool) {
	children := make([]*Node, 0, len(s.Members))
	cur := pos
	for _, member := range s.Members {
		n, ok := m.match(member, cur)
		if !ok {
			return nil, false
		}
		children = append(children, n)
		cur = n.End
	}
	return &Node{ExprName: s.Name, Start: pos, End: cur, Children: children, src: m.src}, true
}

// OneOf is a prioritized choice: the first member to match wins, and later
// members are never consulted at that position.
type OneOf struct {
	exprName
	Members []Expression
}

func NewOneOf(members ...Expression) *OneOf {
	return &OneOf{Members: members}
}

func (o *OneOf) match(m *matcher, pos int) (*Node, bool) {
	for _, member := range o.Members {
		n, ok := m.match(member, pos)
		if ok {
			return &Node{ExprName: o.Name, Start: pos, End: n.End, Children: []*Node{n}, src: m.src}, true
		}
	}
	return nil, false
}

// Lookahead succeeds when its member matches but consumes nothing.
type Lookahead struct {
	exprName
	Member Expression
}

func NewLookahead(member Expression) *Lookahead {
	return &Lookahead{Member: member}
}

func (l *Lookahead) match(m *matcher, pos int) (*Node, bool) {
	if _, ok := m.match(l.Member, pos); !ok {
		return nil, false
	}
	return &Node{ExprName: l.Name, Start: pos, End: pos, src: m.src}, true
}

// Not succeeds, consuming nothing, exactly when its member fails.
type Not struct {
	exprName
	Member Expression
}

func NewNot(member Expression) *Not {
	return &Not{Member: member}
}

func (n *Not) match(m *matcher, pos int) (*Node, bool) {
	if _, ok := m.match(n.Member, pos); ok {
		return nil, false
	}
	return &Node{ExprName: n.Name, Start: pos, End: pos, src: m.src}, true
}

// Optional matches its member if possible and the empty string otherwise.
type Optional struct {
	exprName
	Member Expression
}

func NewOptional(member Expression) *Optional {
	return &Optional{Member: member}
}

func (o *Optional) match(m *matcher, pos int) (*Node, bool) {
	if n, ok := m.match(o.Member, pos); ok {
		return &Node{ExprName: o.Name, Start: pos, End: n.End, Children: []*Node{n}, src: m.src}, true
	}
	return &Node{ExprName: o.Name, Start: pos, End: pos, src: m.src}, true
}

// ZeroOrMore matches its member repeatedly until it fails or stops
// consuming input. A zero-width repetition ends the loop without being
// recorded, which keeps matching from looping forever.
type ZeroOrMore struct {
	exprName
	Member Expression
}

func NewZeroOrMore(member Expression) *ZeroOrMore {
	return &ZeroOrMore{Member: member}
}

func (z *ZeroOrMore) match(m *matcher, pos int) (*Node, bool) {
	var children []*Node
	cur := pos
	for {
		n, ok := m.match(z.Member, cur)
		if !ok || n.End == n.Start {
			return &Node{ExprName: z.Name, Start: pos, End: cur, Children: children, src: m.src}, true
		}
		children = append(children, n)
		cur = n.End
	}
}

// OneOrMore matches its member at least Min times (one, when Min is left
// zero). A zero-width repetition is kept once the minimum is met, then the
// loop ends.
type OneOrMore struct {
	exprName
	Member Expression
	Min    int
}

func NewOneOrMore(member Expression) *OneOrMore {
	return &OneOrMore{Member: member}
}

func (o *OneOrMore) min() int {
	if o.Min <= 0 {
		return 1
	}
	return o.Min
}

func (o *OneOrMore) match(m *matcher, pos int) (*Node, bool) {
	var children []*Node
	cur := pos
	for {
		n, ok := m.match(o.Member, cur)
		if !ok {
			break
		}
		children = append(children, n)
		if n.End == n.Start && len(children) >= o.min() {
			break
		}
		cur = n.End
	}
	if len(children) < o.min() {
		return nil, false
	}
	return &Node{ExprName: o.Name, Start: pos, End: cur, Children: children, src: m.src}, true
}

// LazyReference is a by-name reference to a rule that may not be defined
// yet. Compilation replaces every LazyReference with the expression it
// names; one surviving to match time is a compiler bug.
type LazyReference struct {
	exprName
	Target string
	Offset int
}

func (l *LazyReference) match(m *matcher, pos int) (*Node, bool) {
	panic("peg: unresolved lazy reference to " + l.Target)
}

// Custom wraps a host-supplied matching function as an expression.
type Custom struct {
	exprName
	Fn MatcherFunc
}

func NewCustom(fn MatcherFunc) *Custom {
	return &Custom{Fn: fn}
}

func (c *Custom) match(m *matcher, pos int) (*Node, bool) {
	if m.src.isTokens {
		return nil, false
	}
	np := c.Fn(m.src.text, pos)
	if np < pos {
		return nil, false
	}
	return &Node{ExprName: c.Name, Start: pos, End: np, src: m.src}, true
}

// cacheKey identifies a memoized match attempt. Expressions are compared
// by pointer, so two structurally equal literals occupy distinct slots.
type cacheKey struct {
	expr Expression
	pos  int
}

type cacheEntry struct {
	node *Node
	ok   bool
}

// failureTracker remembers the rightmost position at which an atomic
// expression failed, together with the expressions that failed there and
// the innermost named rule active at the time. It is what turns a silent
// overall failure into a useful ParseError.
type failureTracker struct {
	pos   int
	exprs []Expression
	rule  string
}

func (f *failureTracker) record(e Expression, pos int, rule string) {
	switch e.(type) {
	case *Literal, *Regex, *TokenLiteral, *Custom:
	default:
		return
	}
	if pos > f.pos {
		f.pos = pos
		f.exprs = f.exprs[:0]
	}
	if pos == f.pos {
		f.exprs = append(f.exprs, e)
		f.rule = rule
	}
}

// matcher carries the per-call state of one Parse or Match: the input, the
// packrat cache, the failure tracker, and the stack of named rules being
// matched. A fresh matcher is built for every call, so Grammar values stay
// safe for concurrent use.
type matcher struct {
	src   *source
	cache map[cacheKey]cacheEntry
	fail  failureTracker
	rules []string
}

func newMatcher(src *source) *matcher {
	return &matcher{
		src:   src,
		cache: map[cacheKey]cacheEntry{},
		fail:  failureTracker{pos: -1},
	}
}

func (m *matcher) currentRule() string {
	if len(m.rules) == 0 {
		return ""
	}
	return m.rules[len(m.rules)-1]
}

func (m *matcher) match(e Expression, pos int) (*Node, bool) {
	key := cacheKey{e, pos}
	if ent, hit := m.cache[key]; hit {
		return ent.node, ent.ok
	}
	named := e.ExprName() != ""
	if named {
		m.rules = append(m.rules, e.ExprName())
	}
	n, ok := e.match(m, pos)
	if !ok {
		m.fail.record(e, pos, m.currentRule())
	}
	if named {
		m.rules = m.rules[:len(m.rules)-1]
	}
	m.cache[key] = cacheEntry{n, ok}
	return n, ok
}

func (m *matcher) parseError(top Expression) *ParseError {
	pe := &ParseError{Text: m.src.describe(), Rule: m.fail.rule}
	if m.fail.pos >= 0 {
		pe.Pos = m.fail.pos
		pe.Expr = m.fail.exprs[len(m.fail.exprs)-1]
	} else {
		pe.Expr = top
	}
	if pe.Rule == "" {
		pe.Rule = top.ExprName()
	}
	return pe
}

// Match matches e against text starting at pos and returns the resulting
// parse tree. Unlike Parse it does not require the whole input to be
// consumed.
func Match(e Expression, text string, pos int) (*Node, error) {
	return matchSource(e, newTextSource(text), pos)
}

// Parse matches e against the whole of text. It fails with
// *IncompleteParseError when e matches a strict prefix.
func Parse(e Expression, text string) (*Node, error) {
	return parseSource(e, newTextSource(text), 0)
}

func matchSource(e Expression, src *source, pos int) (*Node, error) {
	m := newMatcher(src)
	n, ok := m.match(e, pos)
	if !ok {
		return nil, m.parseError(e)
	}
	return n, nil
}

func parseSource(e Expression, src *source, pos int) (*Node, error) {
	n, err := matchSource(e, src, pos)
	if err != nil {
		return nil, err
	}
	if n.End != src.len() {
		return nil, &IncompleteParseError{ParseError{
			Text: src.describe(),
			Pos:  n.End,
			Expr: e,
			Rule: e.ExprName(),
		}}
	}
	return n, nil
}

// Expression printing. Precedence levels follow the rule notation so that
// the printed form of any expression compiled from the notation parses back
// to an equal graph. Custom expressions print as "<custom>", which does not.
const (
	precOred = iota + 1
	precSequence
	precPrefix
	precQuantified
	precAtom
)

// ExprString returns the right-hand-side notation for an expression.
func ExprString(e Expression) string {
	return e.rhs()
}

// sub renders a member expression, substituting its rule name when it has
// one and parenthesizing when its notation binds looser than the context
// requires.
func sub(e Expression, minPrec int) string {
	if e.ExprName() != "" {
		return e.ExprName()
	}
	if e.prec() < minPrec {
		return "(" + e.rhs() + ")"
	}
	return e.rhs()
}

func (l *Literal) prec() int { return precAtom }
func (l *Literal) rhs() string {
	return quoteString(l.Value)
}

func (r *Regex) prec() int { return precAtom }
func (r *Regex) rhs() string {
	return "~" + quoteString(r.Pattern) + r.Flags
}

func (s *Sequence) prec() int { return precSequence }
func (s *Sequence) rhs() string {
	parts := make([]string, len(s.Members))
	for i, m := range s.Members {
		parts[i] = sub(m, precPrefix)
	}
	return strings.Join(parts, " ")
}

func (o *OneOf) prec() int { return precOred }
func (o *OneOf) rhs() string {
	// Alternatives in the notation are single terms, so member sequences
	// need parentheses just like prefix and quantifier operands do.
	parts := make([]string, len(o.Members))
	for i, m := range o.Members {
		parts[i] = sub(m, precPrefix)
	}
	return strings.Join(parts, " / ")
}

func (l *Lookahead) prec() int { return precPrefix }
func (l *Lookahead) rhs() string {
	return "&" + sub(l.Member, precPrefix)
}

func (n *Not) prec() int { return precPrefix }
func (n *Not) rhs() string {
	return "!" + sub(n.Member, precPrefix)
}

func (o *Optional) prec() int { return precQuantified }
func (o *Optional) rhs() string {
	return sub(o.Member, precAtom) + "?"
}

func (z *ZeroOrMore) prec() int { return precQuantified }
func (z *ZeroOrMore) rhs() string {
	return sub(z.Member, precAtom) + "*"
}

func (o *OneOrMore) prec() int { return precQuantified }
func (o *OneOrMore) rhs() string {
	return sub(o.Member, precAtom) + "+"
}

func (l *LazyReference) prec() int { return precAtom }
func (l *LazyReference) rhs() string {
	return l.Target
}

func (c *Custom) prec() int { return precAtom }
func (c *Custom) rhs() string {
	return "<custom>"
}
