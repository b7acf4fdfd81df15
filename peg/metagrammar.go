// Copyright 2026 The Packrat Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package peg

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// ruleSyntax is the notation for rule definitions, written in itself. It is
// first parsed by a small hand-built expression graph, and the grammar that
// parse produces then reparses it, so user grammars are compiled by the
// same machinery that compiled the notation.
const ruleSyntax = `
    rules = rule_or_rubbish+
    rule_or_rubbish = rule / ws / comment
    rule = label _? "=" _? expression _? comment? eol
    literal = ~"[ubr]*\"[^\"\\\\]*(?:\\\\.[^\"\\\\]*)*\""is / ~"[ubr]*'[^'\\\\]*(?:\\\\.[^'\\\\]*)*'"is
    eol = ~r"(?:[\r\n]|$)"
    expression = ored / sequence / term
    or_term = _ "/" another_term
    ored = term or_term+
    sequence = term another_term+
    another_term = _ term
    not_term = "!" term
    lookahead_term = "&" term
    term = not_term / lookahead_term / quantified / atom
    quantified = atom quantifier
    atom = literal / label / regex / parenthesized
    regex = "~" literal ~"[ilmsux]*"i
    parenthesized = "(" _? expression _? ")"
    quantifier = ~"[*+?]"
    label = ~"[a-zA-Z_][a-zA-Z_0-9]*"
    _ = ~r"[ \t]+"  # horizontal whitespace
    ws = ~r"\s+"
    comment = ~r"#[^\r\n]*"
`

// bootstrapRules hand-builds just enough of the notation to parse
// ruleSyntax. Constructs ruleSyntax itself never uses, like prefix
// operators and parentheses, are left out; the level-2 grammar picks them
// up from the text.
func bootstrapRules() Expression {
	ws := Named("ws", mustRegex(`\s+`, ""))
	comment := Named("comment", mustRegex(`#[^\r\n]*`, ""))
	hspace := Named("_", mustRegex(`[ \t]+`, ""))
	label := Named("label", mustRegex(`[a-zA-Z_][a-zA-Z_0-9]*`, ""))
	quantifier := Named("quantifier", mustRegex(`[*+?]`, ""))
	literal := Named("literal", mustRegex(`[ubr]*("[^"\\]*(?:\\.[^"\\]*)*"|'[^'\\]*(?:\\.[^'\\]*)*')`, "is"))
	regex := Named("regex", NewSequence(NewLiteral("~"), literal, mustRegex(`[ilmsux]*`, "i")))
	atom := Named("atom", NewOneOf(label, literal, regex))
	quantified := Named("quantified", NewSequence(atom, quantifier))
	term := Named("term", NewOneOf(quantified, atom))
	anotherTerm := Named("another_term", NewSequence(hspace, term))
	sequence := Named("sequence", NewSequence(term, NewOneOrMore(anotherTerm)))
	orTerm := Named("or_term", NewSequence(hspace, NewLiteral("/"), anotherTerm))
	ored := Named("ored", NewSequence(term, NewOneOrMore(orTerm)))
	expression := Named("expression", NewOneOf(ored, sequence, term))
	eol := Named("eol", mustRegex(`(?:[\r\n]|$)`, ""))
	rule := Named("rule", NewSequence(
		label, NewOptional(hspace), NewLiteral("="), NewOptional(hspace),
		expression, NewOptional(hspace), NewOptional(comment), eol))
	ruleOrRubbish := Named("rule_or_rubbish", NewOneOf(rule, ws, comment))
	return Named("rules", NewOneOrMore(ruleOrRubbish))
}

var (
	ruleGrammarOnce sync.Once
	ruleGrammarVal  *Grammar
)

// ruleGrammar returns the grammar for the rule notation, bootstrapping it
// on first use: the hand-built level-1 graph parses ruleSyntax, the result
// compiles to a level-1 grammar, and that grammar reparses ruleSyntax to
// produce the canonical level-2 grammar.
func ruleGrammar() *Grammar {
	ruleGrammarOnce.Do(func() {
		level1, err := compileWith(func(text string) (*Node, error) {
			return Parse(bootstrapRules(), text)
		})
		if err != nil {
			panic(errors.Wrap(err, "peg: bootstrapping rule grammar (level 1)"))
		}
		level2, err := compileWith(level1.Parse)
		if err != nil {
			panic(errors.Wrap(err, "peg: bootstrapping rule grammar (level 2)"))
		}
		ruleGrammarVal = level2
	})
	return ruleGrammarVal
}

func compileWith(parse func(string) (*Node, error)) (*Grammar, error) {
	tree, err := parse(ruleSyntax)
	if err != nil {
		return nil, err
	}
	defs, err := compileTree(tree, false)
	if err != nil {
		return nil, err
	}
	rules, order, def, err := assemble(defs, nil)
	if err != nil {
		return nil, err
	}
	return &Grammar{rules: rules, order: order, defaultName: def, defaultRule: rules[def]}, nil
}

// compileGrammar turns rule definition text plus hand-built custom rules
// into a resolved rule map. Parse and compile failures surface as
// *BadGrammar; a reference to a rule nobody defines surfaces as
// *UndefinedLabel.
func compileGrammar(source string, tokenMode bool, customs []customRule) (map[string]Expression, []string, string, error) {
	var defs []Expression
	if strings.TrimSpace(source) != "" {
		tree, err := ruleGrammar().Parse(source)
		if err != nil {
			return nil, nil, "", &BadGrammar{Err: err}
		}
		defs, err = compileTree(tree, tokenMode)
		if err != nil {
			return nil, nil, "", &BadGrammar{Err: err}
		}
	}
	rules, order, def, err := assemble(defs, customs)
	if err != nil {
		return nil, nil, "", err
	}
	return rules, order, def, nil
}

func compileTree(tree *Node, tokenMode bool) ([]Expression, error) {
	val, err := grammarVisitor(tokenMode).Visit(tree)
	if err != nil {
		return nil, err
	}
	return val.([]Expression), nil
}

// grammarVisitor folds a parse tree of rule definitions into a list of
// named Expressions, with LazyReferences standing in for rule names until
// resolution.
func grammarVisitor(tokenMode bool) *NodeVisitor {
	stomp := func(n *Node, children []any) (any, error) { return nil, nil }
	return NewNodeVisitor(
		WithGeneric(ChildrenOrNode),
		WithHandlers(map[string]VisitFunc{
			"rule_or_rubbish": LiftChild,
			"expression":      LiftChild,
			"term":            LiftChild,
			"atom":            LiftChild,
			"ws":              stomp,
			"comment":         stomp,

			"rules": func(n *Node, children []any) (any, error) {
				defs := make([]Expression, 0, len(children))
				for _, c := range children {
					if e, ok := c.(Expression); ok {
						defs = append(defs, e)
					}
				}
				return defs, nil
			},

			"rule": func(n *Node, children []any) (any, error) {
				ref := children[0].(*LazyReference)
				expr := children[4].(Expression)
				expr.setName(ref.Target)
				return expr, nil
			},

			"label": func(n *Node, children []any) (any, error) {
				return &LazyReference{Target: n.Text(), Offset: n.Start}, nil
			},

			"literal": func(n *Node, children []any) (any, error) {
				s, err := unquote(n.Text())
				if err != nil {
					return nil, err
				}
				if tokenMode {
					return NewTokenLiteral(s), nil
				}
				return NewLiteral(s), nil
			},

			"regex": func(n *Node, children []any) (any, error) {
				if tokenMode {
					return nil, errors.Errorf("regex %s has no meaning against a token stream", n.Text())
				}
				pattern := children[1].(*Literal).Value
				flags := strings.ToLower(children[2].(*Node).Text())
				return NewRegex(pattern, flags)
			},

			"quantified": func(n *Node, children []any) (any, error) {
				expr := children[0].(Expression)
				switch children[1].(*Node).Text() {
				case "?":
					return NewOptional(expr), nil
				case "*":
					return NewZeroOrMore(expr), nil
				default:
					return NewOneOrMore(expr), nil
				}
			},

			"not_term": func(n *Node, children []any) (any, error) {
				return NewNot(children[1].(Expression)), nil
			},

			"lookahead_term": func(n *Node, children []any) (any, error) {
				return NewLookahead(children[1].(Expression)), nil
			},

			"parenthesized": func(n *Node, children []any) (any, error) {
				return children[2], nil
			},

			"sequence": func(n *Node, children []any) (any, error) {
				members := []Expression{children[0].(Expression)}
				for _, c := range children[1].([]any) {
					members = append(members, c.(Expression))
				}
				return &Sequence{Members: members}, nil
			},

			"ored": func(n *Node, children []any) (any, error) {
				members := []Expression{children[0].(Expression)}
				for _, c := range children[1].([]any) {
					members = append(members, c.(Expression))
				}
				return &OneOf{Members: members}, nil
			},

			"or_term": func(n *Node, children []any) (any, error) {
				return children[2], nil
			},

			"another_term": func(n *Node, children []any) (any, error) {
				return children[1], nil
			},
		}),
	)
}

// assemble merges custom rules and textual definitions into one rule map,
// later definitions of a name overriding earlier ones and textual
// definitions overriding custom ones, then resolves every LazyReference.
// The default rule is the final binding of the first textually defined
// name, or none when the source defined no rules.
func assemble(defs []Expression, customs []customRule) (map[string]Expression, []string, string, error) {
	rules := map[string]Expression{}
	var order []string
	add := func(name string, e Expression) {
		if _, seen := rules[name]; !seen {
			order = append(order, name)
		}
		rules[name] = e
	}
	for _, c := range customs {
		c.expr.setName(c.name)
		add(c.name, c.expr)
	}
	defaultName := ""
	for _, d := range defs {
		if defaultName == "" {
			defaultName = d.ExprName()
		}
		add(d.ExprName(), d)
	}
	if err := resolveRules(rules, order); err != nil {
		return nil, nil, "", err
	}
	return rules, order, defaultName, nil
}

func resolveRules(rules map[string]Expression, order []string) error {
	// Rules whose whole body is a reference collapse to their target, so
	// later substitutions always land on a real expression.
	for _, name := range order {
		e, err := chase(rules, name)
		if err != nil {
			return err
		}
		rules[name] = e
	}
	seen := map[Expression]bool{}
	for _, name := range order {
		if err := resolveMembers(rules, rules[name], seen); err != nil {
			return err
		}
	}
	return nil
}

func chase(rules map[string]Expression, name string) (Expression, error) {
	e := rules[name]
	visited := map[string]bool{name: true}
	for {
		ref, ok := e.(*LazyReference)
		if !ok {
			return e, nil
		}
		target, defined := rules[ref.Target]
		if !defined {
			return nil, &UndefinedLabel{Label: ref.Target, Offset: ref.Offset}
		}
		if visited[ref.Target] {
			return nil, errors.Errorf("rule %q is defined only in terms of itself", name)
		}
		visited[ref.Target] = true
		e = target
	}
}

func resolveMembers(rules map[string]Expression, e Expression, seen map[Expression]bool) error {
	if seen[e] {
		return nil
	}
	seen[e] = true
	resolve := func(m Expression) (Expression, error) {
		if ref, ok := m.(*LazyReference); ok {
			target, defined := rules[ref.Target]
			if !defined {
				return nil, &UndefinedLabel{Label: ref.Target, Offset: ref.Offset}
			}
			return target, nil
		}
		if err := resolveMembers(rules, m, seen); err != nil {
			return nil, err
		}
		return m, nil
	}
	switch x := e.(type) {
	case *Sequence:
		for i, m := range x.Members {
			r, err := resolve(m)
			if err != nil {
				return err
			}
			x.Members[i] = r
		}
	case *OneOf:
		for i, m := range x.Members {
			r, err := resolve(m)
			if err != nil {
				return err
			}
			x.Members[i] = r
		}
	case *Lookahead:
		r, err := resolve(x.Member)
		if err != nil {
			return err
		}
		x.Member = r
	case *Not:
		r, err := resolve(x.Member)
		if err != nil {
			return err
		}
		x.Member = r
	case *Optional:
		r, err := resolve(x.Member)
		if err != nil {
			return err
		}
		x.Member = r
	case *ZeroOrMore:
		r, err := resolve(x.Member)
		if err != nil {
			return err
		}
		x.Member = r
	case *OneOrMore:
		r, err := resolve(x.Member)
		if err != nil {
			return err
		}
		x.Member = r
	}
	return nil
}
