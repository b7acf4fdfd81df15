// Copyright 2026 The Packrat Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package peg

import (
	goerrors "errors"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/pkg/errors"
)

// VisitFunc folds one node into a host value. children holds the already
// visited results of the node's children, in order.
type VisitFunc func(n *Node, children []any) (any, error)

// NodeVisitor folds a parse tree into an arbitrary value by a post-order
// walk. Each node is dispatched to the handler registered for its rule
// name; anonymous nodes and rules without a handler fall through to the
// generic handler.
type NodeVisitor struct {
	grammar   *Grammar
	handlers  map[string]VisitFunc
	generic   VisitFunc
	unwrapped []error
}

// VisitorOption configures a NodeVisitor.
type VisitorOption func(*NodeVisitor)

// WithHandler registers fn for nodes produced by the named rule.
func WithHandler(rule string, fn VisitFunc) VisitorOption {
	return func(v *NodeVisitor) {
		v.handlers[rule] = fn
	}
}

// WithHandlers registers a handler per rule name.
func WithHandlers(handlers map[string]VisitFunc) VisitorOption {
	return func(v *NodeVisitor) {
		for rule, fn := range handlers {
			v.handlers[rule] = fn
		}
	}
}

// WithGeneric sets the fallback handler. Without one, visiting a node that
// has no handler fails.
func WithGeneric(fn VisitFunc) VisitorOption {
	return func(v *NodeVisitor) {
		v.generic = fn
	}
}

// WithGrammar attaches the grammar the visitor's Parse and Match use.
func WithGrammar(g *Grammar) VisitorOption {
	return func(v *NodeVisitor) {
		v.grammar = g
	}
}

// WithUnwrapped names error values that pass through Visit untouched
// instead of being wrapped in a VisitationError. Matching uses errors.Is,
// so wrapped instances qualify too.
func WithUnwrapped(errs ...error) VisitorOption {
	return func(v *NodeVisitor) {
		v.unwrapped = append(v.unwrapped, errs...)
	}
}

// NewNodeVisitor builds a visitor from the given options.
func NewNodeVisitor(opts ...VisitorOption) *NodeVisitor {
	v := &NodeVisitor{handlers: map[string]VisitFunc{}}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Visit folds the tree rooted at root and returns the handler result for
// the root node. Handler errors come back wrapped in a *VisitationError
// carrying the offending node and the root, unless they match an
// unwrapped kind.
func (v *NodeVisitor) Visit(root *Node) (any, error) {
	val, err := v.visit(root)
	if err != nil {
		var ve *VisitationError
		if goerrors.As(err, &ve) && ve.Root == nil {
			ve.Root = root
		}
		return nil, err
	}
	return val, nil
}

// Parse parses text with the attached grammar and visits the result.
func (v *NodeVisitor) Parse(text string) (any, error) {
	if v.grammar == nil {
		return nil, errors.New("visitor has no grammar")
	}
	n, err := v.grammar.Parse(text)
	if err != nil {
		return nil, err
	}
	return v.Visit(n)
}

// Match matches text with the attached grammar and visits the result.
func (v *NodeVisitor) Match(text string) (any, error) {
	if v.grammar == nil {
		return nil, errors.New("visitor has no grammar")
	}
	n, err := v.grammar.Match(text)
	if err != nil {
		return nil, err
	}
	return v.Visit(n)
}

func (v *NodeVisitor) visit(n *Node) (any, error) {
	children := make([]any, 0, len(n.Children))
	for _, c := range n.Children {
		val, err := v.visit(c)
		if err != nil {
			return nil, err
		}
		children = append(children, val)
	}
	fn, ok := v.handlers[n.ExprName]
	if !ok {
		fn = v.generic
	}
	if fn == nil {
		return nil, &VisitationError{
			Err:  errors.Errorf("no visitor handler for expression %s", describeExpr(n)),
			Node: n,
		}
	}
	val, err := fn(n, children)
	if err != nil {
		return nil, v.wrap(err, n)
	}
	return val, nil
}

func describeExpr(n *Node) string {
	if n.ExprName != "" {
		return "rule " + n.ExprName
	}
	return "anonymous node matching " + quoteString(n.Text())
}

func (v *NodeVisitor) wrap(err error, n *Node) error {
	var ve *VisitationError
	if goerrors.As(err, &ve) {
		return err
	}
	for _, u := range v.unwrapped {
		if goerrors.Is(err, u) {
			return err
		}
	}
	return &VisitationError{Err: err, Node: n}
}

// ChildrenOrNode is a generic handler that returns the visited children
// when there are any and the node itself otherwise.
func ChildrenOrNode(n *Node, children []any) (any, error) {
	if len(children) > 0 {
		return children, nil
	}
	return n, nil
}

// LiftChild returns the first visited child, or the node itself when there
// are none. Handy for wrapper rules with a single interesting child.
func LiftChild(n *Node, children []any) (any, error) {
	if len(children) > 0 {
		return children[0], nil
	}
	return n, nil
}

// BoundRule couples a rule definition fragment with the handler for its
// head rule.
type BoundRule struct {
	Source  string
	Handler VisitFunc
}

// Bind pairs a rule fragment with its handler.
func Bind(source string, fn VisitFunc) BoundRule {
	return BoundRule{Source: source, Handler: fn}
}

var boundHeadRe = regexp2.MustCompile(`\A\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*=`, 0)

// NewBoundVisitor assembles a grammar and visitor from rule fragments.
// The fragments are concatenated into one grammar whose default is the
// first fragment's head rule, and each fragment's handler is registered
// under that rule's name.
func NewBoundVisitor(rules []BoundRule, opts ...VisitorOption) (*NodeVisitor, error) {
	srcs := make([]string, 0, len(rules))
	handlers := map[string]VisitFunc{}
	for _, r := range rules {
		m, err := boundHeadRe.FindStringMatch(r.Source)
		if err != nil || m == nil {
			return nil, errors.Errorf("rule fragment %q does not start with a definition", r.Source)
		}
		name := m.GroupByNumber(1).String()
		handlers[name] = r.Handler
		srcs = append(srcs, r.Source)
	}
	g, err := NewGrammar(strings.Join(srcs, "\n"))
	if err != nil {
		return nil, err
	}
	all := append([]VisitorOption{WithGrammar(g), WithHandlers(handlers)}, opts...)
	return NewNodeVisitor(all...), nil
}
