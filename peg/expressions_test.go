// Copyright 2026 The Packrat Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package peg

import (
	goerrors "errors"
	"testing"
)

func TestLiteral(t *testing.T) {
	tests := []struct {
		note    string
		value   string
		text    string
		pos     int
		wantEnd int
		wantErr bool
	}{
		{note: "match at start", value: "hello", text: "hello world", pos: 0, wantEnd: 5},
		{note: "match mid-string", value: "world", text: "hello world", pos: 6, wantEnd: 11},
		{note: "empty literal", value: "", text: "abc", pos: 1, wantEnd: 1},
		{note: "mismatch", value: "hello", text: "help", pos: 0, wantErr: true},
		{note: "past end", value: "a", text: "a", pos: 1, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.note, func(t *testing.T) {
			n, err := Match(NewLiteral(tc.value), tc.text, tc.pos)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", n)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if n.Start != tc.pos || n.End != tc.wantEnd {
				t.Fatalf("got span [%d,%d), want [%d,%d)", n.Start, n.End, tc.pos, tc.wantEnd)
			}
		})
	}
}

func TestRegex(t *testing.T) {
	digits := mustRegex(`[0-9]+`, "")

	n, err := Match(digits, "123abc", 0)
	if err != nil {
		t.Fatal(err)
	}
	if n.End != 3 || n.Text() != "123" {
		t.Fatalf("got end %d text %q", n.End, n.Text())
	}
	if n.Match == nil {
		t.Fatal("expected the regexp2 match to be retained")
	}

	// Matching is anchored: a hit later in the text is not a hit here.
	if _, err := Match(digits, "abc123", 0); err == nil {
		t.Fatal("expected anchored match to fail")
	}

	ci := mustRegex(`abc`, "i")
	if _, err := Match(ci, "ABC", 0); err != nil {
		t.Fatalf("ignore-case flag not honored: %v", err)
	}
}

func TestRegexFlags(t *testing.T) {
	for _, flags := range []string{"", "i", "m", "s", "x", "u", "l", "ilmsux"} {
		if _, err := NewRegex(`a`, flags); err != nil {
			t.Fatalf("flags %q rejected: %v", flags, err)
		}
	}
	if _, err := NewRegex(`a`, "z"); err == nil {
		t.Fatal("expected unknown flag to be rejected")
	}
	if _, err := NewRegex(`[`, ""); err == nil {
		t.Fatal("expected bad pattern to be rejected")
	}
}

func TestRegexUnicodeOffsets(t *testing.T) {
	// Offsets in and out of the regex engine are rune-based; node spans
	// must come back in bytes.
	n, err := Match(mustRegex(`[0-9]`, ""), "áb1", 3)
	if err != nil {
		t.Fatal(err)
	}
	if n.Start != 3 || n.End != 4 || n.Text() != "1" {
		t.Fatalf("got span [%d,%d) text %q", n.Start, n.End, n.Text())
	}

	n, err = Match(mustRegex(`á+`, ""), "áá", 0)
	if err != nil {
		t.Fatal(err)
	}
	if n.End != 4 || n.Text() != "áá" {
		t.Fatalf("got end %d text %q", n.End, n.Text())
	}
}

func TestSequence(t *testing.T) {
	seq := NewSequence(NewLiteral("chitty"), NewLiteral(" "), NewLiteral("bang"))
	n, err := Match(seq, "chitty bangbang", 0)
	if err != nil {
		t.Fatal(err)
	}
	if n.End != 11 {
		t.Fatalf("got end %d, want 11", n.End)
	}
	if len(n.Children) != 3 || n.Children[2].Text() != "bang" {
		t.Fatalf("unexpected children: %v", n.Children)
	}

	if _, err := Match(seq, "chitty bongbang", 0); err == nil {
		t.Fatal("expected failure")
	}
}

func TestOneOfIsPrioritized(t *testing.T) {
	// The first alternative wins even when a later one would match more.
	n, err := Match(NewOneOf(NewLiteral("a"), NewLiteral("ab")), "ab", 0)
	if err != nil {
		t.Fatal(err)
	}
	if n.End != 1 {
		t.Fatalf("got end %d, want 1", n.End)
	}
	if len(n.Children) != 1 {
		t.Fatalf("choice node should wrap the winner, got %d children", len(n.Children))
	}

	n, err = Match(NewOneOf(NewLiteral("ab"), NewLiteral("a")), "ab", 0)
	if err != nil {
		t.Fatal(err)
	}
	if n.End != 2 {
		t.Fatalf("got end %d, want 2", n.End)
	}
}

func TestLookaheadAndNot(t *testing.T) {
	ahead := NewSequence(NewLookahead(NewLiteral("ab")), NewLiteral("a"))
	n, err := Match(ahead, "ab", 0)
	if err != nil {
		t.Fatal(err)
	}
	if n.End != 1 {
		t.Fatalf("lookahead consumed input: end %d", n.End)
	}
	if _, err := Match(ahead, "ac", 0); err == nil {
		t.Fatal("expected lookahead failure")
	}

	neg := NewSequence(NewNot(NewLiteral("b")), NewLiteral("a"))
	if _, err := Match(neg, "a", 0); err != nil {
		t.Fatal(err)
	}
	if _, err := Match(NewNot(NewLiteral("a")), "a", 0); err == nil {
		t.Fatal("expected negative lookahead failure")
	}
}

func TestOptional(t *testing.T) {
	opt := NewOptional(NewLiteral("a"))
	n, err := Match(opt, "a", 0)
	if err != nil {
		t.Fatal(err)
	}
	if n.End != 1 || len(n.Children) != 1 {
		t.Fatalf("got end %d children %d", n.End, len(n.Children))
	}

	n, err = Match(opt, "b", 0)
	if err != nil {
		t.Fatal(err)
	}
	if n.End != 0 || len(n.Children) != 0 {
		t.Fatalf("optional miss should be zero-width, got end %d", n.End)
	}
}

func TestZeroOrMore(t *testing.T) {
	rep := NewZeroOrMore(NewLiteral("a"))
	n, err := Match(rep, "aaab", 0)
	if err != nil {
		t.Fatal(err)
	}
	if n.End != 3 || len(n.Children) != 3 {
		t.Fatalf("got end %d children %d", n.End, len(n.Children))
	}

	n, err = Match(rep, "b", 0)
	if err != nil {
		t.Fatal(err)
	}
	if n.End != 0 || len(n.Children) != 0 {
		t.Fatalf("got end %d children %d", n.End, len(n.Children))
	}

	// A zero-width repetition must terminate the loop.
	n, err = Match(NewZeroOrMore(NewOptional(NewLiteral("a"))), "b", 0)
	if err != nil {
		t.Fatal(err)
	}
	if n.End != 0 || len(n.Children) != 0 {
		t.Fatalf("zero-width child not dropped: end %d children %d", n.End, len(n.Children))
	}
}

func TestOneOrMore(t *testing.T) {
	rep := NewOneOrMore(NewLiteral("a"))
	n, err := Match(rep, "aa", 0)
	if err != nil {
		t.Fatal(err)
	}
	if n.End != 2 || len(n.Children) != 2 {
		t.Fatalf("got end %d children %d", n.End, len(n.Children))
	}

	if _, err := Match(rep, "b", 0); err == nil {
		t.Fatal("expected failure on zero occurrences")
	}

	n, err = Match(NewOneOrMore(NewOptional(NewLiteral("a"))), "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if n.End != 0 || len(n.Children) != 1 {
		t.Fatalf("zero-width child should satisfy the minimum once: end %d children %d", n.End, len(n.Children))
	}

	min2 := &OneOrMore{Member: NewLiteral("a"), Min: 2}
	if _, err := Match(min2, "a", 0); err == nil {
		t.Fatal("expected failure below minimum")
	}
	if _, err := Match(min2, "aa", 0); err != nil {
		t.Fatal(err)
	}
}

func TestCustom(t *testing.T) {
	evenDigits := NewCustom(func(text string, pos int) int {
		end := pos
		for end < len(text) && text[end] >= '0' && text[end] <= '9' {
			end++
		}
		if (end-pos)%2 != 0 || end == pos {
			return -1
		}
		return end
	})
	n, err := Match(evenDigits, "1234x", 0)
	if err != nil {
		t.Fatal(err)
	}
	if n.End != 4 {
		t.Fatalf("got end %d, want 4", n.End)
	}
	if _, err := Match(evenDigits, "123x", 0); err == nil {
		t.Fatal("expected failure")
	}
}

func TestPackratCaching(t *testing.T) {
	calls := 0
	probe := NewCustom(func(text string, pos int) int {
		calls++
		if pos < len(text) {
			return pos + 1
		}
		return -1
	})
	alt := NewOneOf(
		NewSequence(probe, NewLiteral("x")),
		NewSequence(probe, NewLiteral("y")),
	)
	n, err := Match(alt, "ay", 0)
	if err != nil {
		t.Fatal(err)
	}
	if n.End != 2 {
		t.Fatalf("got end %d, want 2", n.End)
	}
	if calls != 1 {
		t.Fatalf("custom matcher ran %d times, want 1 (memoized)", calls)
	}
}

func TestParseRequiresFullConsume(t *testing.T) {
	if _, err := Parse(NewLiteral("a"), "a"); err != nil {
		t.Fatal(err)
	}

	_, err := Parse(NewLiteral("a"), "ab")
	var ipe *IncompleteParseError
	if !goerrors.As(err, &ipe) {
		t.Fatalf("got %T (%v), want *IncompleteParseError", err, err)
	}
	if ipe.Tail() != "b" {
		t.Fatalf("got tail %q, want %q", ipe.Tail(), "b")
	}
}

func TestFailureIsRightmost(t *testing.T) {
	seq := Named("ab", NewSequence(NewLiteral("a"), NewLiteral("b")))
	_, err := Match(seq, "ac", 0)
	var pe *ParseError
	if !goerrors.As(err, &pe) {
		t.Fatalf("got %T, want *ParseError", err)
	}
	if pe.Pos != 1 {
		t.Fatalf("got pos %d, want 1", pe.Pos)
	}
	if lit, ok := pe.Expr.(*Literal); !ok || lit.Value != "b" {
		t.Fatalf("got expr %v, want the b literal", pe.Expr)
	}
	if pe.Rule != "ab" {
		t.Fatalf("got rule %q, want %q", pe.Rule, "ab")
	}
	if pe.Line() != 1 || pe.Column() != 2 {
		t.Fatalf("got line %d column %d", pe.Line(), pe.Column())
	}
}

func TestExprString(t *testing.T) {
	a, b, c := NewLiteral("a"), NewLiteral("b"), NewLiteral("c")
	tests := []struct {
		note string
		expr Expression
		want string
	}{
		{"literal", NewLiteral(`say "hi"`), `"say \"hi\""`},
		{"regex", mustRegex(`[a-z]+`, "i"), `~"[a-z]+"i`},
		{"sequence", NewSequence(a, b), `"a" "b"`},
		{"choice", NewOneOf(a, b), `"a" / "b"`},
		{"sequence in choice", NewOneOf(NewSequence(a, b), c), `("a" "b") / "c"`},
		{"choice in sequence", NewSequence(NewOneOf(a, b), c), `("a" / "b") "c"`},
		{"not of quantified", NewNot(NewZeroOrMore(a)), `!"a"*`},
		{"quantified not", NewZeroOrMore(NewNot(a)), `(!"a")*`},
		{"optional sequence", NewOptional(NewSequence(a, b)), `("a" "b")?`},
		{"lookahead", NewLookahead(a), `&"a"`},
		{"one or more", NewOneOrMore(a), `"a"+`},
		{"named member", NewSequence(Named("x", NewLiteral("a")), b), `x "b"`},
	}
	for _, tc := range tests {
		t.Run(tc.note, func(t *testing.T) {
			if got := ExprString(tc.expr); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
