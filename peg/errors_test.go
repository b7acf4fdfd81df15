// Copyright 2026 The Packrat Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package peg

import (
	goerrors "errors"
	"strings"
	"testing"
)

func TestParseErrorLocation(t *testing.T) {
	text := "line one\nline two\nline three"
	tests := []struct {
		pos       int
		line, col int
	}{
		{pos: 0, line: 1, col: 1},
		{pos: 4, line: 1, col: 5},
		{pos: 9, line: 2, col: 1},
		{pos: 13, line: 2, col: 5},
		{pos: len(text), line: 3, col: 11},
	}
	for _, tc := range tests {
		pe := &ParseError{Text: text, Pos: tc.pos, Rule: "r"}
		if pe.Line() != tc.line || pe.Column() != tc.col {
			t.Fatalf("pos %d: got line %d column %d, want %d/%d",
				tc.pos, pe.Line(), pe.Column(), tc.line, tc.col)
		}
	}
}

func TestParseErrorSnippetIsBounded(t *testing.T) {
	pe := &ParseError{Text: strings.Repeat("x", 100), Pos: 0, Rule: "r"}
	if !strings.Contains(pe.Error(), `"`+strings.Repeat("x", 20)+`"`) {
		t.Fatalf("snippet not truncated: %s", pe.Error())
	}
	if strings.Contains(pe.Error(), strings.Repeat("x", 21)) {
		t.Fatalf("snippet too long: %s", pe.Error())
	}
}

func TestIncompleteParseErrorMessage(t *testing.T) {
	g := mustNewGrammar(t, `word = ~"[a-z]+"`)
	_, err := g.Parse("abc def")
	var ipe *IncompleteParseError
	if !goerrors.As(err, &ipe) {
		t.Fatalf("got %T", err)
	}
	if ipe.Tail() != " def" {
		t.Fatalf("got tail %q", ipe.Tail())
	}
	msg := ipe.Error()
	for _, want := range []string{"word", "didn't consume all the text", "line 1, column 4"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message %q missing %q", msg, want)
		}
	}
}

func TestUndefinedLabelMessage(t *testing.T) {
	_, err := NewGrammar(`a = boogly`)
	var ul *UndefinedLabel
	if !goerrors.As(err, &ul) {
		t.Fatalf("got %T", err)
	}
	if ul.Error() != `the label "boogly" was never defined` {
		t.Fatalf("got %q", ul.Error())
	}
	if ul.Offset != 4 {
		t.Fatalf("got offset %d", ul.Offset)
	}
}

func TestBadGrammarWrapsParseError(t *testing.T) {
	_, err := NewGrammar("boogly")
	var bg *BadGrammar
	if !goerrors.As(err, &bg) {
		t.Fatalf("got %T", err)
	}
	var pe *ParseError
	if !goerrors.As(err, &pe) {
		t.Fatalf("BadGrammar should unwrap to the meta parse error, got %v", bg.Err)
	}
	if !strings.Contains(bg.Error(), "bad grammar") {
		t.Fatalf("got %q", bg.Error())
	}
}
