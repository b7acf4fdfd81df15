// Copyright 2026 The Packrat Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const greetingGrammar = `polite_greeting = greeting ", my good " title
greeting = "Hi" / "Hello"
title = "madam" / "sir"
`

func writeGrammarFile(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grammar.peg")
	if err := os.WriteFile(path, []byte(source), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunParse(t *testing.T) {
	path := writeGrammarFile(t, greetingGrammar)
	var stdout, stderr bytes.Buffer
	stdin := strings.NewReader("Hello, my good sir")

	code := runParse([]string{path}, &parseParams{}, &stdout, &stderr, stdin)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}
	for _, want := range []string{"polite_greeting", "Hello, my good sir", `<Node called "title" matching "sir">`} {
		if !strings.Contains(stdout.String(), want) {
			t.Fatalf("output missing %q:\n%s", want, stdout.String())
		}
	}
}

func TestRunParseRuleFlag(t *testing.T) {
	path := writeGrammarFile(t, greetingGrammar)
	var stdout, stderr bytes.Buffer

	code := runParse([]string{path}, &parseParams{rule: "title"}, &stdout, &stderr, strings.NewReader("madam"))
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), `"madam"`) {
		t.Fatalf("output missing match:\n%s", stdout.String())
	}

	stderr.Reset()
	code = runParse([]string{path}, &parseParams{rule: "bogus"}, &stdout, &stderr, strings.NewReader(""))
	if code != 1 || !strings.Contains(stderr.String(), "bogus") {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}
}

func TestRunParsePartial(t *testing.T) {
	path := writeGrammarFile(t, greetingGrammar)
	var stdout, stderr bytes.Buffer
	input := "Hello, my good sir, what a day"

	code := runParse([]string{path}, &parseParams{}, &stdout, &stderr, strings.NewReader(input))
	if code != 2 || !strings.Contains(stderr.String(), "didn't consume all the text") {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}

	stdout.Reset()
	stderr.Reset()
	code = runParse([]string{path}, &parseParams{partial: true}, &stdout, &stderr, strings.NewReader(input))
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}
}

func TestRunParseBadGrammar(t *testing.T) {
	path := writeGrammarFile(t, "boogly")
	var stdout, stderr bytes.Buffer

	code := runParse([]string{path}, &parseParams{}, &stdout, &stderr, strings.NewReader(""))
	if code != 1 || !strings.Contains(stderr.String(), "bad grammar") {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}
}

func TestRunCheck(t *testing.T) {
	good := writeGrammarFile(t, greetingGrammar)
	bad := writeGrammarFile(t, `a = boogly`)
	var stdout, stderr bytes.Buffer

	if code := runCheck([]string{good}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), `3 rules, default "polite_greeting"`) {
		t.Fatalf("unexpected output: %s", stdout.String())
	}

	stdout.Reset()
	if code := runCheck([]string{good, bad}, &stdout, &stderr); code != 1 {
		t.Fatalf("expected failure for %s", bad)
	}
	if !strings.Contains(stderr.String(), "boogly") {
		t.Fatalf("unexpected stderr: %s", stderr.String())
	}
	if !strings.Contains(stdout.String(), "3 rules") {
		t.Fatalf("good file should still be reported: %s", stdout.String())
	}
}

func TestRunRules(t *testing.T) {
	path := writeGrammarFile(t, greetingGrammar)
	var stdout, stderr bytes.Buffer

	if code := runRules([]string{path}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}
	out := stdout.String()
	for _, want := range []string{"polite_greeting (default)", `"Hi" / "Hello"`, "title"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}
