// Copyright 2026 The Packrat Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package peg

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// unquote decodes a quoted string literal as it appears in grammar text.
// Literals may carry the prefixes u, b, and r in any combination and case,
// use single or double quotes, and contain backslash escapes. A raw (r)
// prefix disables escape processing except that a backslash still prevents
// the following quote from terminating the literal.
func unquote(s string) (string, error) {
	orig := s
	raw := false
	for len(s) > 0 {
		switch s[0] {
		case 'u', 'U', 'b', 'B':
			s = s[1:]
			continue
		case 'r', 'R':
			raw = true
			s = s[1:]
			continue
		}
		break
	}
	if len(s) < 2 {
		return "", errors.Errorf("invalid string literal %s", orig)
	}
	quote := s[0]
	if quote != '"' && quote != '\'' {
		return "", errors.Errorf("invalid string literal %s", orig)
	}
	if s[len(s)-1] != quote {
		return "", errors.Errorf("unterminated string literal %s", orig)
	}
	body := s[1 : len(s)-1]
	if raw {
		return unquoteRaw(body), nil
	}
	return unquoteEscapes(body, orig)
}

func unquoteRaw(body string) string {
	// Raw literals keep backslashes verbatim. The only transformation is
	// that \" and \' already arrived unsplit, so nothing to do.
	return body
}

func unquoteEscapes(body, orig string) (string, error) {
	if !strings.ContainsRune(body, '\\') {
		return body, nil
	}
	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i == len(body)-1 {
			b.WriteByte(c)
			continue
		}
		i++
		switch e := body[i]; e {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\\', '\'', '"':
			b.WriteByte(e)
		case 'x':
			if i+2 >= len(body) {
				return "", errors.Errorf("truncated \\x escape in %s", orig)
			}
			n, err := strconv.ParseUint(body[i+1:i+3], 16, 8)
			if err != nil {
				return "", errors.Wrapf(err, "bad \\x escape in %s", orig)
			}
			b.WriteByte(byte(n))
			i += 2
		case 'u':
			if i+4 >= len(body) {
				return "", errors.Errorf("truncated \\u escape in %s", orig)
			}
			n, err := strconv.ParseUint(body[i+1:i+5], 16, 32)
			if err != nil {
				return "", errors.Wrapf(err, "bad \\u escape in %s", orig)
			}
			b.WriteRune(rune(n))
			i += 4
		default:
			// Unknown escapes keep the backslash, as Python does.
			b.WriteByte('\\')
			b.WriteByte(e)
		}
	}
	return b.String(), nil
}

// quoteString renders a string as a double-quoted grammar literal that
// unquote accepts back unchanged.
func quoteString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
