package qap

import (
	"regexp"
	"strings"
)

// serialPattern recognises a leading serial-number token followed by at
// least one whitespace character. Alternatives in decreasing precedence:
//
//	1, 1.1, 1.1.1        dotted-decimal
//	a.  A.               single letter with period
//	(a) (7)              parenthesized letter or integer
var serialPattern = regexp.MustCompile(`^([0-9]+(?:\.[0-9]+)*|[a-z]\.|[A-Z]\.|\([a-z]\)|\([0-9]+\))\s+`)

// SerialMatcher detects serial-number tokens at the start of checklist
// lines. It is a standalone strategy so the matching rule can be tested
// against sample lines without a PDF parser in the loop.
type SerialMatcher struct{}

// Match splits line into a serial token and the remaining description.
// The token is trimmed of trailing punctuation and space ("a." → "a").
// ok is false when the line carries no recognisable token.
func (SerialMatcher) Match(line string) (serial, rest string, ok bool) {
	m := serialPattern.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	serial = strings.TrimRight(m[1], ". ")
	rest = strings.TrimSpace(line[len(m[0]):])
	return serial, rest, true
}
