package postgres

import (
	"regexp"

	"github.com/syssam/postgraph"
)

// Bound is one end of a range literal.
type Bound struct {
	Value     string
	Inclusive bool
}

// Range is a parsed range literal. A nil bound is unbounded.
type Range struct {
	Start *Bound
	End   *Bound
}

var (
	rangeRe  = regexp.MustCompile(`^(\[|\()("((?:\\"|[^"])*)"|[^",]*),("((?:\\"|[^"])*)"|[^",]*)(\]|\))$`)
	escapeRe = regexp.MustCompile(`\\(.)`)
)

// ParseRange parses a range literal such as `[1,5)` or `["a\"b",)`.
func ParseRange(literal string) (*Range, error) {
	m := rangeRe.FindStringSubmatch(literal)
	if m == nil {
		return nil, &postgraph.RangeError{Literal: literal}
	}
	r := &Range{}
	if v, ok := segment(m[2], m[3]); ok {
		r.Start = &Bound{Value: v, Inclusive: m[1] == "["}
	}
	if v, ok := segment(m[4], m[5]); ok {
		r.End = &Bound{Value: v, Inclusive: m[6] == "]"}
	}
	return r, nil
}

// segment returns the bound value of one side; an empty side is unbounded.
func segment(raw, quoted string) (string, bool) {
	switch {
	case len(raw) >= 2 && raw[0] == '"':
		return escapeRe.ReplaceAllString(quoted, "$1"), true
	case raw == "":
		return "", false
	default:
		return raw, true
	}
}
