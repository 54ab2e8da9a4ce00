package sql

import (
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// Fragment is a piece of SQL text with bound values. Fragments are
// immutable; composing them never copies values into the text.
type Fragment struct {
	parts []part
}

type part struct {
	text  string
	value any
	bound bool
}

// Raw returns a fragment of trusted SQL text.
func Raw(text string) Fragment {
	return Fragment{parts: []part{{text: text}}}
}

// Value returns a fragment binding v to a placeholder.
func Value(v any) Fragment {
	return Fragment{parts: []part{{value: v, bound: true}}}
}

// Ident returns a quoted, dot separated identifier, e.g. "forum"."person".
func Ident(names ...string) Fragment {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = pq.QuoteIdentifier(n)
	}
	return Raw(strings.Join(quoted, "."))
}

// Literal returns a quoted string literal. Use it only for values that
// can not be bound, e.g. range bounds markers.
func Literal(s string) Fragment {
	return Raw(pq.QuoteLiteral(s))
}

// Concat joins fragments without a separator.
func Concat(frags ...Fragment) Fragment {
	var n int
	for _, f := range frags {
		n += len(f.parts)
	}
	parts := make([]part, 0, n)
	for _, f := range frags {
		parts = append(parts, f.parts...)
	}
	return Fragment{parts: parts}
}

// Join joins fragments with the given separator.
func Join(frags []Fragment, sep string) Fragment {
	all := make([]Fragment, 0, 2*len(frags))
	for i, f := range frags {
		if i > 0 {
			all = append(all, Raw(sep))
		}
		all = append(all, f)
	}
	return Concat(all...)
}

// Parens wraps the fragment in parentheses.
func Parens(f Fragment) Fragment {
	return Concat(Raw("("), f, Raw(")"))
}

// IsEmpty reports whether the fragment has no text and no values.
func (f Fragment) IsEmpty() bool {
	for _, p := range f.parts {
		if p.bound || p.text != "" {
			return false
		}
	}
	return true
}

// Build returns the SQL text with $n placeholders numbered in order of
// appearance, and the values bound to them.
func (f Fragment) Build() (string, []any) {
	var (
		sb   strings.Builder
		args []any
	)
	for _, p := range f.parts {
		if !p.bound {
			sb.WriteString(p.text)
			continue
		}
		args = append(args, p.value)
		sb.WriteByte('$')
		sb.WriteString(strconv.Itoa(len(args)))
	}
	if args == nil {
		args = []any{}
	}
	return sb.String(), args
}

// String returns the SQL text, for logging.
func (f Fragment) String() string {
	query, _ := f.Build()
	return query
}
