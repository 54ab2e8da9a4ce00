package schema

import (
	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	rules = inflect.NewDefaultRuleset()
	upper = cases.Upper(language.Und)
)

// typeName formats a name as a GraphQL type name: "post_kind" -> "PostKind".
func typeName(name string) string {
	return rules.Camelize(name)
}

// fieldName formats a name as a GraphQL field or argument name:
// "created_at" -> "createdAt".
func fieldName(name string) string {
	if name == "" {
		return ""
	}
	return rules.CamelizeDownFirst(name)
}

// constantName formats a name as a GraphQL enum value name:
// "primary-key-asc" -> "PRIMARY_KEY_ASC".
func constantName(name string) string {
	return upper.String(rules.Underscore(name))
}

func pluralize(name string) string {
	return rules.Pluralize(name)
}
