package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNaming(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "PostKind", typeName("post_kind"))
	assert.Equal(t, "PersonIdKey", typeName("person-id-key"))
	assert.Equal(t, "createdAt", fieldName("created_at"))
	assert.Equal(t, "allPeople", fieldName("all-people"))
	assert.Equal(t, "personById", fieldName("person-by-id"))
	assert.Equal(t, "", fieldName(""))
	assert.Equal(t, "PRIMARY_KEY_ASC", constantName("primary-key-asc"))
	assert.Equal(t, "NATURAL", constantName("natural"))
	assert.Equal(t, "people", pluralize("person"))
	assert.Equal(t, "posts", pluralize("post"))
}
