package postgres

import (
	"testing"

	"github.com/lib/pq/oid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalog(t *testing.T) {
	t.Parallel()
	cat, err := LoadCatalog("testdata/forum.yaml")
	require.NoError(t, err)
	require.Len(t, cat.Classes, 5)
	people := cat.class("forum", "people")
	require.NotNil(t, people)
	assert.Equal(t, KindTable, people.Kind)
	assert.Equal(t, oid.Oid(20001), people.TypeID)
	assert.Equal(t, "name", people.Attribute(2).Name)
	assert.Nil(t, people.Attribute(9))
	assert.Equal(t, []string{"text", "image", "link"}, cat.typ(20010).EnumVariants)
	assert.Nil(t, cat.typ(1))
}

func TestParseCatalog(t *testing.T) {
	t.Parallel()
	cat, err := ParseCatalog(nil)
	require.NoError(t, err)
	assert.Empty(t, cat.Classes)

	_, err = ParseCatalog([]byte("classes:\n  - name: a\n    color: red\n"))
	require.Error(t, err)

	_, err = LoadCatalog("testdata/missing.yaml")
	require.Error(t, err)
}
