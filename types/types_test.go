package types

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/postgraph"
)

func TestNullableCollapses(t *testing.T) {
	t.Parallel()

	n := NewNullable(String)
	assert.Same(t, n, NewNullable(n))
	assert.Same(t, String, n.NonNull())
	assert.True(t, IsNullable(n))
	assert.False(t, IsNullable(String))
}

func TestAliasNullability(t *testing.T) {
	t.Parallel()

	uuid := NewAlias("uuid", "A universally unique identifier.", String)
	assert.False(t, IsNullable(uuid))
	assert.Equal(t, "uuid", uuid.Name())

	nullableUUID := NewAlias("maybe-uuid", "", NewNullable(String))
	assert.True(t, IsNullable(nullableUUID))
	assert.Same(t, String, Unwrap(nullableUUID))
	assert.Same(t, String, Unwrap(NewNullable(uuid)))
}

func TestObjectFields(t *testing.T) {
	t.Parallel()

	obj := NewObject("person", "")
	require.NoError(t, obj.AddField(&ObjectField{Name: "id", Type: Integer}))
	require.NoError(t, obj.AddField(&ObjectField{Name: "name", Type: String}))
	require.NoError(t, obj.AddField(&ObjectField{Name: "about", Type: NewNullable(String)}))

	err := obj.AddField(&ObjectField{Name: "name", Type: String})
	require.Error(t, err)
	assert.True(t, errors.Is(err, postgraph.ErrDuplicateField))
	assert.True(t, errors.Is(err, postgraph.ErrInvalidSchema))

	names := make([]string, 0, 3)
	for _, f := range obj.Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"id", "name", "about"}, names)
	assert.Equal(t, "name", obj.Field("name").Name)
	assert.Nil(t, obj.Field("missing"))
}

func TestObjectNewValue(t *testing.T) {
	t.Parallel()

	obj := NewObject("person", "").
		MustAddField(&ObjectField{Name: "id", Type: Integer}).
		MustAddField(&ObjectField{Name: "name", Type: NewNullable(String)})

	v, err := obj.NewValue(map[string]any{"id": 1, "name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, ObjectValue{"id": 1, "name": "Ada"}, v)
	assert.True(t, IsTypeOf(obj, v))

	_, err = obj.NewValue(map[string]any{"age": 3})
	assert.True(t, errors.Is(err, postgraph.ErrInvalidArgument))

	_, err = obj.NewValue(map[string]any{"id": "one"})
	assert.True(t, errors.Is(err, postgraph.ErrInvalidArgument))

	v, err = obj.NewValue(map[string]any{"id": 2})
	require.NoError(t, err, "a nullable field may be missing")
	assert.Equal(t, ObjectValue{"id": 2}, v)
	assert.True(t, IsTypeOf(obj, v))

	_, err = obj.NewValue(map[string]any{"name": "Ada"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, postgraph.ErrInvalidArgument))
	assert.Contains(t, err.Error(), `missing non-null field "id"`)

	_, err = obj.NewValue(map[string]any{"id": nil})
	assert.True(t, errors.Is(err, postgraph.ErrInvalidArgument), "null is not an integer")
}

func TestFieldAccessor(t *testing.T) {
	t.Parallel()

	type row struct{ ID int }
	f := &ObjectField{Name: "id", Type: Integer, Accessor: func(o any) any { return o.(row).ID }}
	assert.Equal(t, 7, f.Value(row{ID: 7}))

	plain := &ObjectField{Name: "id", Type: Integer}
	assert.Equal(t, 3, plain.Value(ObjectValue{"id": 3}))
	assert.Equal(t, 4, plain.Value(map[string]any{"id": 4}))
	assert.Nil(t, plain.Value(row{ID: 1}))
}

func TestIsTypeOf(t *testing.T) {
	t.Parallel()

	color := NewEnum("color", "", "red", "green")
	point := NewObject("point", "").
		MustAddField(&ObjectField{Name: "x", Type: Float}).
		MustAddField(&ObjectField{Name: "label", Type: NewNullable(String)})

	tests := []struct {
		name string
		typ  Type
		v    any
		want bool
	}{
		{"bool", Boolean, true, true},
		{"bool rejects string", Boolean, "true", false},
		{"int", Integer, 3, true},
		{"int64", Integer, int64(3), true},
		{"json number int", Integer, json.Number("42"), true},
		{"json number fraction", Integer, json.Number("4.2"), false},
		{"int rejects float", Integer, 1.5, false},
		{"float", Float, 1.5, true},
		{"float accepts int", Float, 2, true},
		{"string", String, "x", true},
		{"null non-null", String, nil, false},
		{"null nullable", NewNullable(String), nil, true},
		{"json string", JSON, `{"a":1}`, true},
		{"json raw", JSON, json.RawMessage(`1`), true},
		{"enum", color, "red", true},
		{"enum unknown", color, "blue", false},
		{"list", NewList(Integer), []any{1, 2}, true},
		{"list bad item", NewList(Integer), []any{1, "2"}, false},
		{"list not slice", NewList(Integer), 1, false},
		{"object", point, ObjectValue{"x": 1.0}, true},
		{"object map", point, map[string]any{"x": 1.0, "label": "a"}, true},
		{"object missing required", point, ObjectValue{"label": "a"}, false},
		{"object unknown key", point, ObjectValue{"x": 1.0, "y": 2.0}, false},
		{"alias", NewAlias("id", "", Integer), 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTypeOf(tt.typ, tt.v))
		})
	}
}

func TestNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "[integer]", NewList(Integer).Name())
	assert.Equal(t, "string", NewNullable(String).Name())
	assert.Equal(t, "json", KindJSON.String())
	assert.Equal(t, []string{"a", "b"}, NewEnum("e", "", "a", "b").Variants())
}
