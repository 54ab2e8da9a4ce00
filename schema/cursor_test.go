package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/postgraph"
	"github.com/syssam/postgraph/inventory"
)

func TestCursorRoundTrip(t *testing.T) {
	t.Parallel()

	name := "world"
	token, err := EncodeCursor(&inventory.Cursor{OrderingName: &name, Payload: "foobar"})
	require.NoError(t, err)
	assert.Equal(t, "WyJ3b3JsZCIsImZvb2JhciJd", token)

	c, err := DecodeCursor(token)
	require.NoError(t, err)
	require.NotNil(t, c.OrderingName)
	assert.Equal(t, "world", *c.OrderingName)
	assert.Equal(t, "foobar", c.Payload)
}

func TestCursorWithoutOrdering(t *testing.T) {
	t.Parallel()

	token, err := EncodeCursor(&inventory.Cursor{Payload: 1})
	require.NoError(t, err)
	assert.Equal(t, "W251bGwsMV0=", token)

	c, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Nil(t, c.OrderingName)
	assert.Equal(t, json.Number("1"), c.Payload)
}

func TestDecodeCursorMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		token string
	}{
		{"not base64", "!!!"},
		{"not json", "bm9wZQ=="},
		{"one element", "WyJhIl0="},
		{"name not a string", "WzEsMl0="},
		{"trailing garbage", "W251bGwsMV0gdHJhaWxpbmcgZ2FyYmFnZQ=="},
		{"second value", "W251bGwsMV1bMl0="},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := DecodeCursor(tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, postgraph.ErrMalformedCursor)
			assert.True(t, postgraph.IsCursorError(err))
		})
	}
}

func TestDecodeCursorTrailingWhitespace(t *testing.T) {
	t.Parallel()

	c, err := DecodeCursor("W251bGwsMV0K")
	require.NoError(t, err)
	assert.Equal(t, json.Number("1"), c.Payload)
}

func TestCursorKeepsMarkup(t *testing.T) {
	t.Parallel()

	name := "natural"
	token, err := EncodeCursor(&inventory.Cursor{OrderingName: &name, Payload: "<a>"})
	require.NoError(t, err)
	assert.Equal(t, "WyJuYXR1cmFsIiwiPGE+Il0=", token, "markup is not escaped in the payload")

	c, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "<a>", c.Payload)
}

func TestCursorScalar(t *testing.T) {
	t.Parallel()

	s := newCursorScalar()
	name := "natural"
	assert.Equal(t, "WyJuYXR1cmFsIiwxXQ==", s.Serialize(&inventory.Cursor{OrderingName: &name, Payload: 1}))
	assert.Equal(t, "opaque", s.Serialize("opaque"))
	assert.Nil(t, s.Serialize(42))

	c, ok := s.ParseValue("WyJuYXR1cmFsIiwxXQ==").(*inventory.Cursor)
	require.True(t, ok)
	assert.Equal(t, "natural", *c.OrderingName)
	assert.Nil(t, s.ParseValue("!!!"))
	assert.Nil(t, s.ParseValue(1))
}

func TestJSONScalar(t *testing.T) {
	t.Parallel()

	s := newJSONScalar()
	assert.Equal(t, `{"a":1}`, s.Serialize(map[string]any{"a": 1}))
	assert.Equal(t, `[1,2]`, s.Serialize(`[1,2]`))
	assert.Equal(t, `{"a":1}`, s.ParseValue(`{"a":1}`))
	assert.Nil(t, s.ParseValue(`{"a":`))
}
