package schema

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"

	"github.com/syssam/postgraph"
	"github.com/syssam/postgraph/inventory"
)

// EncodeCursor returns the opaque token of a cursor: the base64 encoded
// JSON array [orderingName, payload].
func EncodeCursor(c *inventory.Cursor) (string, error) {
	var name any
	if c.OrderingName != nil {
		name = *c.OrderingName
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode([]any{name, c.Payload}); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// DecodeCursor parses a token returned by EncodeCursor. Numbers in the
// payload are decoded as json.Number.
func DecodeCursor(token string) (*inventory.Cursor, error) {
	b, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, postgraph.NewCursorError(token, err)
	}
	var parts []any
	if err := decodeJSON(b, &parts); err != nil {
		return nil, postgraph.NewCursorError(token, err)
	}
	if len(parts) != 2 {
		return nil, postgraph.NewCursorError(token, errors.New("expected a two element array"))
	}
	c := &inventory.Cursor{Payload: parts[1]}
	switch name := parts[0].(type) {
	case nil:
	case string:
		c.OrderingName = &name
	default:
		return nil, postgraph.NewCursorError(token, errors.New("ordering name is not a string"))
	}
	return c, nil
}

// decodeJSON decodes exactly one JSON value from b.
func decodeJSON(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after the cursor value")
	}
	return nil
}

func newCursorScalar() *graphql.Scalar {
	parse := func(v any) any {
		s, ok := v.(string)
		if !ok {
			return nil
		}
		c, err := DecodeCursor(s)
		if err != nil {
			return nil
		}
		return c
	}
	return graphql.NewScalar(graphql.ScalarConfig{
		Name:        "Cursor",
		Description: "An opaque position in a connection.",
		Serialize: func(v any) any {
			var c *inventory.Cursor
			switch v := v.(type) {
			case *inventory.Cursor:
				c = v
			case inventory.Cursor:
				c = &v
			case string:
				return v
			default:
				return nil
			}
			token, err := EncodeCursor(c)
			if err != nil {
				return nil
			}
			return token
		},
		ParseValue: parse,
		ParseLiteral: func(v ast.Value) any {
			if s, ok := v.(*ast.StringValue); ok {
				return parse(s.Value)
			}
			return nil
		},
	})
}

func newJSONScalar() *graphql.Scalar {
	return graphql.NewScalar(graphql.ScalarConfig{
		Name:        "JSON",
		Description: "A JSON document, serialized as a string.",
		Serialize: func(v any) any {
			switch v := v.(type) {
			case string:
				return v
			case []byte:
				return string(v)
			case json.RawMessage:
				return string(v)
			}
			b, err := json.Marshal(v)
			if err != nil {
				return nil
			}
			return string(b)
		},
		ParseValue: func(v any) any {
			s, ok := v.(string)
			if !ok || !json.Valid([]byte(s)) {
				return nil
			}
			return s
		},
		ParseLiteral: func(v ast.Value) any {
			s, ok := v.(*ast.StringValue)
			if !ok || !json.Valid([]byte(s.Value)) {
				return nil
			}
			return s.Value
		},
	})
}
