package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/postgraph"
)

func TestParseRange(t *testing.T) {
	t.Parallel()
	tests := []struct {
		literal string
		want    *Range
	}{
		{
			literal: "[1,5)",
			want:    &Range{Start: &Bound{Value: "1", Inclusive: true}, End: &Bound{Value: "5"}},
		},
		{
			literal: "(,)",
			want:    &Range{},
		},
		{
			literal: "(3,]",
			want:    &Range{Start: &Bound{Value: "3"}},
		},
		{
			literal: `["a\"b","c"]`,
			want:    &Range{Start: &Bound{Value: `a"b`, Inclusive: true}, End: &Bound{Value: "c", Inclusive: true}},
		},
		{
			literal: `["2020-01-01 00:00:00+00","2021-01-01 00:00:00+00")`,
			want: &Range{
				Start: &Bound{Value: "2020-01-01 00:00:00+00", Inclusive: true},
				End:   &Bound{Value: "2021-01-01 00:00:00+00"},
			},
		},
		{
			literal: `["a\\b",)`,
			want:    &Range{Start: &Bound{Value: `a\b`, Inclusive: true}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.literal, func(t *testing.T) {
			t.Parallel()
			got, err := ParseRange(tt.literal)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRangeInvalid(t *testing.T) {
	t.Parallel()
	for _, literal := range []string{"", "1,5", "[1,5", "{1,5}", "[1,2,3]"} {
		_, err := ParseRange(literal)
		var rerr *postgraph.RangeError
		require.ErrorAs(t, err, &rerr, literal)
		assert.Equal(t, literal, rerr.Literal)
	}
}
