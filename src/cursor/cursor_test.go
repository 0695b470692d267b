package cursor

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	require.Equal(t, Cursor{Page: 1, AtEnd: false}, New())
}

func TestAdvance(t *testing.T) {
	tests := []struct {
		name   string
		from   Cursor
		policy Policy
		want   Cursor
	}{
		{"more pages", Cursor{Page: 1}, Wrap, Cursor{Page: 2}},
		{"more pages stay", Cursor{Page: 4}, Stay, Cursor{Page: 5}},
		{"end wraps", Cursor{Page: 3, AtEnd: true}, Wrap, Cursor{Page: 1}},
		{"end stays", Cursor{Page: 3, AtEnd: true}, Stay, Cursor{Page: 3, AtEnd: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from := tt.from
			require.Equal(t, tt.want, tt.from.Advance(tt.policy))
			require.Equal(t, from, tt.from)
		})
	}
}

func TestObserve(t *testing.T) {
	require := require.New(t)

	c := Cursor{Page: 2}.Observe(true)
	require.Equal(Cursor{Page: 2, AtEnd: true}, c)

	c = c.Observe(false)
	require.Equal(Cursor{Page: 2, AtEnd: false}, c)
}

func TestReset(t *testing.T) {
	for _, c := range []Cursor{New(), {Page: 9}, {Page: 3, AtEnd: true}} {
		require.Equal(t, Cursor{Page: 1}, c.Reset())
	}
}

func TestObserveThenAdvance(t *testing.T) {
	require := require.New(t)

	c := New().Observe(false).Advance(Stay)
	require.Equal(Cursor{Page: 2}, c)

	c = c.Observe(true)
	require.Equal(c, c.Advance(Stay))
	require.Equal(New(), c.Advance(Wrap))
}

func TestValidate(t *testing.T) {
	require := require.New(t)

	require.NoError(New().Validate())
	err := Cursor{Page: 0}.Validate()
	require.ErrorIs(err, ErrInvalidPage)
	require.True(errors.Is(Cursor{Page: -3}.Validate(), ErrInvalidPage))
}

func TestParsePolicy(t *testing.T) {
	require := require.New(t)

	p, err := ParsePolicy("wrap")
	require.NoError(err)
	require.Equal(Wrap, p)

	p, err = ParsePolicy(" STAY ")
	require.NoError(err)
	require.Equal(Stay, p)
	require.Equal("stay", p.String())

	_, err = ParsePolicy("dead-end")
	require.Error(err)
}
