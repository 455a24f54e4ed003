package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{1497, "$14.97"},
		{0, "$0.00"},
		{5, "$0.05"},
		{599, "$5.99"},
		{100000, "$1000.00"},
		{-50, "-$0.50"},
		{-1299, "-$12.99"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FromCents(tc.cents).Format())
	}
}

func TestFromDollars(t *testing.T) {
	c, err := FromDollars(14.97)
	require.NoError(t, err)
	assert.Equal(t, Cents(1497), c)

	c, err = FromDollars(5.99)
	require.NoError(t, err)
	assert.Equal(t, Cents(599), c)

	c, err = FromDollars(0)
	require.NoError(t, err)
	assert.Equal(t, Cents(0), c)

	_, err = FromDollars(1.999)
	assert.ErrorIs(t, err, ErrFractionalCents)

	_, err = FromDollars(0.001)
	assert.ErrorIs(t, err, ErrFractionalCents)
}

func TestArithmetic(t *testing.T) {
	pepperoni := FromCents(599)
	cola := FromCents(299)

	total := pepperoni.Mul(2).Add(cola)
	assert.Equal(t, Cents(1497), total)
	assert.Equal(t, "$14.97", total.Format())
	assert.Equal(t, 14.97, total.Dollars())
}
