package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueTruthy(t *testing.T) {
	assert.False(t, NilValue.Truthy())
	assert.False(t, BoolValue(false).Truthy())
	assert.True(t, BoolValue(true).Truthy())
	assert.True(t, IntValue(0).Truthy(), "zero is truthy, unlike some C-family languages")
	assert.True(t, FloatValue(0).Truthy())
	assert.True(t, StringValue(NewInterner().Intern("")).Truthy())
}

func TestValueEqualityIsBitExact(t *testing.T) {
	assert.Equal(t, FloatValue(0), FloatValue(0))
	assert.NotEqual(t, FloatValue(0), FloatValue(math.Copysign(0, -1)), "+0 and -0 have distinct bit patterns")
	assert.Equal(t, IntValue(3), IntValue(3))
	assert.NotEqual(t, IntValue(3), FloatValue(3), "Int and Float are distinct Kinds even when numerically equal")
}

func TestStringInterningGivesIdenticalHandles(t *testing.T) {
	in := NewInterner()
	a := in.Intern("hello")
	b := in.Intern("hello")
	assert.Same(t, a, b)
	assert.Equal(t, StringValue(a), StringValue(b))
}

func TestValueString(t *testing.T) {
	in := NewInterner()
	cases := []struct {
		v    Value
		want string
	}{
		{NilValue, "nil"},
		{BoolValue(true), "true"},
		{IntValue(42), "42"},
		{FloatValue(1.5), "1.5"},
		{StringValue(in.Intern("hi")), `"hi"`},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.v.String())
	}
}
