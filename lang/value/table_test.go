package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableArrayFastPath(t *testing.T) {
	tbl := NewTable(0)

	tbl.Set(IntValue(1), IntValue(10))
	tbl.Set(IntValue(2), IntValue(20))
	tbl.Set(IntValue(3), IntValue(30))
	assert.Equal(t, 3, tbl.Len())

	v, ok := tbl.Get(IntValue(2))
	require.True(t, ok)
	assert.Equal(t, IntValue(20), v)

	tbl.Set(IntValue(2), NilValue)
	assert.Equal(t, 1, tbl.Len(), "a nil hole below the end lowers the border")

	_, ok = tbl.Get(IntValue(2))
	assert.False(t, ok)
}

func TestTableHashPartForNonSequentialKeys(t *testing.T) {
	tbl := NewTable(0)
	in := NewInterner()

	tbl.Set(StringValue(in.Intern("key")), IntValue(99))
	v, ok := tbl.Get(StringValue(in.Intern("key")))
	require.True(t, ok)
	assert.Equal(t, IntValue(99), v)

	// a large integer key does not extend the array part.
	tbl.Set(IntValue(1000), IntValue(1))
	assert.Equal(t, 0, tbl.Len())
	v, ok = tbl.Get(IntValue(1000))
	require.True(t, ok)
	assert.Equal(t, IntValue(1), v)
}
