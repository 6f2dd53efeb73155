package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAllocatorAllocateFree(t *testing.T) {
	var a registerAllocator

	r0, err := a.allocate()
	require.NoError(t, err)
	assert.EqualValues(t, 0, r0)
	assert.Equal(t, 1, a.stackTop)
	assert.Equal(t, 1, a.stackSize)

	r1, err := a.allocate()
	require.NoError(t, err)
	assert.EqualValues(t, 1, r1)
	assert.Equal(t, 2, a.stackTop)

	// freeing the interior register leaves a hole that the next allocate
	// reclaims, without disturbing stackTop (r1 is still live).
	a.free(r0)
	assert.Equal(t, 2, a.stackTop)

	r2, err := a.allocate()
	require.NoError(t, err)
	assert.EqualValues(t, 0, r2, "allocate must reclaim the lowest free register")

	a.free(r2)
	a.free(r1)
	assert.Equal(t, 0, a.stackTop, "freeing the topmost register lowers stackTop")
	assert.Equal(t, 2, a.stackSize, "stackSize records the high-water mark")
}

func TestRegisterAllocatorExhaustion(t *testing.T) {
	var a registerAllocator
	for i := 0; i < 256; i++ {
		_, err := a.allocate()
		require.NoError(t, err)
	}
	_, err := a.allocate()
	assert.Error(t, err)
}

func TestRegisterAllocatorPushPopTo(t *testing.T) {
	var a registerAllocator
	base, err := a.push(3)
	require.NoError(t, err)
	assert.EqualValues(t, 0, base)
	assert.Equal(t, 3, a.stackTop)

	a.popTo(1)
	assert.Equal(t, 1, a.stackTop)
	assert.Equal(t, 1, a.firstFree)

	_, err = a.push(300)
	assert.Error(t, err, "a block larger than the remaining register space must fail")
}

func TestRegisterAllocatorPushZeroIsNoOp(t *testing.T) {
	var a registerAllocator
	base, err := a.push(0)
	require.NoError(t, err, "a zero-parameter function must not be treated as a register-limit overflow")
	assert.EqualValues(t, 0, base)
	assert.Equal(t, 0, a.stackTop)

	_, err = a.push(3)
	require.NoError(t, err)
	base, err = a.push(0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, base, "push(0) returns the current stack top unchanged")
	assert.Equal(t, 3, a.stackTop)
}

func TestTopStackAlwaysHasTop(t *testing.T) {
	s := newTopStack(1)
	assert.Equal(t, 1, s.len())

	s.push(2)
	s.push(3)
	assert.Equal(t, 3, s.len())
	assert.Equal(t, 3, *s.get(2))
	assert.Equal(t, 1, *s.get(0))

	assert.Equal(t, 3, s.pop())
	assert.Equal(t, 2, s.pop())
	assert.Equal(t, 1, s.len())

	assert.Panics(t, func() { s.pop() }, "popping the last entry must panic")
}
