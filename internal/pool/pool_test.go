package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolGetPut(t *testing.T) {
	p := New(func() []int { return make([]int, 0, 8) })

	s := p.Get()
	assert.Equal(t, 8, cap(s))
	p.Put(s[:0])

	s2 := p.Get()
	assert.NotNil(t, s2)
}

func TestNewBuffer(t *testing.T) {
	p := NewBuffer(512)

	bufPtr := p.Get()
	assert.Len(t, *bufPtr, 512)
	p.Put(bufPtr)

	again := p.Get()
	assert.Len(t, *again, 512)
}
