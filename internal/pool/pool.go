// Package pool provides a typed wrapper around sync.Pool.
package pool

import "sync"

// Pool is a generic wrapper around sync.Pool.
type Pool[T any] struct {
	internal sync.Pool
}

// New creates a new Pool with the given constructor.
func New[T any](newFn func() T) *Pool[T] {
	return &Pool[T]{
		internal: sync.Pool{
			New: func() any {
				return newFn()
			},
		},
	}
}

// Get retrieves an item from the pool.
func (p *Pool[T]) Get() T {
	return p.internal.Get().(T)
}

// Put returns an item to the pool.
func (p *Pool[T]) Put(item T) {
	p.internal.Put(item)
}

// NewBuffer creates a pool of byte buffers of the given size, stored as
// pointers so Get/Put do not allocate. Both the UDP front end and the
// resolver recycle their datagram receive buffers through one of these.
func NewBuffer(size int) *Pool[*[]byte] {
	return New(func() *[]byte {
		b := make([]byte, size)
		return &b
	})
}
