package usecase

import "sync"

// ResultCell is a single-assignment result holder. The first Set wins and
// closes Done; later writes are dropped. It replaces the usual "already
// responded" boolean when a timeout path races a completion path.
type ResultCell[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
}

// NewResultCell creates an empty cell
func NewResultCell[T any]() *ResultCell[T] {
	return &ResultCell[T]{done: make(chan struct{})}
}

// Set stores v if the cell is still empty and reports whether this call won
func (c *ResultCell[T]) Set(v T) bool {
	won := false
	c.once.Do(func() {
		c.val = v
		won = true
		close(c.done)
	})
	return won
}

// Done is closed once a value has been stored
func (c *ResultCell[T]) Done() <-chan struct{} {
	return c.done
}

// Value blocks until a value is stored and returns it
func (c *ResultCell[T]) Value() T {
	<-c.done
	return c.val
}
