//go:build !debug

package channel

// New creates a new channel with the given buffer size.
// In production builds, this returns a buffered channel so posting work to the
// scheduler loop does not wait for the loop to pick it up.
func New[T any](size int) Channel[T] {
	return NewBuffered[T](size)
}
