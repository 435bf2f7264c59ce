package marker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_AddRemove(t *testing.T) {
	r := NewRegistry()
	a, b, c := &Marker{name: "a"}, &Marker{name: "b"}, &Marker{name: "c"}

	r.Add(a)
	r.Add(b)
	r.Add(c)
	assert.Equal(t, 3, r.Len())

	assert.True(t, r.Remove(b))
	assert.Equal(t, []*Marker{a, c}, r.Markers())

	assert.False(t, r.Remove(b), "second remove is a no-op")
	assert.False(t, r.Remove(&Marker{name: "a"}), "removal is by identity")
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_SnapshotIsCopy(t *testing.T) {
	r := NewRegistry()
	a := &Marker{name: "a"}
	r.Add(a)

	snap := r.Markers()
	r.Remove(a)

	assert.Len(t, snap, 1)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_Reset(t *testing.T) {
	r := NewRegistry()
	r.Add(&Marker{})
	r.Add(&Marker{})
	r.Reset()
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Markers())
}
