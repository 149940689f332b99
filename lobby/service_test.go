package lobby

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type conn struct {
	id   string
	name string
}

func TestServiceKeepsInsertionOrder(t *testing.T) {
	s := NewService[*conn]()

	assert.True(t, s.Add("b", &conn{id: "b"}))
	assert.True(t, s.Add("a", &conn{id: "a"}))
	assert.True(t, s.Add("c", &conn{id: "c"}))
	assert.False(t, s.Add("a", &conn{id: "a", name: "dup"}))

	ids := func() []string {
		var out []string
		for _, c := range s.Snapshot() {
			out = append(out, c.id)
		}
		return out
	}
	assert.Equal(t, []string{"b", "a", "c"}, ids())

	removed, ok := s.Remove("a")
	assert.True(t, ok)
	assert.Equal(t, "a", removed.id)
	assert.Equal(t, []string{"b", "c"}, ids())
	assert.Equal(t, 2, s.Len())

	_, ok = s.Remove("a")
	assert.False(t, ok)
}

func TestServicePutReplacesInPlace(t *testing.T) {
	s := NewService[string]()
	s.Put("x", "one")
	s.Put("y", "two")
	s.Put("x", "three")

	assert.Equal(t, []string{"three", "two"}, s.Snapshot())

	v, ok := s.Get("x")
	assert.True(t, ok)
	assert.Equal(t, "three", v)
}
