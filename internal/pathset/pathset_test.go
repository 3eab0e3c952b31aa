package pathset

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet_KeepsFirstSeenOrder(t *testing.T) {
	s := New("b.ts", "a.ts")
	s.Add("a.ts", "", "c.ts", "b.ts")

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"b.ts", "a.ts", "c.ts"}, s.List())
}

func TestSet_ListIsACopy(t *testing.T) {
	s := New("x")
	list := s.List()
	list[0] = "changed"

	assert.Equal(t, []string{"x"}, s.List())
}

func TestUnique_EmptyEncodesAsArray(t *testing.T) {
	data, err := json.Marshal(Unique(nil))
	assert.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	assert.Equal(t, []string{"a", "b"}, Unique([]string{"a", "", "b", "a"}))
}
