package kdtree

import (
	"testing"

	"github.com/ar90n/kdtree/linalg"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func Test_Hyperplane(t *testing.T) {
	h := NewHyperplane(1, 2.5)

	assert.True(t, h.IsValid())
	assert.False(t, DefaultHyperplane[float64]().IsValid())

	assert.False(t, h.Evaluate([]float64{100, 2.4}))
	assert.True(t, h.Evaluate([]float64{-100, 2.5}))
	assert.True(t, h.Evaluate([]float64{0, 3}))

	d, err := h.Distance([]float64{0, -1})
	assert.NoError(t, err)
	assert.Equal(t, 3.5, d)

	d, err = h.Distance([]float64{0})
	assert.True(t, errors.Is(err, ErrCardinalityMismatch))
	assert.Equal(t, linalg.InvalidDistance, d)

	assert.True(t, h.Equal(NewHyperplane(1, 2.5)))
	assert.False(t, h.Equal(NewHyperplane(0, 2.5)))
	assert.False(t, h.Equal(NewHyperplane(1, 2.0)))

	assert.Equal(t, "Hyperplane:[axis = '1', value = '2.5']", h.String())
	assert.Equal(t, "Hyperplane:[uninitialized]", DefaultHyperplane[float64]().String())
}

func Test_NodeString(t *testing.T) {
	assert.Equal(t, "Leaf:[index = '3']", newLeaf[int](3).String())

	n := Node[int]{Hyperplane: NewHyperplane(0, 7), Left: 1, Right: 2}
	assert.False(t, n.IsLeaf())
	assert.Equal(t, "Split:[Hyperplane:[axis = '0', value = '7'], left = '1', right = '2']", n.String())
}
