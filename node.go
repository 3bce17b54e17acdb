package kdtree

import (
	"fmt"

	"github.com/ar90n/kdtree/linalg"
)

// Node is either a split node with two children or a leaf holding the index
// of one stored point. Children are addressed by their position in the
// owning tree's node arena; the root occupies position 0, so 0 never names
// a child.
type Node[T linalg.Number] struct {
	Hyperplane Hyperplane[T]
	Index      uint
	Left       uint
	Right      uint
}

func newLeaf[T linalg.Number](index uint) Node[T] {
	return Node[T]{
		Hyperplane: DefaultHyperplane[T](),
		Index:      index,
	}
}

func (n Node[T]) IsLeaf() bool {
	return n.Left == 0 && n.Right == 0
}

func (n Node[T]) String() string {
	if n.IsLeaf() {
		return fmt.Sprintf("Leaf:[index = '%d']", n.Index)
	}
	return fmt.Sprintf("Split:[%s, left = '%d', right = '%d']", n.Hyperplane, n.Left, n.Right)
}
