package kdtree

import (
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/ar90n/kdtree/linalg"
	"github.com/cockroachdb/errors"
)

// Validate checks the structural invariants of the tree: every stored point
// is referenced by exactly one leaf, every split node separates its leaves
// strictly by its hyperplane (a tie split of points that coincide on the
// axis excepted), and each node is reachable exactly once from the root.
func (t *Tree[T]) Validate() error {
	n := len(t.points)
	if n == 0 {
		if len(t.nodes) != 0 {
			return errors.Wrapf(ErrInvariantViolation, "%d nodes without points", len(t.nodes))
		}
		return nil
	}
	if math.MaxUint32 < uint64(n) {
		return errors.Wrapf(ErrInvariantViolation, "%d points exceed the supported size", n)
	}
	if err := validatePoints(t.points); err != nil {
		return errors.Mark(err, ErrInvariantViolation)
	}
	if len(t.nodes) != 2*n-1 {
		return errors.Wrapf(ErrInvariantViolation, "%d nodes for %d points, expected %d", len(t.nodes), n, 2*n-1)
	}

	v := validator[T]{
		tree:   t,
		leaves: roaring.New(),
		nodes:  roaring.New(),
	}
	if _, err := v.visit(0); err != nil {
		return err
	}
	if v.leaves.GetCardinality() != uint64(n) {
		return errors.Wrapf(ErrInvariantViolation, "%d of %d points reachable", v.leaves.GetCardinality(), n)
	}

	return nil
}

type validator[T linalg.Number] struct {
	tree   *Tree[T]
	leaves *roaring.Bitmap
	nodes  *roaring.Bitmap
}

// visit returns the point indices under id.
func (v *validator[T]) visit(id uint) ([]uint32, error) {
	if !v.nodes.CheckedAdd(uint32(id)) {
		return nil, errors.Wrapf(ErrInvariantViolation, "node %d is reachable twice", id)
	}

	node := v.tree.nodes[id]
	if node.IsLeaf() {
		if uint(len(v.tree.points)) <= node.Index {
			return nil, errors.Wrapf(ErrInvariantViolation, "leaf %d references point %d of %d", id, node.Index, len(v.tree.points))
		}
		if !v.leaves.CheckedAdd(uint32(node.Index)) {
			return nil, errors.Wrapf(ErrInvariantViolation, "point %d is stored in more than one leaf", node.Index)
		}
		return []uint32{uint32(node.Index)}, nil
	}

	nc := uint(len(v.tree.nodes))
	if node.Left <= id || node.Right <= id || nc <= node.Left || nc <= node.Right {
		return nil, errors.Wrapf(ErrInvariantViolation, "node %d has invalid children %d and %d", id, node.Left, node.Right)
	}
	h := node.Hyperplane
	if uint(v.tree.Dim()) <= h.Axis {
		return nil, errors.Wrapf(ErrInvariantViolation, "node %d splits axis %d of %d", id, h.Axis, v.tree.Dim())
	}

	left, err := v.visit(node.Left)
	if err != nil {
		return nil, err
	}
	right, err := v.visit(node.Right)
	if err != nil {
		return nil, err
	}

	if !v.separates(h, left, right) && !v.isTie(h, left, right) {
		return nil, errors.Wrapf(ErrInvariantViolation, "node %d: %s does not separate its subtrees", id, h)
	}

	return append(left, right...), nil
}

func (v *validator[T]) separates(h Hyperplane[T], left, right []uint32) bool {
	for _, i := range left {
		if h.Evaluate(v.tree.points[i]) {
			return false
		}
	}
	for _, i := range right {
		if !h.Evaluate(v.tree.points[i]) {
			return false
		}
	}
	return true
}

func (v *validator[T]) isTie(h Hyperplane[T], left, right []uint32) bool {
	for _, side := range [][]uint32{left, right} {
		for _, i := range side {
			if v.tree.points[i][h.Axis] != h.Value {
				return false
			}
		}
	}
	return true
}
