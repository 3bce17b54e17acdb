package kdtree

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/ar90n/kdtree/collection"
	"github.com/ar90n/kdtree/linalg"
	"github.com/cockroachdb/errors"
)

// Tree is a static KD-tree over a set of equally dimensional points. A built
// tree is never modified, so any number of goroutines may query it at once.
type Tree[T linalg.Number] struct {
	points   [][]T
	nodes    []Node[T]
	splitter Splitter[T]
	logger   *slog.Logger
}

func (t *Tree[T]) addNode(node Node[T]) uint {
	nc := uint(len(t.nodes))
	t.nodes = append(t.nodes, node)

	return nc
}

func (t *Tree[T]) buildSubTree(indice []int, depth uint) (uint, error) {
	curIdx := t.addNode(newLeaf[T](uint(indice[0])))
	if len(indice) == 1 {
		return curIdx, nil
	}

	hyperplane, err := t.splitter.Split(t.points, indice, depth)
	if err != nil {
		return 0, errors.Wrapf(err, "split %d points at depth %d", len(indice), depth)
	}
	if uint(t.Dim()) <= hyperplane.Axis {
		return 0, errors.Wrapf(ErrInvalidDimension, "%s chose axis %d of %d", t.splitter.Name(), hyperplane.Axis, t.Dim())
	}

	mid := collection.Partition(indice, func(i int) bool {
		return hyperplane.Evaluate(t.points[i])
	})
	if mid == 0 || mid == uint(len(indice)) {
		t.logger.Debug("degenerate split",
			"splitter", t.splitter.Name(),
			"axis", hyperplane.Axis,
			"points", len(indice),
			"depth", depth,
		)
		hyperplane, mid = t.fallbackSplit(indice)
	}
	t.nodes[curIdx] = Node[T]{Hyperplane: hyperplane}

	left, err := t.buildSubTree(indice[:mid], depth+1)
	if err != nil {
		return 0, err
	}
	t.nodes[curIdx].Left = left

	right, err := t.buildSubTree(indice[mid:], depth+1)
	if err != nil {
		return 0, err
	}
	t.nodes[curIdx].Right = right

	return curIdx, nil
}

// fallbackSplit divides indice into two non-empty halves when the chosen
// hyperplane leaves one side empty. If the points differ on some axis the
// returned hyperplane still separates them strictly; otherwise all points
// coincide and they are split by position around their common value.
func (t *Tree[T]) fallbackSplit(indice []int) (Hyperplane[T], uint) {
	bounds := linalg.MinMaxPerAxis(t.points, indice)
	axis := linalg.AxisOfHighestSpread(bounds)

	if bounds[axis].Min < bounds[axis].Max {
		value, _ := linalg.MedianValueInAxis(t.points, indice, axis)
		if value == bounds[axis].Min {
			value = bounds[axis].Max
			for _, i := range indice {
				if v := t.points[i][axis]; bounds[axis].Min < v && v < value {
					value = v
				}
			}
		}

		hyperplane := NewHyperplane(axis, value)
		mid := collection.Partition(indice, func(i int) bool {
			return hyperplane.Evaluate(t.points[i])
		})
		if 0 < mid && mid < uint(len(indice)) {
			return hyperplane, mid
		}
	}

	return NewHyperplane(axis, bounds[axis].Min), uint(len(indice) / 2)
}

func (t *Tree[T]) Len() int {
	return len(t.points)
}

// Dim returns the dimensionality of the stored points, or 0 for an empty tree.
func (t *Tree[T]) Dim() int {
	if len(t.points) == 0 {
		return 0
	}
	return len(t.points[0])
}

func (t *Tree[T]) IsEmpty() bool {
	return len(t.nodes) == 0
}

// Points returns the stored points in index order. The result must not be
// modified.
func (t *Tree[T]) Points() [][]T {
	return t.points
}

func (t *Tree[T]) Point(i int) []T {
	return t.points[i]
}

func (t *Tree[T]) Splitter() Splitter[T] {
	return t.splitter
}

func (t *Tree[T]) Root() (Node[T], bool) {
	if t.IsEmpty() {
		return Node[T]{}, false
	}
	return t.nodes[0], true
}

func (t *Tree[T]) Node(id uint) Node[T] {
	return t.nodes[id]
}

func (t *Tree[T]) NodeCount() int {
	return len(t.nodes)
}

// Walk visits every node in preorder: a node first, then its left subtree,
// then its right subtree.
func (t *Tree[T]) Walk(fn func(id uint, node Node[T], depth uint)) {
	if t.IsEmpty() {
		return
	}

	var walk func(id uint, depth uint)
	walk = func(id uint, depth uint) {
		node := t.nodes[id]
		fn(id, node, depth)
		if node.IsLeaf() {
			return
		}
		walk(node.Left, depth+1)
		walk(node.Right, depth+1)
	}
	walk(0, 0)
}

// Clone returns a tree over the same points built with the same splitter.
func (t *Tree[T]) Clone() *Tree[T] {
	return &Tree[T]{
		points:   t.points,
		nodes:    slices.Clone(t.nodes),
		splitter: t.splitter,
		logger:   t.logger,
	}
}

// Equal reports whether both trees hold the same set of points and use the
// same split heuristic. Point order, duplicates and tree shape are ignored.
func (t *Tree[T]) Equal(other *Tree[T]) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.splitter.Name() != other.splitter.Name() {
		return false
	}

	lhs := canonicalPointSet(t.points)
	rhs := canonicalPointSet(other.points)
	return slices.EqualFunc(lhs, rhs, func(x, y []T) bool {
		return slices.Equal(x, y)
	})
}

func canonicalPointSet[T linalg.Number](points [][]T) [][]T {
	ret := slices.Clone(points)
	slices.SortFunc(ret, func(x, y []T) int {
		return slices.Compare(x, y)
	})
	return slices.CompactFunc(ret, func(x, y []T) bool {
		return slices.Equal(x, y)
	})
}

func (t *Tree[T]) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "KDTree:[splitter = '%s', points = '%d', dim = '%d']", t.splitter.Name(), t.Len(), t.Dim())
	if t.IsEmpty() {
		sb.WriteString("\n  " + emptyTreeMarker)
		return sb.String()
	}

	t.Walk(func(id uint, node Node[T], depth uint) {
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat("  ", int(depth)+1))
		if node.IsLeaf() {
			fmt.Fprintf(&sb, "%s %d %s", leafMarker, node.Index, formatPoint(t.points[node.Index]))
		} else {
			fmt.Fprintf(&sb, "%s %d %s", hyperplaneMarker, node.Hyperplane.Axis, FormatValue(node.Hyperplane.Value))
		}
	})
	return sb.String()
}

type TreeBuilder[T linalg.Number] struct {
	splitter Splitter[T]
	logger   *slog.Logger
}

func NewTreeBuilder[T linalg.Number]() *TreeBuilder[T] {
	return &TreeBuilder[T]{
		splitter: NewMedianSplitter[T](),
		logger:   slog.Default(),
	}
}

func (tb *TreeBuilder[T]) SetSplitter(splitter Splitter[T]) *TreeBuilder[T] {
	tb.splitter = splitter
	return tb
}

func (tb *TreeBuilder[T]) SetLogger(logger *slog.Logger) *TreeBuilder[T] {
	tb.logger = logger
	return tb
}

func (tb TreeBuilder[T]) GetPrameterString() string {
	return fmt.Sprintf("splitter=%s", tb.splitter.Name())
}

// Build copies points and builds a tree over them. All points must share
// the same non-zero dimensionality. An empty input yields an empty tree.
func (tb *TreeBuilder[T]) Build(points [][]T) (*Tree[T], error) {
	if err := validatePoints(points); err != nil {
		return nil, err
	}

	stored := make([][]T, len(points))
	for i, p := range points {
		stored[i] = slices.Clone(p)
	}

	tree := tb.newTree(stored)
	if len(stored) == 0 {
		tb.logger.Warn("building tree from an empty point set", "splitter", tb.splitter.Name())
		return tree, nil
	}

	indice := make([]int, len(stored))
	for i := range indice {
		indice[i] = i
	}
	tree.nodes = make([]Node[T], 0, 2*len(stored)-1)
	if _, err := tree.buildSubTree(indice, 0); err != nil {
		return nil, err
	}

	return tree, nil
}

// Rebuild builds a new tree over the points of other using this builder's
// splitter.
func (tb *TreeBuilder[T]) Rebuild(other *Tree[T]) (*Tree[T], error) {
	if other == nil {
		return nil, errors.Wrap(ErrEmptyTree, "rebuild from nil tree")
	}
	return tb.Build(other.points)
}

func (tb *TreeBuilder[T]) newTree(points [][]T) *Tree[T] {
	return &Tree[T]{
		points:   points,
		splitter: tb.splitter,
		logger:   tb.logger,
	}
}

// New builds a tree with the default median splitter.
func New[T linalg.Number](points [][]T) (*Tree[T], error) {
	return NewTreeBuilder[T]().Build(points)
}

func validatePoints[T linalg.Number](points [][]T) error {
	if len(points) == 0 {
		return nil
	}

	dim := len(points[0])
	if dim == 0 {
		return errors.Wrap(ErrInvalidDimension, "points must have at least one coordinate")
	}
	for i, p := range points {
		if len(p) != dim {
			return errors.Wrapf(ErrCardinalityMismatch, "point %d has %d coordinates, expected %d", i, len(p), dim)
		}
		for j, v := range p {
			if !linalg.IsFinite(v) {
				return errors.Wrapf(ErrNonFiniteCoordinate, "point %d coordinate %d is %v", i, j, v)
			}
		}
	}

	return nil
}
