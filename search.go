package kdtree

import (
	"math"
	"slices"

	"github.com/ar90n/kdtree/linalg"
	"github.com/cockroachdb/errors"
)

// NoResult is the index reported when a query has no answer.
const NoResult = -1

// SearchResult describes the answer to one nearest-neighbor query. Visited
// counts the nodes entered and Pruned the subtrees skipped because the
// splitting plane was farther than the best candidate.
type SearchResult struct {
	Index    int
	Distance float64
	Visited  uint
	Pruned   uint
}

type searchState struct {
	best    int
	bestSq  float64
	visited uint
	pruned  uint
}

// Search returns the stored point closest to query. Among equally close
// points the one found first wins.
func (t *Tree[T]) Search(query []T) (SearchResult, error) {
	if t.IsEmpty() {
		return SearchResult{Index: NoResult, Distance: linalg.InvalidDistance}, ErrEmptyTree
	}

	state := searchState{best: NoResult, bestSq: math.Inf(1)}
	if err := t.nearest(query, 0, &state); err != nil {
		t.logger.Warn("nearest neighbor query failed", "query_dim", len(query), "tree_dim", t.Dim(), "error", err)
		return SearchResult{Index: NoResult, Distance: linalg.InvalidDistance}, err
	}

	distance, err := linalg.Distance(query, t.points[state.best])
	if err != nil {
		t.logger.Warn("nearest neighbor query failed", "query_dim", len(query), "tree_dim", t.Dim(), "error", err)
		return SearchResult{Index: NoResult, Distance: linalg.InvalidDistance}, err
	}

	return SearchResult{
		Index:    state.best,
		Distance: distance,
		Visited:  state.visited,
		Pruned:   state.pruned,
	}, nil
}

// NearestNeighbor returns the index of the stored point closest to query.
func (t *Tree[T]) NearestNeighbor(query []T) (int, error) {
	result, err := t.Search(query)
	return result.Index, err
}

// NearestPoint returns a copy of the stored point closest to query.
func (t *Tree[T]) NearestPoint(query []T) ([]T, error) {
	result, err := t.Search(query)
	if err != nil {
		return nil, err
	}

	return slices.Clone(t.points[result.Index]), nil
}

func (t *Tree[T]) nearest(query []T, id uint, state *searchState) error {
	state.visited++
	node := t.nodes[id]

	if node.IsLeaf() {
		idx := int(node.Index)
		if state.best == NoResult {
			state.best = idx
			state.bestSq = math.Inf(1)
			if len(query) == len(t.points[idx]) {
				state.bestSq = linalg.SqL2(query, t.points[idx])
			}
			return nil
		}

		point := t.points[idx]
		if len(query) != len(point) {
			return errors.Wrapf(ErrCardinalityMismatch, "query has %d coordinates, point %d has %d", len(query), idx, len(point))
		}
		if sq := linalg.SqL2(query, point); sq < state.bestSq {
			state.best = idx
			state.bestSq = sq
		}
		return nil
	}

	planeDistance, err := node.Hyperplane.Distance(query)
	if err != nil {
		return err
	}

	near, far := node.Right, node.Left
	if !node.Hyperplane.Evaluate(query) {
		near, far = node.Left, node.Right
	}

	if err := t.nearest(query, near, state); err != nil {
		return err
	}

	if planeDistance*planeDistance < state.bestSq {
		return t.nearest(query, far, state)
	}
	state.pruned++
	return nil
}
