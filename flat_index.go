package kdtree

import (
	"context"
	"math"

	"github.com/ar90n/kdtree/common"
	"github.com/ar90n/kdtree/linalg"
	"github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc/pool"
)

// FlatIndex answers nearest-neighbor queries by scanning every feature. It
// is the reference the tree is checked against.
type FlatIndex[T linalg.Number] struct {
	Features      [][]T
	MaxGoroutines uint
}

func NewFlatIndex[T linalg.Number](features [][]T) *FlatIndex[T] {
	return &FlatIndex[T]{
		Features: features,
	}
}

func (fi *FlatIndex[T]) Add(feature []T) {
	fi.Features = append(fi.Features, feature)
}

func (fi FlatIndex[T]) Len() int {
	return len(fi.Features)
}

type flatCandidate struct {
	index int
	sq    float64
}

// Search scans the features in parallel chunks and returns the closest one.
// Ties go to the lowest index.
func (fi FlatIndex[T]) Search(ctx context.Context, query []T) (SearchResult, error) {
	if len(fi.Features) == 0 {
		return SearchResult{Index: NoResult, Distance: linalg.InvalidDistance}, ErrEmptyIndex
	}

	chunks := common.GetChunks(uint(len(fi.Features)), common.GetProcNum(fi.MaxGoroutines))
	candidates := make([]flatCandidate, len(chunks))

	p := pool.New().WithMaxGoroutines(len(chunks)).WithContext(ctx).WithCancelOnError().WithFirstError()
	for ci, c := range chunks {
		ci, c := ci, c
		p.Go(func(ctx context.Context) error {
			best := flatCandidate{index: NoResult, sq: math.Inf(1)}
			for i := c.Begin; i < c.End; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				feature := fi.Features[i]
				if len(feature) != len(query) {
					return errors.Wrapf(ErrCardinalityMismatch, "query has %d coordinates, feature %d has %d", len(query), i, len(feature))
				}
				if sq := linalg.SqL2(query, feature); best.index == NoResult || sq < best.sq {
					best = flatCandidate{index: int(i), sq: sq}
				}
			}
			candidates[ci] = best
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return SearchResult{Index: NoResult, Distance: linalg.InvalidDistance}, err
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.sq < best.sq {
			best = c
		}
	}

	return SearchResult{
		Index:    best.index,
		Distance: math.Sqrt(best.sq),
		Visited:  uint(len(fi.Features)),
	}, nil
}

func (fi FlatIndex[T]) NearestNeighbor(ctx context.Context, query []T) (int, error) {
	result, err := fi.Search(ctx, query)
	return result.Index, err
}
