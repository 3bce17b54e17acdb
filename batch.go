package kdtree

import (
	"context"

	"github.com/ar90n/kdtree/common"
	"github.com/sourcegraph/conc/pool"
)

type BatchResult struct {
	Index int
	Err   error
}

// NearestNeighborBatch answers every query concurrently with at most
// maxGoroutines workers (0 means one per CPU). Results keep the order of
// queries. Queries not started before ctx is done are reported with the
// context error.
func (t *Tree[T]) NearestNeighborBatch(ctx context.Context, queries [][]T, maxGoroutines uint) ([]BatchResult, error) {
	results := make([]BatchResult, len(queries))
	chunks := common.GetChunks(uint(len(queries)), common.GetProcNum(maxGoroutines))

	p := pool.New().WithMaxGoroutines(max(len(chunks), 1)).WithContext(ctx)
	for _, c := range chunks {
		c := c
		p.Go(func(ctx context.Context) error {
			for i := c.Begin; i < c.End; i++ {
				if err := ctx.Err(); err != nil {
					results[i] = BatchResult{Index: NoResult, Err: err}
					continue
				}
				idx, err := t.NearestNeighbor(queries[i])
				results[i] = BatchResult{Index: idx, Err: err}
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return results, err
	}

	return results, ctx.Err()
}
