package main

import (
	"context"
	"fmt"
	"io"

	"github.com/ar90n/kdtree"
	"github.com/ar90n/kdtree/linalg"
	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
)

var errMismatches = errors.New("tree answers differ from brute force")

type sanityReport struct {
	w          io.Writer
	red        *color.Color
	green      *color.Color
	mismatches int
}

func newSanityReport(w io.Writer) *sanityReport {
	return &sanityReport{
		w:     w,
		red:   color.New(color.FgRed, color.Bold),
		green: color.New(color.FgGreen),
	}
}

func (r *sanityReport) mismatch(query, brute, tree interface{}, bruteDist, treeDist float64) {
	r.mismatches++
	r.red.Fprintln(r.w, "mismatch")
	fmt.Fprintf(r.w, "    query = %v\n", query)
	fmt.Fprintf(r.w, "    brute = %v (distance %g)\n", brute, bruteDist)
	fmt.Fprintf(r.w, "    tree  = %v (distance %g)\n", tree, treeDist)
}

func (r *sanityReport) failure(query interface{}, err error) {
	r.mismatches++
	r.red.Fprintln(r.w, "query failed")
	fmt.Fprintf(r.w, "    query = %v\n", query)
	fmt.Fprintf(r.w, "    error = %v\n", err)
}

func (r *sanityReport) finish(queries int) error {
	if r.mismatches == 0 {
		r.green.Fprintf(r.w, "all %d queries match brute force\n", queries)
		return nil
	}

	r.red.Fprintf(r.w, "total number of mismatches = %d of %d\n", r.mismatches, queries)
	return errors.Wrapf(errMismatches, "%d of %d queries", r.mismatches, queries)
}

// checkAgainstBruteForce answers every query with tree and with a full
// scan. Answers that differ only by picking another point at the same
// distance are accepted.
func checkAgainstBruteForce[T linalg.Number](ctx context.Context, tree *kdtree.Tree[T], queries [][]T, maxGoroutines uint, report *sanityReport) error {
	results, err := tree.NearestNeighborBatch(ctx, queries, maxGoroutines)
	if err != nil {
		return err
	}

	flat := kdtree.NewFlatIndex(tree.Points())
	flat.MaxGoroutines = maxGoroutines
	for i, q := range queries {
		brute, bruteErr := flat.Search(ctx, q)
		treeErr := results[i].Err
		if bruteErr != nil || treeErr != nil {
			if !sameFailure(bruteErr, treeErr) {
				report.failure(q, errors.CombineErrors(treeErr, bruteErr))
			}
			continue
		}

		idx := results[i].Index
		treeDist, err := linalg.Distance(q, tree.Point(idx))
		if err != nil {
			report.failure(q, err)
			continue
		}
		if idx != brute.Index && treeDist != brute.Distance {
			report.mismatch(q, tree.Point(brute.Index), tree.Point(idx), brute.Distance, treeDist)
		}
	}

	return nil
}

// sameFailure reports whether both searches rejected the query for the same
// reason, as they do for an empty point set or a query of the wrong size.
func sameFailure(bruteErr, treeErr error) bool {
	if bruteErr == nil || treeErr == nil {
		return false
	}
	if errors.Is(bruteErr, kdtree.ErrEmptyIndex) && errors.Is(treeErr, kdtree.ErrEmptyTree) {
		return true
	}
	return errors.Is(bruteErr, kdtree.ErrCardinalityMismatch) && errors.Is(treeErr, kdtree.ErrCardinalityMismatch)
}
