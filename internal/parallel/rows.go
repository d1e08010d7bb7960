// Package parallel splits a row (or column) range into disjoint contiguous
// chunks and runs one goroutine per chunk with a join barrier.
//
// There is no persistent pool: each Run call spawns its workers and returns
// only after every one of them has finished. A worker must write only the
// rows of the range it was handed.
package parallel

import (
	"golang.org/x/sync/errgroup"
)

// RowRange is the half-open interval [Start, End).
type RowRange struct {
	Start int
	End   int
}

// Len returns the number of rows in the range.
func (r RowRange) Len() int {
	return r.End - r.Start
}

// Workers clamps a requested worker count to [1, rows].
func Workers(requested, rows int) int {
	if requested < 1 {
		requested = 1
	}
	if rows > 0 && requested > rows {
		requested = rows
	}
	return requested
}

// Partition splits [0, rows) into at most Workers(requested, rows) ranges of
// ceil(rows/workers) rows each. The ranges are disjoint, contiguous, non-empty
// and their union is exactly [0, rows).
func Partition(rows, requested int) []RowRange {
	if rows <= 0 {
		return nil
	}

	workers := Workers(requested, rows)
	chunk := (rows + workers - 1) / workers

	ranges := make([]RowRange, 0, workers)
	for start := 0; start < rows; start += chunk {
		ranges = append(ranges, RowRange{Start: start, End: min(start+chunk, rows)})
	}
	return ranges
}

// Run calls fn once per range of Partition(rows, requested), each call on its
// own goroutine, and waits for all of them. A single range runs on the
// calling goroutine. The first non-nil error is returned after the join.
func Run(rows, requested int, fn func(RowRange) error) error {
	if rows <= 0 {
		return nil
	}
	if Workers(requested, rows) == 1 {
		return fn(RowRange{Start: 0, End: rows})
	}

	ranges := Partition(rows, requested)

	var g errgroup.Group
	for _, r := range ranges {
		r := r
		g.Go(func() error {
			return fn(r)
		})
	}
	return g.Wait()
}
