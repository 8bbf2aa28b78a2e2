package align

import (
	"fmt"

	"github.com/nanoref/graphalign/graph"
)

// maxDelta bounds the magnitude of a single vertical score step
// H[i,j]-H[i-1,j], so the delta log can be stored as one byte per cell.
// The step is never below -ins (the insertion term) and never above
// match+del (a diagonal gain of match over a row-above neighbour that is
// itself at most del below H[i-1,j]).
func maxDelta(scores Scores) int32 {
	m := scores.Match + scores.Del
	if scores.Ins > m {
		m = scores.Ins
	}
	if scores.Mismatch > m {
		m = scores.Mismatch
	}
	return m
}

// Phase3Result carries the recomputed sub-matrix (as a full-height log of
// vertical score deltas) plus the bookkeeping Phase 4 needs to walk it.
type Phase3Result struct {
	LeftCol      int // j0: the window's leftmost global column
	Width        int
	Height       int // reducedHeight = best row + 1
	FinalRow     []int32
	DeltaLog     [][]int8 // [row][col-j0], H[i,j]-H[i-1,j]
	Rescored     int32
}

// Phase3Recompute reruns the scalar recurrence over the window
// [leftCol..endCol] x [0..endRow], recording the vertical score delta at
// every cell so Phase 4 can reconstruct absolute scores of the row above
// without keeping the full matrix. When strict is set, it panics if a
// delta exceeds maxDelta, and asserts the recomputed maximum matches the
// Phase 1 score at the same (endRow, endCol), returning
// ErrRecomputeMismatch if it doesn't.
func Phase3Recompute(query string, g *graph.CSR, scores Scores, leftCol, endRow, endCol int, expectedScore int32, strict bool) (*Phase3Result, error) {
	width := g.TotalRefWindow(leftCol, endCol)
	height := endRow + 1

	res := &Phase3Result{
		LeftCol: leftCol,
		Width:   width,
		Height:  height,
	}
	res.DeltaLog = make([][]int8, height)
	for i := range res.DeltaLog {
		res.DeltaLog[i] = make([]int8, width)
	}

	matrix := [2][]int32{make([]int32, width), make([]int32, width)}
	var preds []int32

	for i := 0; i < height; i++ {
		cur := matrix[i%2]
		prev := matrix[(i+1)%2]

		it := graph.NewForwardIterator(g, leftCol)
		for j := 0; j < width; j++ {
			refChar := it.CurChar()
			preds = preds[:0]
			preds = it.NeighborOffsets(preds)

			var matchScore int32
			if refChar == query[i] {
				matchScore = scores.Match
			} else {
				matchScore = -scores.Mismatch
			}

			fromInsertion := prev[j] - scores.Ins

			fromMatch := matchScore
			for _, k := range preds {
				if int(k) < leftCol {
					continue
				}
				if v := prev[k-int32(leftCol)] + matchScore; v > fromMatch {
					fromMatch = v
				}
			}

			fromDeletion := int32(-1)
			for _, k := range preds {
				if int(k) < leftCol {
					continue
				}
				if v := cur[k-int32(leftCol)] - scores.Del; v > fromDeletion {
					fromDeletion = v
				}
			}

			v := fromInsertion
			if fromMatch > v {
				v = fromMatch
			}
			if fromDeletion > v {
				v = fromDeletion
			}
			if 0 > v {
				v = 0
			}
			cur[j] = v
			delta := v - prev[j]
			if strict && (delta > maxDelta(scores) || delta < -maxDelta(scores)) {
				panic(fmt.Sprintf("phase 3 vertical delta %d exceeds byte-log bound at row %d col %d", delta, i, j))
			}
			res.DeltaLog[i][j] = int8(delta)

			it.Next()
		}

		if i == height-1 {
			res.FinalRow = append([]int32(nil), cur...)
		}
	}

	best := res.FinalRow[0]
	for _, v := range res.FinalRow {
		if v > best {
			best = v
		}
	}
	res.Rescored = best

	if strict {
		if best != expectedScore {
			return nil, fmt.Errorf("%w: recomputed %d, phase 1 found %d", ErrRecomputeMismatch, best, expectedScore)
		}
		if res.FinalRow[endCol-leftCol] != expectedScore {
			return nil, fmt.Errorf("%w: recomputed max at column %d is %d, expected %d at (%d,%d)", ErrRecomputeMismatch, endCol, res.FinalRow[endCol-leftCol], expectedScore, endRow, endCol)
		}
	}

	return res, nil
}
