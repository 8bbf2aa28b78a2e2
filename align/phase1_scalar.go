package align

import "github.com/nanoref/graphalign/graph"

// scalarBest carries the location and score of the best-scoring cell found
// by the scalar Phase 1 kernel.
type scalarBest struct {
	score int32
	row   int
	col   int
	vid   int
}

// Phase1Scalar computes the graph-generalized local Smith-Waterman
// recurrence with a rolling two-row buffer. It is the correct-by-
// construction reference used both to validate the vectorized kernel and
// directly for queries not worth batching.
//
//	H[i,j] = max(0, H[i-1,j]-ins, max_k(H[i-1,k]+s(q_i,ref_j)),
//	             max_k(H[i,k]-del), s(q_i,ref_j))
//
// where k ranges over predecessor columns of j (a single k=j-1 inside a
// vertex, or the graph's in-neighbors at a vertex boundary).
func Phase1Scalar(query string, g *graph.CSR, scores Scores) scalarBest {
	w := g.TotalRefLength()
	matrix := [2][]int32{make([]int32, w), make([]int32, w)}

	var best scalarBest
	var preds []int32

	for i := 0; i < len(query); i++ {
		cur := matrix[i%2]
		prev := matrix[(i+1)%2] // (i-1) mod 2, since i>=0 and we alternate
		for j := 0; j < w; j++ {
			refChar := g.Labels[j]
			preds = g.InNeighbors(j)

			var matchScore int32
			if refChar == query[i] {
				matchScore = scores.Match
			} else {
				matchScore = -scores.Mismatch
			}

			fromInsertion := prev[j] - scores.Ins

			fromMatch := matchScore // local restart / zero in-degree case
			for _, k := range preds {
				if v := prev[k] + matchScore; v > fromMatch {
					fromMatch = v
				}
			}

			fromDeletion := int32(-1)
			for _, k := range preds {
				if v := cur[k] - scores.Del; v > fromDeletion {
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

			if v > best.score {
				best.score = v
				best.row = i
				best.col = j
				best.vid = g.VertexOf(j)
			}
		}
	}
	return best
}

// Phase1ScalarReverse mirrors Phase1Scalar for the reverse kernel of spec
// §4.5: it walks the graph via OutNeighbors with columns descending, over
// a query the caller has already reversed, and applies the "+1 nudge" at
// the cell matching the already-known forward end location before the
// tie-break update. End-location ties use "last update wins" (>=) to match
// the vectorized kernel's convention.
func Phase1ScalarReverse(reversedQuery string, g *graph.CSR, scores Scores, targetRow, targetCol int) scalarBest {
	w := g.TotalRefLength()
	matrix := [2][]int32{make([]int32, w), make([]int32, w)}

	var best scalarBest
	var succs []int32

	for i := 0; i < len(reversedQuery); i++ {
		cur := matrix[i%2]
		prev := matrix[(i+1)%2]
		for j := w - 1; j >= 0; j-- {
			refChar := g.Labels[j]
			succs = g.OutNeighbors(j)

			var matchScore int32
			if refChar == reversedQuery[i] {
				matchScore = scores.Match
			} else {
				matchScore = -scores.Mismatch
			}

			fromInsertion := prev[j] - scores.Ins

			fromMatch := matchScore
			for _, k := range succs {
				if v := prev[k] + matchScore; v > fromMatch {
					fromMatch = v
				}
			}

			fromDeletion := int32(-1)
			for _, k := range succs {
				if v := cur[k] - scores.Del; v > fromDeletion {
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
			if i == targetRow && j == targetCol {
				v++
			}
			cur[j] = v

			if v >= best.score {
				best.score = v
				best.row = i
				best.col = j
				best.vid = g.VertexOf(j)
			}
		}
	}
	return best
}
