package align

import (
	"github.com/nanoref/graphalign/align/lane"
	"github.com/nanoref/graphalign/graph"
)

// vectorReverseBatch runs Phase 1's reverse kernel: the same recurrence as
// vectorForwardBatch, but walking columns from W-1 down to 0 and consulting
// OutNeighbors instead of InNeighbors, over a query the caller has already
// reversed so it traverses the graph in reverse topological order.
// Locating a start position for a local alignment whose end is already
// known is the standard backward-DP trick: rerun the same recurrence from
// the far end and take its own local maximum.
//
// targetRow/targetCol give, per lane, the reversed-coordinate cell matching
// that lane's already-known forward end location. When the sweep reaches
// exactly that cell it adds 1 to the score before the tie-break update,
// which is what produces the reverseScore == forwardScore + 1 invariant:
// without it, ties between the true start and some other equally-scoring
// cell are broken arbitrarily and might not select the cell consistent
// with the forward pass at all.
func vectorReverseBatch[T lane.Elem](b *batch, g *graph.CSR, cfg Config, targetRow, targetCol []int32) []laneResult {
	w := g.TotalRefLength()
	L := b.maxLanes
	bw := cfg.BlockWidth
	bh := cfg.BlockHeight

	match := T(cfg.Scores.Match)
	mismatch := T(cfg.Scores.Mismatch)
	del := T(cfg.Scores.Del)
	ins := T(cfg.Scores.Ins)

	_, farIndex, farCount := longHopTargets(g, bw)

	nearby := make([]lane.Vec[T], bw*bh)
	for i := range nearby {
		nearby[i] = lane.Zero[T](L)
	}
	var farther []lane.Vec[T]
	if farCount > 0 {
		farther = make([]lane.Vec[T], farCount*bh)
		for i := range farther {
			farther[i] = lane.Zero[T](L)
		}
	}

	lastRow := [2][]lane.Vec[T]{make([]lane.Vec[T], w), make([]lane.Vec[T], w)}
	for buf := range lastRow {
		for j := range lastRow[buf] {
			lastRow[buf][j] = lane.Zero[T](L)
		}
	}

	bestScore := lane.Zero[T](L)
	bestRow := make([]int32, L)
	bestCol := make([]int32, L)

	refChars := g.Labels

	for jBlock := 0; jBlock < b.rows; jBlock += bh {
		curBuf := (jBlock / bh) % 2
		prevBuf := 1 - curBuf
		rowsInBlock := bh
		if jBlock+rowsInBlock > b.rows {
			rowsInBlock = b.rows - jBlock
		}

		for col := w - 1; col >= 0; col-- {
			succs := g.OutNeighbors(col)
			refChar := refChars[col]
			ring := col & (bw - 1)
			fi := farIndex[col]

			for l := 0; l < rowsInBlock; l++ {
				row := jBlock + l

				sub := make(lane.Vec[T], L)
				for ln := 0; ln < L; ln++ {
					if b.charAt(row, ln) == refChar {
						sub[ln] = match
					} else {
						sub[ln] = -mismatch
					}
				}

				cur := lane.Max(lane.Zero[T](L), sub)

				if l == 0 {
					for _, kk := range succs {
						k := int(kk)
						cur = lane.Max(cur, lane.Add(lastRow[prevBuf][k], sub))
						cur = lane.Max(cur, lane.SubScalar(readCell(nearby, farther, farIndex, bw, bh, k-col, k, 0), del))
					}
					cur = lane.Max(cur, lane.SubScalar(lastRow[prevBuf][col], ins))
				} else {
					for _, kk := range succs {
						k := int(kk)
						cur = lane.Max(cur, lane.Add(readCell(nearby, farther, farIndex, bw, bh, k-col, k, l-1), sub))
						cur = lane.Max(cur, lane.SubScalar(readCell(nearby, farther, farIndex, bw, bh, k-col, k, l), del))
					}
					cur = lane.Max(cur, lane.SubScalar(nearby[ring*bh+l-1], ins))
				}

				for ln := 0; ln < L; ln++ {
					if targetRow[ln] == int32(row) && targetCol[ln] == int32(col) {
						cur[ln] += 1
					}
				}

				mask := lane.CmpGe(cur, bestScore)
				bestScore = lane.Blend(mask, cur, bestScore)
				lane.MaskSetInt(bestRow, mask, int32(row))
				lane.MaskSetInt(bestCol, mask, int32(col))

				nearby[ring*bh+l] = cur
				if fi >= 0 {
					farther[int(fi)*bh+l] = cur
				}
			}

			lastRow[curBuf][col] = nearby[ring*bh+rowsInBlock-1]
		}
	}

	out := make([]laneResult, L)
	for ln := 0; ln < L; ln++ {
		out[ln] = laneResult{score: int32(bestScore[ln]), row: bestRow[ln], col: bestCol[ln]}
	}
	return out
}
