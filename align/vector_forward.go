package align

import (
	"github.com/nanoref/graphalign/align/lane"
	"github.com/nanoref/graphalign/graph"
)

// laneResult is one lane's best-cell outcome from a vectorized kernel pass.
type laneResult struct {
	score int32
	row   int32
	col   int32
}

// readCell fetches a dependency column's cached score at a row local to
// the current blockHeight row-block: from the nearbyColumns ring if the
// dependency is within blockWidth columns of the one being computed,
// otherwise from its reserved fartherColumns slot (a "long hop"). dist is
// the absolute column distance between the two; depColumn is the
// dependency column, which owns the ring slot or fartherColumns index.
func readCell[T lane.Elem](nearby, farther []lane.Vec[T], farIndex []int32, bw, bh, dist, depColumn, localRow int) lane.Vec[T] {
	if dist < bw {
		ring := depColumn & (bw - 1)
		return nearby[ring*bh+localRow]
	}
	return farther[int(farIndex[depColumn])*bh+localRow]
}

// vectorForwardBatch runs Phase 1's forward kernel across every lane of b
// in lockstep, using T-wide score lanes.
//
// It reproduces Phase1Scalar's recurrence exactly, but replaces the full
// two-row matrix with a bounded-memory scheme: a nearbyColumns ring of
// width blockWidth holding the current blockHeight row-block's scores for
// recently visited columns, a fartherColumns cache
// for the handful of columns some later column depends on from more than
// blockWidth away, and a double-buffered lastBatchRow holding the row
// immediately above the current row-block for every column in the graph.
// End-location tracking uses "last update wins": a lane's recorded
// (row, col) is overwritten whenever a later cell in this column-major,
// block-major sweep ties or beats its current best.
func vectorForwardBatch[T lane.Elem](b *batch, g *graph.CSR, cfg Config) []laneResult {
	w := g.TotalRefLength()
	L := b.maxLanes
	bw := cfg.BlockWidth
	bh := cfg.BlockHeight

	match := T(cfg.Scores.Match)
	mismatch := T(cfg.Scores.Mismatch)
	del := T(cfg.Scores.Del)
	ins := T(cfg.Scores.Ins)

	_, farIndex, farCount := longHopSources(g, bw)

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

		for col := 0; col < w; col++ {
			preds := g.InNeighbors(col)
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
					for _, kk := range preds {
						k := int(kk)
						cur = lane.Max(cur, lane.Add(lastRow[prevBuf][k], sub))
						cur = lane.Max(cur, lane.SubScalar(readCell(nearby, farther, farIndex, bw, bh, col-k, k, 0), del))
					}
					cur = lane.Max(cur, lane.SubScalar(lastRow[prevBuf][col], ins))
				} else {
					for _, kk := range preds {
						k := int(kk)
						cur = lane.Max(cur, lane.Add(readCell(nearby, farther, farIndex, bw, bh, col-k, k, l-1), sub))
						cur = lane.Max(cur, lane.SubScalar(readCell(nearby, farther, farIndex, bw, bh, col-k, k, l), del))
					}
					cur = lane.Max(cur, lane.SubScalar(nearby[ring*bh+l-1], ins))
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
