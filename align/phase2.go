package align

import (
	"math"

	"github.com/nanoref/graphalign/graph"
)

// maxRecomputeDistance bounds how far back a best-scoring path could have
// wandered: qryLen plus however many free-standing deletions the score
// could still afford, qryLen*match/del rounded up. A zero deletion cost
// makes that budget unbounded (any number of reference characters can be
// skipped for free), so the walk is left uncapped rather than clamped to
// the tightest possible window.
func maxRecomputeDistance(qryLen int, scores Scores) int {
	if scores.Del == 0 {
		return math.MaxInt32
	}
	num := qryLen * int(scores.Match)
	den := int(scores.Del)
	ceilDiv := (num + den - 1) / den
	return qryLen + ceilDiv
}

// Phase2Reachability bounds the width of the Phase 3 recompute window by
// walking backward from endCol along the graph, returning the leftmost
// column reachable within the query's edit budget.
func Phase2Reachability(g *graph.CSR, endCol, qryLen int, scores Scores) int {
	maxDistance := maxRecomputeDistance(qryLen, scores)
	return g.ComputeLeftMostReachableVertex(endCol, maxDistance)
}
