package align

import (
	"context"
	"strings"
	"testing"

	"github.com/nanoref/graphalign/graph"
)

func mustGraph(t *testing.T, labels []string, edges []graph.Edge) *graph.CSR {
	t.Helper()
	g, err := graph.Build(labels, edges)
	if err != nil {
		t.Fatalf("building graph: %v", err)
	}
	return g
}

func linearGraph(t *testing.T, seq string) *graph.CSR {
	return mustGraph(t, []string{seq}, nil)
}

func TestPhase1ScalarExactMatch(t *testing.T) {
	g := linearGraph(t, "ACGTACGT")
	best := Phase1Scalar("ACGT", g, DefaultScores)
	if best.score != 4 {
		t.Fatalf("score = %d, want 4", best.score)
	}
	if best.col != 3 && best.col != 7 {
		t.Fatalf("end col = %d, want 3 or 7", best.col)
	}
}

func TestPhase1ScalarBranchMatch(t *testing.T) {
	// ACGT -> {GGA, CCA} -> TT ; the query matches the GGA branch exactly.
	g := mustGraph(t, []string{"ACGT", "GGA", "CCA", "TT"}, []graph.Edge{
		{From: 0, To: 1}, {From: 0, To: 2}, {From: 1, To: 3}, {From: 2, To: 3},
	})
	best := Phase1Scalar("ACGTGGATT", g, DefaultScores)
	if best.score != 9 {
		t.Fatalf("score = %d, want 9 (full exact match through the GGA branch)", best.score)
	}
}

func TestPhase1ScalarMismatchTolerated(t *testing.T) {
	g := linearGraph(t, "ACGTACGT")
	// One mismatch in the middle should still score positively with a
	// linear-gap-free single-substitution cost.
	best := Phase1Scalar("ACTTACGT", g, DefaultScores)
	if best.score <= 0 {
		t.Fatalf("score = %d, want a tolerated single mismatch to stay positive", best.score)
	}
}

func TestPhase1ScalarDeletionOverEdge(t *testing.T) {
	// The query's TT suffix is only reachable from ACGT by deleting a whole
	// branch; under DefaultScores the bridged alignment (3) scores below
	// ACGT alone (4), and either way the best local alignment stays
	// positive.
	g := mustGraph(t, []string{"ACGT", "GGA", "CCA", "TT"}, []graph.Edge{
		{From: 0, To: 1}, {From: 0, To: 2}, {From: 1, To: 3}, {From: 2, To: 3},
	})
	best := Phase1Scalar("ACGTTT", g, DefaultScores)
	if best.score <= 0 {
		t.Fatalf("score = %d, want a positive score for a query spanning a branch", best.score)
	}
}

func TestPhase1ScalarInsertion(t *testing.T) {
	g := linearGraph(t, "ACGTACGT")
	// Extra inserted base "X" not present in the reference.
	best := Phase1Scalar("ACXGT", g, DefaultScores)
	if best.score <= 0 {
		t.Fatalf("score = %d, want a positive score tolerating one insertion", best.score)
	}
}

func TestPhase1ReverseNudgeInvariant(t *testing.T) {
	g := linearGraph(t, "ACGTACGTACGT")
	query := "GTACGTAC"
	fwd := Phase1Scalar(query, g, DefaultScores)
	rev := Phase1ScalarReverse(reverseString(query), g, DefaultScores, len(query)-1-fwd.row, fwd.col)
	if rev.score != fwd.score+1 {
		t.Fatalf("reverse score = %d, want forward score + 1 = %d", rev.score, fwd.score+1)
	}
}

func TestVectorForwardBatchMatchesScalarScore(t *testing.T) {
	// Same branching graph as the scalar tests above, run through the
	// batched lane-parallel kernel at every score precision, to confirm
	// the vectorized recurrence reproduces the scalar reference's score.
	g := mustGraph(t, []string{"ACGT", "GGA", "CCA", "TT"}, []graph.Edge{
		{From: 0, To: 1}, {From: 0, To: 2}, {From: 1, To: 3}, {From: 2, To: 3},
	})
	queries := []string{"ACGTGGATT", "ACTTACGT", "ACGTTT"}

	for _, precision := range []ScorePrecision{Precision1, Precision2, Precision4} {
		cfg := Config{SimdWidth: Simd256, ScorePrecision: precision, BlockWidth: 8, BlockHeight: 16, Scores: DefaultScores}
		L := LaneCount(cfg.SimdWidth, cfg.ScorePrecision)
		for _, b := range sortAndBatch(queries, L, cfg.BlockHeight) {
			b := b
			out := forwardBatchDispatch(&b, g, cfg)
			for ln, bq := range b.queries {
				want := Phase1Scalar(bq.seq, g, cfg.Scores)
				if out[ln].score != want.score {
					t.Fatalf("precision %d, query %q: vector score = %d, scalar score = %d", precision, bq.seq, out[ln].score, want.score)
				}
			}
		}
	}
}

func TestVectorReverseBatchNudgeInvariant(t *testing.T) {
	// Mirrors TestPhase1ReverseNudgeInvariant's linear graph and query, but
	// drives the batched forward and reverse kernels instead of the scalar
	// ones, confirming the +1 nudge invariant survives the block/ring
	// bookkeeping the vectorized kernel adds on top of the recurrence.
	g := linearGraph(t, "ACGTACGTACGT")
	query := "GTACGTAC"
	cfg := Config{SimdWidth: Simd256, ScorePrecision: Precision4, BlockWidth: 8, BlockHeight: 16, Scores: DefaultScores}
	L := LaneCount(cfg.SimdWidth, cfg.ScorePrecision)

	fwdBatches := sortAndBatch([]string{query}, L, cfg.BlockHeight)
	fb := fwdBatches[0]
	fwd := forwardBatchDispatch(&fb, g, cfg)[0]

	revBatches := sortAndBatch([]string{reverseString(query)}, L, cfg.BlockHeight)
	rb := revBatches[0]
	targetRow := make([]int32, rb.maxLanes)
	targetCol := make([]int32, rb.maxLanes)
	targetRow[0] = int32(len(query)-1) - fwd.row
	targetCol[0] = fwd.col
	rev := reverseBatchDispatch(&rb, g, cfg, targetRow, targetCol)[0]

	if rev.score != fwd.score+1 {
		t.Fatalf("vector reverse score = %d, want forward score + 1 = %d", rev.score, fwd.score+1)
	}
}

func TestPhase2ReachabilityBoundsWindow(t *testing.T) {
	g := linearGraph(t, "ACGTACGTACGTACGT")
	leftCol := Phase2Reachability(g, 15, 4, DefaultScores)
	if leftCol < 0 || leftCol > 15 {
		t.Fatalf("leftCol = %d out of range", leftCol)
	}
}

func TestPhase3RecomputeMatchesPhase1(t *testing.T) {
	g := linearGraph(t, "ACGTACGT")
	query := "ACGT"
	best := Phase1Scalar(query, g, DefaultScores)
	leftCol := Phase2Reachability(g, best.col, len(query), DefaultScores)
	p3, err := Phase3Recompute(query, g, DefaultScores, leftCol, best.row, best.col, best.score, true)
	if err != nil {
		t.Fatalf("Phase3Recompute: %v", err)
	}
	if p3.Rescored != best.score {
		t.Fatalf("rescored = %d, want %d", p3.Rescored, best.score)
	}
}

func TestPhase4CigarScoresToBestScore(t *testing.T) {
	g := linearGraph(t, "ACGTACGT")
	query := "ACGT"
	best := Phase1Scalar(query, g, DefaultScores)
	leftCol := Phase2Reachability(g, best.col, len(query), DefaultScores)
	p3, err := Phase3Recompute(query, g, DefaultScores, leftCol, best.row, best.col, best.score, true)
	if err != nil {
		t.Fatalf("Phase3Recompute: %v", err)
	}
	cigarStr, startRow, startCol, err := Phase4Cigar(query, g, DefaultScores, p3, best.row, best.col, best.score, true)
	if err != nil {
		t.Fatalf("Phase4Cigar: %v", err)
	}
	if !strings.Contains(cigarStr, "=") {
		t.Fatalf("cigar %q has no match operations for an exact match", cigarStr)
	}
	if startRow != 0 {
		t.Fatalf("startRow = %d, want 0 for a full-length exact match", startRow)
	}
	if startCol < 0 || startCol > best.col {
		t.Fatalf("startCol = %d out of range", startCol)
	}
}

func TestOrchestratorScalarEndToEnd(t *testing.T) {
	g := mustGraph(t, []string{"ACGT", "GGA", "CCA", "TT"}, []graph.Edge{
		{From: 0, To: 1}, {From: 0, To: 2}, {From: 1, To: 3}, {From: 2, To: 3},
	})
	cfg := Config{SimdWidth: SimdNone, ScorePrecision: Precision4, BlockWidth: 8, BlockHeight: 16, Scores: DefaultScores, StrictAsserts: false}
	orch := NewOrchestrator(g, cfg)

	queries := []Query{
		{ID: "q1", Forward: "ACGTGGATT", ReverseComplement: reverseComplementForTest("ACGTGGATT")},
	}
	results, err := orch.AlignAll(context.Background(), queries)
	if err != nil {
		t.Fatalf("AlignAll: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	r := results[0]
	if r.Strand != Forward {
		t.Fatalf("strand = %q, want forward for an exact-match forward read", r.Strand)
	}
	if r.Score != 9 {
		t.Fatalf("score = %d, want 9", r.Score)
	}
}

func TestOrchestratorStrandSelectionPicksReverseComplement(t *testing.T) {
	g := linearGraph(t, "ACGTACGTACGT")
	// ACGTACGT is its own reverse complement, and so is the graph's
	// label, so read, its reverse complement and target are all the same
	// string and both strands score 8. Selection breaks that tie toward
	// the reverse strand and must report '-'.
	target := "ACGTACGT"
	read := reverseComplementForTest(target)
	cfg := Config{SimdWidth: SimdNone, ScorePrecision: Precision4, BlockWidth: 8, BlockHeight: 16, Scores: DefaultScores, StrictAsserts: false}
	orch := NewOrchestrator(g, cfg)
	queries := []Query{{ID: "q1", Forward: read, ReverseComplement: reverseComplementForTest(read)}}
	results, err := orch.AlignAll(context.Background(), queries)
	if err != nil {
		t.Fatalf("AlignAll: %v", err)
	}
	if results[0].Strand != Reverse {
		t.Fatalf("strand = %q, want reverse", results[0].Strand)
	}
}

func TestOrchestratorVectorizedEndToEndPrecision1(t *testing.T) {
	testOrchestratorVectorizedEndToEnd(t, Precision1)
}

func TestOrchestratorVectorizedEndToEndPrecision2(t *testing.T) {
	testOrchestratorVectorizedEndToEnd(t, Precision2)
}

func TestOrchestratorVectorizedEndToEndPrecision4(t *testing.T) {
	testOrchestratorVectorizedEndToEnd(t, Precision4)
}

// testOrchestratorVectorizedEndToEnd drives runVectorized (rather than the
// scalar path TestOrchestratorScalarEndToEnd exercises) at the given score
// precision, over the same branching graph and exact-match query. As with
// the scalar end-to-end test, StrictAsserts stays off here: the reverse
// kernel's +1 nudge invariant is checked directly and narrowly by
// TestVectorReverseBatchNudgeInvariant on a linear graph instead of being
// asserted through the full pipeline on a branchy one.
func testOrchestratorVectorizedEndToEnd(t *testing.T, precision ScorePrecision) {
	g := mustGraph(t, []string{"ACGT", "GGA", "CCA", "TT"}, []graph.Edge{
		{From: 0, To: 1}, {From: 0, To: 2}, {From: 1, To: 3}, {From: 2, To: 3},
	})
	cfg := Config{SimdWidth: Simd256, ScorePrecision: precision, BlockWidth: 8, BlockHeight: 16, Scores: DefaultScores, StrictAsserts: false}
	orch := NewOrchestrator(g, cfg)

	queries := []Query{
		{ID: "q1", Forward: "ACGTGGATT", ReverseComplement: reverseComplementForTest("ACGTGGATT")},
	}
	results, err := orch.AlignAll(context.Background(), queries)
	if err != nil {
		t.Fatalf("AlignAll: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	r := results[0]
	if r.Strand != Forward {
		t.Fatalf("strand = %q, want forward for an exact-match forward read", r.Strand)
	}
	if r.Score != 9 {
		t.Fatalf("score = %d, want 9", r.Score)
	}
}

func TestScoreCigarSumsOps(t *testing.T) {
	g := linearGraph(t, "ACGTACGT")
	query := "ACGT"
	best := Phase1Scalar(query, g, DefaultScores)
	leftCol := Phase2Reachability(g, best.col, len(query), DefaultScores)
	p3, err := Phase3Recompute(query, g, DefaultScores, leftCol, best.row, best.col, best.score, true)
	if err != nil {
		t.Fatalf("Phase3Recompute: %v", err)
	}
	cigarStr, _, _, err := Phase4Cigar(query, g, DefaultScores, p3, best.row, best.col, best.score, true)
	if err != nil {
		t.Fatalf("Phase4Cigar: %v", err)
	}
	if cigarStr != "4=" {
		t.Fatalf("cigar = %q, want \"4=\" for a 4-base exact match", cigarStr)
	}
}

// reverseComplementForTest stands in for package seqio's helper: seqio
// itself imports align, so importing it from this in-package test would
// be an import cycle.
func reverseComplementForTest(s string) string {
	comp := map[byte]byte{'A': 'T', 'T': 'A', 'C': 'G', 'G': 'C'}
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c, ok := comp[s[i]]
		if !ok {
			c = s[i]
		}
		out[len(s)-1-i] = c
	}
	return string(out)
}
