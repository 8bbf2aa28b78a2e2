package graph

import (
	"strings"
	"testing")

func TestBuildLinear(t *testing.T) {
	g, err := Build([]string{"ACGT"}, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if g.TotalRefLength() != 4 {
		t.Errorf("expected W=4, got %d", g.TotalRefLength())
	}
	if string(g.Labels) != "ACGT" {
		t.Errorf("unexpected flattened labels: %q", g.Labels)
	}
	if len(g.InNeighbors(0)) != 0 {
		t.Errorf("column 0 should have no predecessors, got %v", g.InNeighbors(0))
	}
	for j := 1; j < 4; j++ {
		preds := g.InNeighbors(j)
		if len(preds) != 1 || preds[0] != int32(j-1) {
			t.Errorf("column %d expected predecessor [%d], got %v", j, j-1, preds)
		}
	}
}

func TestBuildBranch(t *testing.T) {
	// v0=A, v1=C, v2=G, edges 0->1, 0->2
	g, err := Build([]string{"A", "C", "G"}, []Edge{{0, 1}, {0, 2}})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if g.TotalRefLength() != 3 {
		t.Fatalf("expected W=3, got %d", g.TotalRefLength())
	}
	// vertex 0 (A) is column 0, with no predecessors.
	if len(g.InNeighbors(0)) != 0 {
		t.Errorf("column 0 should have no predecessors")
	}
	// columns 1 and 2 (C, G) both depend on column 0.
	for _, col := range []int{1, 2} {
		preds := g.InNeighbors(col)
		if len(preds) != 1 || preds[0] != 0 {
			t.Errorf("column %d expected predecessor [0], got %v", col, preds)
		}
	}
}

func TestBuildRejectsCycle(t *testing.T) {
	_, err := Build([]string{"A", "C"}, []Edge{{0, 1}, {1, 0}})
	if err == nil {
		t.Fatal("expected error for cyclic graph")
	}
}

func TestBuildRejectsSelfLoop(t *testing.T) {
	_, err := Build([]string{"A"}, []Edge{{0, 0}})
	if err == nil {
		t.Fatal("expected error for self-loop")
	}
}

func TestBuildRejectsEmptyLabel(t *testing.T) {
	_, err := Build([]string{""}, nil)
	if err == nil {
		t.Fatal("expected error for empty label")
	}
}

func TestBuildRejectsLowercase(t *testing.T) {
	_, err := Build([]string{"acgt"}, nil)
	if err == nil {
		t.Fatal("expected error for lowercase label")
	}
}

func TestBuildDedupesEdges(t *testing.T) {
	g, err := Build([]string{"A", "C"}, []Edge{{0, 1}, {0, 1}, {0, 1}})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(g.InNeighbors(1)) != 1 {
		t.Errorf("expected deduped single predecessor, got %v", g.InNeighbors(1))
	}
}

func TestVerifyInvariant(t *testing.T) {
	g, err := Build([]string{"ACGT", "TT", "GG"}, []Edge{{0, 1}, {0, 2}, {1, 2}})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if err := g.Verify(); err != nil {
		t.Errorf("Verify failed on valid graph: %v", err)
	}
	for j := 0; j < g.TotalRefLength(); j++ {
		for _, p := range g.InNeighbors(j) {
			if int(p) >= j {
				t.Errorf("predecessor %d of column %d not strictly less", p, j)
			}
		}
		for _, s := range g.OutNeighbors(j) {
			if int(s) <= j {
				t.Errorf("successor %d of column %d not strictly greater", s, j)
			}
		}
	}
}

func TestReSortIdempotent(t *testing.T) {
	g, err := Build([]string{"ACGT", "TT", "GG"}, []Edge{{0, 1}, {0, 2}, {1, 2}})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	first := string(g.Labels)
	// Re-building from the same (already sorted) description must be
	// idempotent: it yields the identical flattened reference.
	g2, err := Build([]string{"ACGT", "TT", "GG"}, []Edge{{0, 1}, {0, 2}, {1, 2}})
	if err != nil {
		t.Fatalf("second Build failed: %v", err)
	}
	if string(g2.Labels) != first {
		t.Errorf("re-sort not idempotent: %q vs %q", g2.Labels, first)
	}
}

func TestParseText(t *testing.T) {
	input := `3
1 2 A
2 C
 G
`
	g, err := ParseText(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseText failed: %v", err)
	}
	if g.TotalRefLength() != 3 {
		t.Errorf("expected W=3, got %d", g.TotalRefLength())
	}
}

func TestComputeLeftMostReachableVertex(t *testing.T) {
	// v0=ACGT v1=TT v2=GG, edges 0->1, 1->2
	g, err := Build([]string{"ACGT", "TT", "GG"}, []Edge{{0, 1}, {1, 2}})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	endCol := g.ColEnd(2)
	// A budget covering only vertex 2's own length should not reach back
	// past vertex 2's start.
	lm := g.ComputeLeftMostReachableVertex(endCol, 1)
	if lm != g.ColStart(2) {
		t.Errorf("expected leftmost reachable column %d, got %d", g.ColStart(2), lm)
	}
	// A generous budget should reach all the way back to vertex 0.
	lm = g.ComputeLeftMostReachableVertex(endCol, 100)
	if lm != g.ColStart(0) {
		t.Errorf("expected leftmost reachable column %d, got %d", g.ColStart(0), lm)
	}
}
