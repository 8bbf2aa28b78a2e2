// Package graph implements the compressed-sparse-row representation of a
// reference sequence graph: a directed acyclic graph whose vertices carry
// short DNA labels. After construction the graph is immutable, topologically
// sorted, and indexed by "global column offset" — the position of a
// character within the concatenation of vertex labels in sorted order.
package graph

import (
	"errors"
	"fmt"
)

// ErrGraphInvariant is the sentinel wrapped by every construction-time
// invariant violation Build detects (cycle, self-loop, out-of-range edge
// endpoint, empty or non-uppercase label). An Edge carries no orientation
// or overlap, so bi-directed and overlapping edges cannot be expressed and
// are not checked.
var ErrGraphInvariant = errors.New("graph invariant violated")

// Edge is a directed connection between two vertex indices in the caller's
// original (pre-sort) numbering.
type Edge struct {
	From, To int
}

// CSR is a topologically sorted, immutable DAG of DNA-labelled vertices,
// stored in compressed-sparse-row form in both directions and indexed by
// global column offset rather than by vertex id.
type CSR struct {
	// Labels is the flattened, topologically-ordered concatenation of every
	// vertex's label. len(Labels) == W.
	Labels []byte

	// colStart[v] is the global column of the first character of vertex v,
	// in the post-sort numbering. len(colStart) == n+1, with colStart[n]==W
	// as a sentinel for length lookups.
	colStart []int32

	// vertexOfColumn[j] is the (post-sort) vertex owning column j.
	vertexOfColumn []int32

	// offsetsIn/adjacencyIn and offsetsOut/adjacencyOut are the per-column
	// CSR adjacency lists: interior columns have the single predecessor/
	// successor j-1/j+1; columns at a vertex boundary carry the last/first
	// columns of the neighbouring vertices instead.
	offsetsIn    []int32
	adjacencyIn  []int32
	offsetsOut   []int32
	adjacencyOut []int32

	// outEdges/inEdges retain the vertex-level adjacency (post-sort ids)
	// for reachability queries that need whole-vertex hops, e.g.
	// ComputeLeftMostReachableVertex.
	outEdges [][]int32
	inEdges  [][]int32
}

// NumVertices returns the number of vertices n.
func (g *CSR) NumVertices() int { return len(g.colStart) - 1 }

// TotalRefLength returns W, the length of the flattened reference.
func (g *CSR) TotalRefLength() int { return len(g.Labels) }

// TotalRefWindow returns rightCol-leftCol+1, the width of the closed column
// range [leftCol, rightCol] used to size the Phase 3 recompute window.
func (g *CSR) TotalRefWindow(leftCol, rightCol int) int {
	return rightCol - leftCol + 1
}

// VertexOf returns the vertex owning global column j.
func (g *CSR) VertexOf(col int) int { return int(g.vertexOfColumn[col]) }

// ColStart returns the first global column of vertex v.
func (g *CSR) ColStart(v int) int { return int(g.colStart[v]) }

// ColEnd returns the last global column of vertex v.
func (g *CSR) ColEnd(v int) int { return int(g.colStart[v+1]) - 1 }

// InNeighbors returns the predecessor columns of column j (forward DP
// dependencies). The returned slice must not be mutated.
func (g *CSR) InNeighbors(col int) []int32 {
	return g.adjacencyIn[g.offsetsIn[col]:g.offsetsIn[col+1]]
}

// OutNeighbors returns the successor columns of column j (reverse DP
// dependencies). The returned slice must not be mutated.
func (g *CSR) OutNeighbors(col int) []int32 {
	return g.adjacencyOut[g.offsetsOut[col]:g.offsetsOut[col+1]]
}

// Build validates and compiles a vertex label set and edge list into a
// topologically sorted CSR graph. Labels are indexed by the caller's
// original vertex numbering; edges reference that same numbering.
func Build(labels []string, edges []Edge) (*CSR, error) {
	n := len(labels)
	for v, lbl := range labels {
		if len(lbl) == 0 {
			return nil, fmt.Errorf("%w: vertex %d has empty label", ErrGraphInvariant, v)
		}
		for i := 0; i < len(lbl); i++ {
			c := lbl[i]
			if c < 'A' || c > 'Z' {
				return nil, fmt.Errorf("%w: vertex %d label %q is not uppercase", ErrGraphInvariant, v, lbl)
			}
		}
	}

	adjOut := make([]map[int]struct{}, n)
	for v := range adjOut {
		adjOut[v] = make(map[int]struct{})
	}
	for _, e := range edges {
		if e.From < 0 || e.From >= n || e.To < 0 || e.To >= n {
			return nil, fmt.Errorf("%w: edge (%d,%d) references out-of-range vertex", ErrGraphInvariant, e.From, e.To)
		}
		if e.From == e.To {
			return nil, fmt.Errorf("%w: self-loop at vertex %d", ErrGraphInvariant, e.From)
		}
		adjOut[e.From][e.To] = struct{}{} // dedupe
	}

	order, err := topoSort(n, adjOut)
	if err != nil {
		return nil, err
	}

	// rank[originalID] = position in topological order (the new vertex id)
	rank := make([]int32, n)
	for newID, oldID := range order {
		rank[oldID] = int32(newID)
	}

	sortedLabels := make([]string, n)
	sortedOut := make([][]int32, n)
	sortedIn := make([][]int32, n)
	for oldID := 0; oldID < n; oldID++ {
		newID := rank[oldID]
		sortedLabels[newID] = labels[oldID]
	}
	for oldFrom, tos := range adjOut {
		newFrom := rank[oldFrom]
		for oldTo := range tos {
			newTo := rank[oldTo]
			if newFrom >= newTo {
				return nil, fmt.Errorf("%w: cycle detected involving vertex %d", ErrGraphInvariant, oldFrom)
			}
			sortedOut[newFrom] = append(sortedOut[newFrom], newTo)
			sortedIn[newTo] = append(sortedIn[newTo], newFrom)
		}
	}

	g := &CSR{
		colStart:       make([]int32, n+1),
		vertexOfColumn: nil,
		outEdges:       sortedOut,
		inEdges:        sortedIn,
	}

	w := 0
	for v := 0; v < n; v++ {
		g.colStart[v] = int32(w)
		w += len(sortedLabels[v])
	}
	g.colStart[n] = int32(w)

	g.Labels = make([]byte, w)
	g.vertexOfColumn = make([]int32, w)
	for v := 0; v < n; v++ {
		start := g.colStart[v]
		copy(g.Labels[start:], sortedLabels[v])
		for col := start; col < g.colStart[v+1]; col++ {
			g.vertexOfColumn[col] = int32(v)
		}
	}

	g.buildColumnCSR(sortedIn, sortedOut, w)

	if err := g.Verify(); err != nil {
		return nil, err
	}
	return g, nil
}

// buildColumnCSR bakes the per-column predecessor/successor convention
// into flat CSR arrays: interior columns get a single neighbor (j-1
// forward, j+1 backward); vertex-boundary columns get the last/first
// columns of the adjacent vertices.
func (g *CSR) buildColumnCSR(sortedIn, sortedOut [][]int32, w int) {
	n := g.NumVertices()

	g.offsetsIn = make([]int32, w+1)
	g.offsetsOut = make([]int32, w+1)

	inDeg := make([]int, w)
	outDeg := make([]int, w)
	for v := 0; v < n; v++ {
		first := int(g.colStart[v])
		last := int(g.colStart[v+1]) - 1
		for col := first + 1; col <= last; col++ {
			inDeg[col] = 1
		}
		for col := first; col < last; col++ {
			outDeg[col] = 1
		}
		inDeg[first] = len(sortedIn[v])
		outDeg[last] = len(sortedOut[v])
	}

	for j := 0; j < w; j++ {
		g.offsetsIn[j+1] = g.offsetsIn[j] + int32(inDeg[j])
		g.offsetsOut[j+1] = g.offsetsOut[j] + int32(outDeg[j])
	}

	g.adjacencyIn = make([]int32, g.offsetsIn[w])
	g.adjacencyOut = make([]int32, g.offsetsOut[w])

	fillIn := make([]int32, w)
	fillOut := make([]int32, w)
	copy(fillIn, g.offsetsIn[:w])
	copy(fillOut, g.offsetsOut[:w])

	for v := 0; v < n; v++ {
		first := int32(g.colStart[v])
		last := g.colStart[v+1] - 1
		if first != last {
			for col := first + 1; col <= last; col++ {
				g.adjacencyIn[fillIn[col]] = col - 1
				fillIn[col]++
			}
			for col := first; col < last; col++ {
				g.adjacencyOut[fillOut[col]] = col + 1
				fillOut[col]++
			}
		}
		for _, predV := range sortedIn[v] {
			predLast := g.colStart[predV+1] - 1
			g.adjacencyIn[fillIn[first]] = predLast
			fillIn[first]++
		}
		for _, succV := range sortedOut[v] {
			succFirst := g.colStart[succV]
			g.adjacencyOut[fillOut[last]] = succFirst
			fillOut[last]++
		}
	}
}

// Verify checks the DP-direction invariant: every predecessor column is
// strictly less than its successor, and vice versa in the reverse CSR. It
// is idempotent and safe to call repeatedly, e.g. after a re-sort.
func (g *CSR) Verify() error {
	w := g.TotalRefLength()
	for j := 0; j < w; j++ {
		for _, p := range g.InNeighbors(j) {
			if int(p) >= j {
				return fmt.Errorf("%w: predecessor column %d not less than column %d", ErrGraphInvariant, p, j)
			}
		}
		for _, s := range g.OutNeighbors(j) {
			if int(s) <= j {
				return fmt.Errorf("%w: successor column %d not greater than column %d", ErrGraphInvariant, s, j)
			}
		}
	}
	return nil
}

// topoSort produces any total order consistent with adjOut's partial
// order using Kahn's algorithm, returning the order as old-vertex-ids.
// Detects and rejects cycles.
func topoSort(n int, adjOut []map[int]struct{}) ([]int, error) {
	indeg := make([]int, n)
	for _, tos := range adjOut {
		for to := range tos {
			indeg[to]++
		}
	}
	queue := make([]int, 0, n)
	for v := 0; v < n; v++ {
		if indeg[v] == 0 {
			queue = append(queue, v)
		}
	}
	order := make([]int, 0, n)
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		order = append(order, v)
		// iterate in a stable order for deterministic output
		tos := make([]int, 0, len(adjOut[v]))
		for to := range adjOut[v] {
			tos = append(tos, to)
		}
		sortInts(tos)
		for _, to := range tos {
			indeg[to]--
			if indeg[to] == 0 {
				queue = append(queue, to)
			}
		}
	}
	if len(order) != n {
		return nil, fmt.Errorf("%w: cycle detected (topological sort covered %d/%d vertices)", ErrGraphInvariant, len(order), n)
	}
	return order, nil
}

func sortInts(a []int) {
	for i := 1; i < len(a); i++ {
		for j := i; j > 0 && a[j-1] > a[j]; j-- {
			a[j-1], a[j] = a[j], a[j-1]
		}
	}
}

// ComputeLeftMostReachableVertex bounds the Phase 3 recompute window:
// starting from endCol, it walks backward along the graph tracking the
// minimum number of columns any path steps back, and returns the start
// column of the leftmost vertex that such a walk of at most maxDistance
// steps reaches, even when only that vertex's last columns are within
// reach. The returned column is always the start column of some vertex,
// so a recompute can begin at a clean vertex boundary.
func (g *CSR) ComputeLeftMostReachableVertex(endCol, maxDistance int) int {
	startVertex := g.VertexOf(endCol)
	// dist[v] = fewest reference characters from endCol back to the start
	// of v, following any backward walk; only vertices whose last column is
	// within budget are visited.
	dist := make(map[int32]int)
	dist[int32(startVertex)] = g.TotalRefWindow(g.ColStart(startVertex), endCol) - 1
	queue := []int32{int32(startVertex)}
	leftMost := int32(startVertex)

	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		base := dist[v]
		// each predecessor's last column is one step back from v's start.
		if base+1 > maxDistance {
			continue
		}
		for _, p := range g.inEdges[v] {
			step := base + int(g.colStart[p+1]-g.colStart[p])
			if prev, ok := dist[p]; !ok || step < prev {
				dist[p] = step
				queue = append(queue, p)
				if p < leftMost {
					leftMost = p
				}
			}
		}
	}
	return g.ColStart(int(leftMost))
}
