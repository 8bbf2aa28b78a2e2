package graph

// Iterator is a cursor over the flattened reference, in either direction.
// It abstracts the difference between an "intra-vertex step" (column ±1)
// and an "edge step" (the multiple predecessors/successors baked into the
// CSR at vertex boundaries) behind a uniform column-indexed walk.
type Iterator struct {
	g       *CSR
	col     int
	reverse bool
}

// NewForwardIterator returns an iterator starting at the given column and
// walking columns 0..W-1 in increasing order.
func NewForwardIterator(g *CSR, startCol int) *Iterator {
	return &Iterator{g: g, col: startCol, reverse: false}
}

// NewReverseIterator returns an iterator starting at the given column and
// walking columns W-1..0 in decreasing order.
func NewReverseIterator(g *CSR, startCol int) *Iterator {
	return &Iterator{g: g, col: startCol, reverse: true}
}

// CurChar returns the reference character at the iterator's current column.
func (it *Iterator) CurChar() byte { return it.g.Labels[it.col] }

// GlobalOffset returns the iterator's current column.
func (it *Iterator) GlobalOffset() int { return it.col }

// CurrentVertexID returns the vertex owning the current column.
func (it *Iterator) CurrentVertexID() int { return it.g.VertexOf(it.col) }

// NeighborOffsets appends the dependency columns of the current position
// to dst and returns the result: predecessor columns when walking
// forward, successor columns when walking in reverse.
func (it *Iterator) NeighborOffsets(dst []int32) []int32 {
	if it.reverse {
		return append(dst, it.g.OutNeighbors(it.col)...)
	}
	return append(dst, it.g.InNeighbors(it.col)...)
}

// Next advances the cursor by one column in the iterator's direction.
func (it *Iterator) Next() {
	if it.reverse {
		it.col--
	} else {
		it.col++
	}
}

// Jump moves the cursor directly to column j, e.g. to follow a specific
// predecessor edge chosen during Phase 4 traceback.
func (it *Iterator) Jump(j int) { it.col = j }

// End reports whether the cursor has walked past the end of the reference
// in its direction of travel.
func (it *Iterator) End() bool {
	if it.reverse {
		return it.col < 0
	}
	return it.col >= it.g.TotalRefLength()
}
