package align

import (
	"sort"

	"github.com/nanoref/graphalign/graph"
)

// fillerChar pads a batch's shorter queries out to the batch's longest
// length. It is chosen to never equal a real (uppercase) DNA character, so
// padded cells can never out-score real ones.
const fillerChar byte = 0

// batchQuery is one lane's worth of packing metadata.
type batchQuery struct {
	seq     string
	origIdx int // index into the caller's original query slice
}

// batch is one structure-of-arrays group of up to L queries, laid out
// row-major over (batch-row, lane) so that column j supplies L characters
// in a single access.
type batch struct {
	queries  []batchQuery
	maxLanes int    // L: register width, including unused lanes if this is a partial last batch
	rows     int    // qryBatchLen, rounded up to a multiple of blockHeight
	chars    []byte // rows*maxLanes, row-major: chars[row*maxLanes+lane]
}

func (b *batch) charAt(row, lane int) byte { return b.chars[row*b.maxLanes+lane] }

// sortAndBatch groups queries into batches of at most maxLanes, sorted by
// length descending, so that the length-tail (longest queries) dominate
// the fewest batches and don't straggle every other batch.
func sortAndBatch(queries []string, maxLanes, blockHeight int) []batch {
	if maxLanes < 1 {
		maxLanes = 1
	}
	order := make([]int, len(queries))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return len(queries[order[a]]) > len(queries[order[b]]) })

	var batches []batch
	for start := 0; start < len(order); start += maxLanes {
		end := start + maxLanes
		if end > len(order) {
			end = len(order)
		}
		group := order[start:end]

		longest := 0
		bq := make([]batchQuery, len(group))
		for i, qi := range group {
			bq[i] = batchQuery{seq: queries[qi], origIdx: qi}
			if len(queries[qi]) > longest {
				longest = len(queries[qi])
			}
		}
		rows := roundUp(longest, blockHeight)

		chars := make([]byte, rows*maxLanes)
		for lane, q := range bq {
			for r := 0; r < len(q.seq); r++ {
				chars[r*maxLanes+lane] = q.seq[r]
			}
			for r := len(q.seq); r < rows; r++ {
				chars[r*maxLanes+lane] = fillerChar
			}
		}
		// unused lanes (last, partial batch) are all-filler.
		for lane := len(group); lane < maxLanes; lane++ {
			for r := 0; r < rows; r++ {
				chars[r*maxLanes+lane] = fillerChar
			}
		}

		batches = append(batches, batch{queries: bq, maxLanes: maxLanes, rows: rows, chars: chars})
	}
	return batches
}

func roundUp(n, m int) int {
	if m <= 0 {
		return n
	}
	if n == 0 {
		return m
	}
	if n%m == 0 {
		return n
	}
	return n + (m - n%m)
}

// longHopSources marks every column that is a "long hop" source: some
// column blockWidth or more positions ahead of it depends on it directly.
// Those columns' per-row scores must survive in fartherColumns because the
// nearbyColumns ring, sized blockWidth, will have already cycled past
// them.
func longHopSources(g *graph.CSR, blockWidth int) (isSource []bool, index []int32, count int) {
	w := g.TotalRefLength()
	isSource = make([]bool, w)
	for j := 0; j < w; j++ {
		for _, k := range g.InNeighbors(j) {
			if j-int(k) >= blockWidth {
				isSource[k] = true
			}
		}
	}
	index = make([]int32, w)
	for j := range index {
		index[j] = -1
	}
	for j := 0; j < w; j++ {
		if isSource[j] {
			index[j] = int32(count)
			count++
		}
	}
	return isSource, index, count
}

// longHopTargets is the reverse-kernel analog of longHopSources: it marks
// every column that some column blockWidth or more positions behind it
// lists as a successor, since the reverse kernel consults OutNeighbors
// instead of InNeighbors.
func longHopTargets(g *graph.CSR, blockWidth int) (isSource []bool, index []int32, count int) {
	w := g.TotalRefLength()
	isSource = make([]bool, w)
	for j := 0; j < w; j++ {
		for _, k := range g.OutNeighbors(j) {
			if int(k)-j >= blockWidth {
				isSource[k] = true
			}
		}
	}
	index = make([]int32, w)
	for j := range index {
		index[j] = -1
	}
	for j := 0; j < w; j++ {
		if isSource[j] {
			index[j] = int32(count)
			count++
		}
	}
	return isSource, index, count
}
