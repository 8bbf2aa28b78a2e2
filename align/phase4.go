package align

import (
	"fmt"

	"github.com/biogo/hts/sam"
	"github.com/nanoref/graphalign/graph"
)

// Phase4Cigar reconstructs the CIGAR of the optimal local alignment by
// walking the Phase 3 delta log upward and leftward from (endRow, endCol).
// Tie-breaks among equal-scoring options favor match over deletion over
// insertion, matching the order the original recurrence checks them in.
//
// It returns the CIGAR string, the alignment's start row/column, and, when
// strict is set, an error wrapping ErrCigarScoreMismatch if scoring the
// emitted CIGAR does not reproduce bestScore.
func Phase4Cigar(query string, g *graph.CSR, scores Scores, p3 *Phase3Result, endRow, endCol int, bestScore int32, strict bool) (cigarStr string, startRow, startCol int, err error) {
	j0 := p3.LeftCol
	width := p3.Width

	currentRow := append([]int32(nil), p3.FinalRow...)
	aboveRow := make([]int32, width)

	it := graph.NewForwardIterator(g, endCol)
	col := endCol - j0
	row := endRow

	var ops []sam.CigarOpType
	var preds []int32

	for col >= 0 && row >= 0 {
		if currentRow[col] <= 0 {
			break
		}

		for i := 0; i < width; i++ {
			aboveRow[i] = currentRow[i] - int32(p3.DeltaLog[row][i])
		}

		curChar := it.CurChar()
		preds = preds[:0]
		preds = it.NeighborOffsets(preds)

		var matchScore int32
		if curChar == query[row] {
			matchScore = scores.Match
		} else {
			matchScore = -scores.Mismatch
		}

		fromMatch := matchScore
		fromMatchPos := it.GlobalOffset()
		for _, k := range preds {
			if int(k) < j0 {
				continue
			}
			if v := aboveRow[int(k)-j0] + matchScore; v > fromMatch {
				fromMatch = v
				fromMatchPos = int(k)
			}
		}

		fromDeletion := int32(-1)
		var fromDeletionPos int
		for _, k := range preds {
			if int(k) < j0 {
				continue
			}
			if v := currentRow[int(k)-j0] - scores.Del; v > fromDeletion {
				fromDeletion = v
				fromDeletionPos = int(k)
			}
		}

		fromInsertion := aboveRow[col] - scores.Ins

		switch {
		case currentRow[col] == fromMatch:
			if matchScore == scores.Match {
				ops = append(ops, sam.CigarEqual)
			} else {
				ops = append(ops, sam.CigarMismatch)
			}
			if fromMatchPos == it.GlobalOffset() {
				// alignment starts here
				goto done
			}
			it.Jump(fromMatchPos)
			row--
			currentRow, aboveRow = aboveRow, currentRow

		case currentRow[col] == fromDeletion:
			ops = append(ops, sam.CigarDeletion)
			it.Jump(fromDeletionPos)

		case currentRow[col] == fromInsertion:
			ops = append(ops, sam.CigarInsertion)
			row--
			currentRow, aboveRow = aboveRow, currentRow

		default:
			panic(fmt.Sprintf("phase 4 traceback: no candidate reproduces score %d at row %d col %d", currentRow[col], row, col))
		}

		col = it.GlobalOffset() - j0
	}

done:
	startRow = row
	startCol = it.GlobalOffset()

	// reverse and run-length compact
	cigar := make(sam.Cigar, 0, len(ops))
	for i := len(ops) - 1; i >= 0; i-- {
		op := ops[i]
		if n := len(cigar); n > 0 && cigar[n-1].Type() == op {
			cigar[n-1] = sam.NewCigarOp(op, cigar[n-1].Len()+1)
		} else {
			cigar = append(cigar, sam.NewCigarOp(op, 1))
		}
	}
	cigarStr = cigar.String()

	if strict {
		scored := ScoreCigar(cigar, scores)
		if scored != bestScore {
			return "", 0, 0, fmt.Errorf("%w: cigar scores to %d, expected %d", ErrCigarScoreMismatch, scored, bestScore)
		}
	}

	return cigarStr, startRow, startCol, nil
}

// ScoreCigar sums a CIGAR's op-encoded edit costs: each op's type already
// records whether a character was a match, mismatch, insertion, or
// deletion, so no reference/query replay is needed to reproduce its score
// (this mirrors the original implementation, which scores a CIGAR from its
// ops alone).
func ScoreCigar(cigar sam.Cigar, scores Scores) int32 {
	var total int32
	for _, op := range cigar {
		n := int32(op.Len())
		switch op.Type() {
		case sam.CigarEqual:
			total += scores.Match * n
		case sam.CigarMismatch:
			total -= scores.Mismatch * n
		case sam.CigarInsertion:
			total -= scores.Ins * n
		case sam.CigarDeletion:
			total -= scores.Del * n
		}
	}
	return total
}
