package graph

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Loader is the contract an external graph source (a VG protobuf reader, a
// FASTA-derived graph builder) must satisfy to hand a parsed description to
// Build. ParseText is the one loader this package implements directly;
// anything reading a richer wire format is an external collaborator.
type Loader func(labels []string, edges []Edge) (*CSR, error)

// ParseText reads the plain-text adjacency format: a header line with the
// vertex count, followed by one line per vertex listing its out-neighbor
// ids followed by its label, all space separated
// (e.g. "1 2 ACGT" for a vertex with out-edges to 1 and 2 and label ACGT).
// This mirrors the original loader's loadFromTxt format exactly; it exists
// as a small, self-contained convenience for tests and fixtures. Reading
// files, VG's protobuf wire format, and FASTA/FASTQ queries are external
// collaborator concerns and are not implemented here.
func ParseText(r io.Reader) (*CSR, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !scanner.Scan() {
		return nil, fmt.Errorf("%w: empty input", ErrGraphInvariant)
	}
	n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid vertex count header: %v", ErrGraphInvariant, err)
	}

	labels := make([]string, n)
	var edges []Edge
	row := 0
	for scanner.Scan() && row < n {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			return nil, fmt.Errorf("%w: vertex %d has no label", ErrGraphInvariant, row)
		}
		labels[row] = fields[len(fields)-1]
		for _, tok := range fields[:len(fields)-1] {
			to, err := strconv.Atoi(tok)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid neighbor id %q at vertex %d", ErrGraphInvariant, tok, row)
			}
			edges = append(edges, Edge{From: row, To: to})
		}
		row++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if row != n {
		return nil, fmt.Errorf("%w: header declared %d vertices, found %d", ErrGraphInvariant, n, row)
	}

	return Build(labels, edges)
}
