// Package seqio provides the small sequence-preparation helpers that sit
// outside the core alignment engine: computing a query's reverse
// complement and packaging both strands into an align.Query. Nothing here
// touches the graph or the DP kernels.
package seqio

import "github.com/nanoref/graphalign/align"

var complement = [256]byte{}

func init() {
	for i := range complement {
		complement[i] = byte(i)
	}
	complement['A'], complement['T'] = 'T', 'A'
	complement['C'], complement['G'] = 'G', 'C'
	complement['a'], complement['t'] = 't', 'a'
	complement['c'], complement['g'] = 'g', 'c'
	complement['N'] = 'N'
	complement['n'] = 'n'
}

// ReverseComplement returns seq's reverse complement, byte by byte:
// unrecognized bytes pass through unchanged rather than erroring, so
// callers scanning lightly-cleaned FASTA/FASTQ input don't need to
// pre-validate every base.
func ReverseComplement(seq string) string {
	out := make([]byte, len(seq))
	n := len(seq)
	for i := 0; i < n; i++ {
		out[n-1-i] = complement[seq[i]]
	}
	return string(out)
}

// NewQuery builds an align.Query from a single-strand read, computing its
// reverse complement so the orchestrator can evaluate both strands.
func NewQuery(id, forward string) align.Query {
	return align.Query{
		ID:                id,
		Forward:           forward,
		ReverseComplement: ReverseComplement(forward),
	}
}
