// Command graphalign is a thin demo entrypoint: it builds a small inline
// reference graph, aligns a couple of inline reads against it, and prints
// the resulting CIGARs. It exists to exercise the align package end to
// end, not as a FASTA/VG file-format tool.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/nanoref/graphalign/align"
	"github.com/nanoref/graphalign/graph"
	"github.com/nanoref/graphalign/seqio"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.InfoLevel})

	// A short branching reference: ACGT -(branch)-> {GGA, CCA} -> TT
	g, err := graph.Build(
		[]string{"ACGT", "GGA", "CCA", "TT"},
		[]graph.Edge{{From: 0, To: 1}, {From: 0, To: 2}, {From: 1, To: 3}, {From: 2, To: 3}},
	)
	if err != nil {
		return fmt.Errorf("building reference graph: %w", err)
	}

	queries := []align.Query{
		seqio.NewQuery("read1", "ACGTGGATT"),
		seqio.NewQuery("read2", "AATCCAGCAT"), // reverse complement of a near-match
	}

	maxLen := 0
	for _, q := range queries {
		if len(q.Forward) > maxLen {
			maxLen = len(q.Forward)
		}
	}
	cfg, err := align.NewConfig(align.DefaultScores, maxLen)
	if err != nil {
		return fmt.Errorf("selecting score precision: %w", err)
	}

	orch := align.NewOrchestrator(g, cfg)
	orch.Logger = logger

	results, err := orch.AlignAll(context.Background(), queries)
	if err != nil {
		return fmt.Errorf("aligning queries: %w", err)
	}

	for _, r := range results {
		logger.Info("alignment",
			"query", r.QueryID,
			"strand", string(r.Strand),
			"score", r.Score,
			"start", fmt.Sprintf("(%d,%d)", r.StartRow, r.StartCol),
			"end", fmt.Sprintf("(%d,%d)", r.EndRow, r.EndCol),
			"cigar", r.Cigar,
		)
	}
	return nil
}
