package align

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/nanoref/graphalign/graph"
)

// Orchestrator drives the four-phase alignment pipeline for a set of
// queries against one reference graph. Phase 1 dispatches to the scalar or
// vectorized kernel per cfg.SimdWidth; Phase 2 through 4 always run
// per-query on the scalar path, since none of them vectorize.
type Orchestrator struct {
	Graph          *graph.CSR
	Config         Config
	MaxConcurrency int
	Logger         *log.Logger
}

// NewOrchestrator returns an Orchestrator with a default logger and a
// concurrency bound of GOMAXPROCS.
func NewOrchestrator(g *graph.CSR, cfg Config) *Orchestrator {
	return &Orchestrator{
		Graph:          g,
		Config:         cfg,
		MaxConcurrency: runtime.GOMAXPROCS(0),
		Logger:         log.New(os.Stderr),
	}
}

// AlignAll runs the full pipeline for every query, returning one Result per
// query in input order. Internal errors are fatal for the whole call —
// there is no partial-result surface: the first phase failure is returned
// and no results are. Queries already dispatched are not interrupted; they
// run to completion before AlignAll returns.
func (o *Orchestrator) AlignAll(ctx context.Context, queries []Query) ([]Result, error) {
	results := make([]Result, len(queries))

	o.Logger.Debug("aligning batch", "queries", len(queries), "simd", o.Config.SimdWidth, "precision", o.Config.ScorePrecision)

	var err error
	if o.Config.SimdWidth == SimdNone {
		err = o.runScalar(ctx, queries, results)
	} else {
		err = o.runVectorized(ctx, queries, results)
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (o *Orchestrator) runScalar(ctx context.Context, queries []Query, results []Result) error {
	g, cfg := o.Graph, o.Config
	grp, _ := errgroup.WithContext(ctx)
	grp.SetLimit(o.MaxConcurrency)

	for idx, q := range queries {
		idx, q := idx, q
		grp.Go(func() error {
			t0 := time.Now()
			fwdBest := Phase1Scalar(q.Forward, g, cfg.Scores)
			revBest := Phase1Scalar(q.ReverseComplement, g, cfg.Scores)
			phase1Elapsed := time.Since(t0)

			strand, chosenSeq, chosenBest := selectStrand(q, fwdBest, revBest)

			t1 := time.Now()
			revNudge := Phase1ScalarReverse(reverseString(chosenSeq), g, cfg.Scores,
				len(chosenSeq)-1-chosenBest.row, chosenBest.col)
			phase1Elapsed += time.Since(t1)
			if cfg.StrictAsserts && revNudge.score != chosenBest.score+1 {
				return fmt.Errorf("%w: query %s reverse kernel scored %d, forward scored %d",
					ErrReverseScoreMismatch, q.ID, revNudge.score, chosenBest.score)
			}

			res, err := finishAlignment(g, cfg, q.ID, strand, chosenSeq, chosenBest)
			if err != nil {
				return fmt.Errorf("query %s: %w", q.ID, err)
			}
			res.Times.Phase1 = phase1Elapsed
			results[idx] = res
			return nil
		})
	}
	return grp.Wait()
}

func (o *Orchestrator) runVectorized(ctx context.Context, queries []Query, results []Result) error {
	g, cfg := o.Graph, o.Config
	L := LaneCount(cfg.SimdWidth, cfg.ScorePrecision)

	fwdSeqs := make([]string, len(queries))
	revSeqs := make([]string, len(queries))
	for i, q := range queries {
		fwdSeqs[i] = q.Forward
		revSeqs[i] = q.ReverseComplement
	}

	fwdBest := make([]scalarBest, len(queries))
	revBest := make([]scalarBest, len(queries))

	grp, _ := errgroup.WithContext(ctx)
	grp.SetLimit(o.MaxConcurrency)
	for _, b := range sortAndBatch(fwdSeqs, L, cfg.BlockHeight) {
		b := b
		grp.Go(func() error {
			out := forwardBatchDispatch(&b, g, cfg)
			for ln, bq := range b.queries {
				r := out[ln]
				fwdBest[bq.origIdx] = scalarBest{score: r.score, row: int(r.row), col: int(r.col), vid: g.VertexOf(int(r.col))}
			}
			return nil
		})
	}
	for _, b := range sortAndBatch(revSeqs, L, cfg.BlockHeight) {
		b := b
		grp.Go(func() error {
			out := forwardBatchDispatch(&b, g, cfg)
			for ln, bq := range b.queries {
				r := out[ln]
				revBest[bq.origIdx] = scalarBest{score: r.score, row: int(r.row), col: int(r.col), vid: g.VertexOf(int(r.col))}
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return err
	}

	strand := make([]Strand, len(queries))
	chosenSeq := make([]string, len(queries))
	chosenBest := make([]scalarBest, len(queries))
	for i, q := range queries {
		strand[i], chosenSeq[i], chosenBest[i] = selectStrand(q, fwdBest[i], revBest[i])
	}

	reversedChosen := make([]string, len(queries))
	for i := range queries {
		reversedChosen[i] = reverseString(chosenSeq[i])
	}
	revKernelBest := make([]scalarBest, len(queries))

	grp2, _ := errgroup.WithContext(ctx)
	grp2.SetLimit(o.MaxConcurrency)
	for _, b := range sortAndBatch(reversedChosen, L, cfg.BlockHeight) {
		b := b
		grp2.Go(func() error {
			targetRow := make([]int32, b.maxLanes)
			targetCol := make([]int32, b.maxLanes)
			for ln, bq := range b.queries {
				cb := chosenBest[bq.origIdx]
				targetRow[ln] = int32(len(chosenSeq[bq.origIdx]) - 1 - cb.row)
				targetCol[ln] = int32(cb.col)
			}
			out := reverseBatchDispatch(&b, g, cfg, targetRow, targetCol)
			for ln, bq := range b.queries {
				r := out[ln]
				revKernelBest[bq.origIdx] = scalarBest{score: r.score, row: int(r.row), col: int(r.col)}
			}
			return nil
		})
	}
	if err := grp2.Wait(); err != nil {
		return err
	}

	if cfg.StrictAsserts {
		for i := range queries {
			if revKernelBest[i].score != chosenBest[i].score+1 {
				return fmt.Errorf("%w: query %s reverse kernel scored %d, forward scored %d",
					ErrReverseScoreMismatch, queries[i].ID, revKernelBest[i].score, chosenBest[i].score)
			}
		}
	}

	grp3, _ := errgroup.WithContext(ctx)
	grp3.SetLimit(o.MaxConcurrency)
	for i := range queries {
		i := i
		grp3.Go(func() error {
			res, err := finishAlignment(g, cfg, queries[i].ID, strand[i], chosenSeq[i], chosenBest[i])
			if err != nil {
				return fmt.Errorf("query %s: %w", queries[i].ID, err)
			}
			results[i] = res
			return nil
		})
	}
	return grp3.Wait()
}

// selectStrand picks whichever of the two Phase 1 passes scored higher; a
// tie falls through to the reverse strand.
func selectStrand(q Query, fwdBest, revBest scalarBest) (Strand, string, scalarBest) {
	if fwdBest.score > revBest.score {
		return Forward, q.Forward, fwdBest
	}
	return Reverse, q.ReverseComplement, revBest
}

// finishAlignment runs Phase 2 through Phase 4 for one already
// strand-selected query and assembles its Result.
func finishAlignment(g *graph.CSR, cfg Config, id string, strand Strand, chosenSeq string, best scalarBest) (Result, error) {
	var times PhaseTimes

	t2 := time.Now()
	leftCol := Phase2Reachability(g, best.col, len(chosenSeq), cfg.Scores)
	times.Phase2 = time.Since(t2)

	t3 := time.Now()
	p3, err := Phase3Recompute(chosenSeq, g, cfg.Scores, leftCol, best.row, best.col, best.score, cfg.StrictAsserts)
	times.Phase3 = time.Since(t3)
	if err != nil {
		return Result{}, err
	}

	t4 := time.Now()
	cigar, startRow, startCol, err := Phase4Cigar(chosenSeq, g, cfg.Scores, p3, best.row, best.col, best.score, cfg.StrictAsserts)
	times.Phase4 = time.Since(t4)
	if err != nil {
		return Result{}, err
	}

	return Result{
		QueryID:  id,
		Score:    best.score,
		Strand:   strand,
		VidEnd:   best.vid,
		StartRow: startRow,
		StartCol: startCol,
		EndRow:   best.row,
		EndCol:   best.col,
		Cigar:    cigar,
		Times:    times,
	}, nil
}

func forwardBatchDispatch(b *batch, g *graph.CSR, cfg Config) []laneResult {
	switch cfg.ScorePrecision {
	case Precision1:
		return vectorForwardBatch[int8](b, g, cfg)
	case Precision2:
		return vectorForwardBatch[int16](b, g, cfg)
	default:
		return vectorForwardBatch[int32](b, g, cfg)
	}
}

func reverseBatchDispatch(b *batch, g *graph.CSR, cfg Config, targetRow, targetCol []int32) []laneResult {
	switch cfg.ScorePrecision {
	case Precision1:
		return vectorReverseBatch[int8](b, g, cfg, targetRow, targetCol)
	case Precision2:
		return vectorReverseBatch[int16](b, g, cfg, targetRow, targetCol)
	default:
		return vectorReverseBatch[int32](b, g, cfg, targetRow, targetCol)
	}
}
