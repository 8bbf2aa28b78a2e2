package align

import "errors"

// Sentinel errors this package returns. Internal errors are fatal: there
// is no partial-result surface, so callers are expected to treat any of
// these as unrecoverable for the current batch.
var (
	// ErrScorePrecisionOverflow signals that even 4-byte lanes are too
	// narrow for qryLen*match. SelectPrecision (and so NewConfig) returns
	// it; the batched kernels do not check precision themselves and run at
	// whatever ScorePrecision the Config carries.
	ErrScorePrecisionOverflow = errors.New("score precision overflow")

	// ErrRecomputeMismatch signals that Phase 3's recomputed score
	// disagrees with Phase 1's, indicating a kernel bug.
	ErrRecomputeMismatch = errors.New("phase 3 recompute mismatch")

	// ErrCigarScoreMismatch signals that scoring the emitted CIGAR against
	// the reference walk does not reproduce the best score.
	ErrCigarScoreMismatch = errors.New("cigar score mismatch")

	// ErrReverseScoreMismatch signals that the reverse kernel's nudged
	// score did not come out to exactly one more than the forward score,
	// indicating the two kernels disagree about the chosen strand's
	// alignment.
	ErrReverseScoreMismatch = errors.New("reverse kernel score mismatch")
)
