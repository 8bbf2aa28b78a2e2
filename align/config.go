package align

import (
	"fmt"

	"github.com/klauspost/cpuid/v2"
)

// SimdWidth selects the scalar or vector kernel and, for the vector
// kernel, its target register width.
type SimdWidth int

const (
	// SimdNone runs the scalar reference kernel for every phase.
	SimdNone SimdWidth = iota
	// Simd256 packs queries into 256-bit lanes.
	Simd256
	// Simd512 packs queries into 512-bit lanes.
	Simd512
)

func (w SimdWidth) String() string {
	switch w {
	case SimdNone:
		return "none"
	case Simd256:
		return "256"
	case Simd512:
		return "512"
	default:
		return "unknown"
	}
}

// bits returns the register width in bits, or 0 for SimdNone.
func (w SimdWidth) bits() int {
	switch w {
	case Simd256:
		return 256
	case Simd512:
		return 512
	default:
		return 0
	}
}

// DetectSimdWidth inspects the running CPU's feature bits (via
// klauspost/cpuid) and returns the widest lane width this process can
// safely target. Callers that want a specific width regardless of the
// host, e.g. for reproducible tests, should just construct a Config with
// SimdWidth set explicitly instead of calling this.
func DetectSimdWidth() SimdWidth {
	switch {
	case cpuid.CPU.Supports(cpuid.AVX512F, cpuid.AVX512BW):
		return Simd512
	case cpuid.CPU.Supports(cpuid.AVX2):
		return Simd256
	default:
		return SimdNone
	}
}

// ScorePrecision is the byte width of one lane's score element.
type ScorePrecision int

const (
	Precision1 ScorePrecision = 1
	Precision2 ScorePrecision = 2
	Precision4 ScorePrecision = 4
)

// Scores holds the four fixed, non-negative linear-gap score parameters.
type Scores struct {
	Match    int32
	Mismatch int32
	Del      int32
	Ins      int32
}

// DefaultScores is the simplest useful scheme: one point per match, one
// point penalty per mismatch, deletion, or insertion.
var DefaultScores = Scores{Match: 1, Mismatch: 1, Del: 1, Ins: 1}

// LaneCount returns the number of queries packed per SIMD register for the
// given (width, precision) pair, i.e. width_bits / (8*precision).
func LaneCount(width SimdWidth, precision ScorePrecision) int {
	b := width.bits()
	if b == 0 {
		return 1
	}
	return b / (8 * int(precision))
}

// Config bundles the vectorized kernel's tunables. BlockWidth and
// BlockHeight default to 8 and 16, the ring/row-block sizes the kernel was
// designed around; they are exposed as fields (rather than untyped
// constants) so tests can probe smaller block sizes against tiny graphs
// without recompiling.
type Config struct {
	SimdWidth      SimdWidth
	ScorePrecision ScorePrecision
	BlockWidth     int
	BlockHeight    int
	Scores         Scores
	// StrictAsserts enables the inter-phase invariant checks
	// (RecomputeMismatch, CigarScoreMismatch, reverse-kernel score
	// agreement). Production callers that have already validated a kernel
	// build may disable these to avoid the extra Phase 3/4 bookkeeping
	// cost; the invariants themselves still hold regardless of this flag.
	StrictAsserts bool
}

// NewConfig returns a Config with the standard block dimensions and the
// given scores, detecting the SIMD width from the host CPU and picking the
// narrowest score precision safe for maxQueryLen.
func NewConfig(scores Scores, maxQueryLen int) (Config, error) {
	cfg := Config{
		SimdWidth:     DetectSimdWidth(),
		BlockWidth:    8,
		BlockHeight:   16,
		Scores:        scores,
		StrictAsserts: true,
	}

	precision, err := SelectPrecision(scores, maxQueryLen)
	if err != nil {
		return Config{}, err
	}
	cfg.ScorePrecision = precision
	return cfg, nil
}

// SelectPrecision picks the narrowest ScorePrecision whose signed range
// can hold every intermediate value the DP recurrence can produce for a
// query of length maxQueryLen, i.e. an upper bound of maxQueryLen*match.
// It returns ErrScorePrecisionOverflow if even 4-byte lanes cannot hold
// that bound (only possible for pathologically long queries or scores).
func SelectPrecision(scores Scores, maxQueryLen int) (ScorePrecision, error) {
	upperBound := int64(maxQueryLen) * int64(scores.Match)
	for _, p := range []ScorePrecision{Precision1, Precision2, Precision4} {
		if fitsSigned(upperBound, p) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: query length %d with match=%d exceeds int32 range", ErrScorePrecisionOverflow, maxQueryLen, scores.Match)
}

func fitsSigned(v int64, p ScorePrecision) bool {
	bits := uint(8*int(p) - 1)
	max := int64(1)<<bits - 1
	return v <= max
}
