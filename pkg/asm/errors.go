package asm

import "errors"

// Kind classifies a Fit/Update failure into the error taxonomy of spec.md
// §7. Fatal kinds (CorruptedState, SerializationMismatch) require the
// caller to re-seed the region; the rest are recorded in
// FittingStatistics and execution continues with the next batch.
type Kind int

const (
	// KindNumericDegeneracy: every component's responsibility mass
	// collapsed, or the log-likelihood went non-finite. The mixture is
	// rolled back to its pre-batch snapshot; not fatal.
	KindNumericDegeneracy Kind = iota
	// KindCapacityExceeded: a split was refused because K == K_max. Not
	// fatal; the mixture is left at its current component count.
	KindCapacityExceeded
	// KindCorruptedState: a post-update validity check failed. Fatal; the
	// region must be re-initialized by the caller.
	KindCorruptedState
	// KindSerializationMismatch: a decode's version or bounds check
	// failed. Fatal for that file.
	KindSerializationMismatch
)

func (k Kind) String() string {
	switch k {
	case KindNumericDegeneracy:
		return "numeric degeneracy"
	case KindCapacityExceeded:
		return "capacity exceeded"
	case KindCorruptedState:
		return "corrupted state"
	case KindSerializationMismatch:
		return "serialization mismatch"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with the Kind a caller should branch on.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "asm: " + e.Kind.String()
	}
	return "asm: " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fatal reports whether e requires the caller to re-seed the region rather
// than simply continuing with the next batch.
func (e *Error) Fatal() bool {
	return e.Kind == KindCorruptedState || e.Kind == KindSerializationMismatch
}

// ErrSerializationMismatch is the sentinel wrapped by decode failures
// across asm's persisted types, matching suffstats.ErrSerializationMismatch
// in spirit but scoped to this package's own Configuration/Statistics
// wire formats.
var ErrSerializationMismatch = errors.New("asm: serialization mismatch")

// ErrCorruptedState is returned when a post-transition validity check
// fails: the mixture and its statistics' component counts disagree, or
// the mixture itself fails Validate.
var ErrCorruptedState = errors.New("asm: corrupted state")
