package asm

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/therealutkarshpriyadarshi/guiding/pkg/splitstats"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/suffstats"
)

// Statistics is the persistent per-region state of spec.md §3's "ASM
// Statistics (persistent)": sufficient statistics, split statistics, and
// the since-last-merge counter (since-last-split lives on Split, the
// struct that already owns the rest of the split diagnostic; see
// DESIGN.md's Open Question resolutions).
type Statistics struct {
	Suff  suffstats.Statistics
	Split splitstats.Statistics

	// SinceLastMerge is a monotone count of samples folded in since the
	// last merge pass; reset to 0 after Update actually runs PerformMerging.
	SinceLastMerge uint64
}

// Clear resets both accumulators to k components and zeroes both
// since-last counters.
func (s *Statistics) Clear(k int) {
	s.Suff.Clear(k)
	s.Split.Reset(k)
	s.Split.SinceLastSplit = 0
	s.SinceLastMerge = 0
}

// ComponentCountsAgree reports whether Suff and Split both report
// component count k, the invariant spec.md §8 (3) requires to hold after
// every transition.
func (s *Statistics) ComponentCountsAgree(k int) bool {
	return s.Suff.K == k && s.Split.K == k
}

const statisticsVersion uint32 = 1

// Encode writes s in declared-field order: a version header, the
// sufficient statistics, the split-statistics component count and its
// chi2/covariance/sample-count arrays, then the two since-last counters.
// A restored region's split axis search resumes exactly where it left
// off rather than needing a fresh batch to repopulate the covariance
// accumulator.
func (s *Statistics) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, statisticsVersion); err != nil {
		return fmt.Errorf("asm: encode statistics version: %w", err)
	}
	if err := s.Suff.Encode(bw); err != nil {
		return fmt.Errorf("asm: encode statistics: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, int32(s.Split.K)); err != nil {
		return fmt.Errorf("asm: encode statistics: %w", err)
	}
	for k := 0; k < s.Split.K; k++ {
		if err := binary.Write(bw, binary.LittleEndian, s.Split.Chi2[k]); err != nil {
			return fmt.Errorf("asm: encode statistics: %w", err)
		}
		if err := binary.Write(bw, binary.LittleEndian, s.Split.Covariance[k]); err != nil {
			return fmt.Errorf("asm: encode statistics: %w", err)
		}
		if err := binary.Write(bw, binary.LittleEndian, s.Split.SampleCount[k]); err != nil {
			return fmt.Errorf("asm: encode statistics: %w", err)
		}
	}
	if err := binary.Write(bw, binary.LittleEndian, s.Split.SinceLastSplit); err != nil {
		return fmt.Errorf("asm: encode statistics: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, s.SinceLastMerge); err != nil {
		return fmt.Errorf("asm: encode statistics: %w", err)
	}
	return bw.Flush()
}

// DecodeStatistics reads a Statistics written by Encode.
func DecodeStatistics(r io.Reader) (*Statistics, error) {
	br := bufio.NewReader(r)
	var version uint32
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("asm: decode statistics version: %w", err)
	}
	if version != statisticsVersion {
		return nil, fmt.Errorf("%w: statistics version %d", ErrSerializationMismatch, version)
	}

	suff, err := suffstats.Decode(br)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationMismatch, err)
	}

	var k int32
	if err := binary.Read(br, binary.LittleEndian, &k); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationMismatch, err)
	}
	s := &Statistics{Suff: *suff}
	s.Split.SetNumComponents(int(k))
	for i := 0; i < int(k); i++ {
		if err := binary.Read(br, binary.LittleEndian, &s.Split.Chi2[i]); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSerializationMismatch, err)
		}
		if err := binary.Read(br, binary.LittleEndian, &s.Split.Covariance[i]); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSerializationMismatch, err)
		}
		if err := binary.Read(br, binary.LittleEndian, &s.Split.SampleCount[i]); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSerializationMismatch, err)
		}
	}
	if err := binary.Read(br, binary.LittleEndian, &s.Split.SinceLastSplit); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationMismatch, err)
	}
	if err := binary.Read(br, binary.LittleEndian, &s.SinceLastMerge); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationMismatch, err)
	}

	if !s.Suff.Valid() || !s.Split.Valid() {
		return nil, fmt.Errorf("%w: decoded statistics failed validity check", ErrSerializationMismatch)
	}
	return s, nil
}

// FittingStatistics accumulates the non-fatal-error and activity counters
// of spec.md §7's ASMFittingStatistics, reported back to the caller after
// every Fit/Update call.
type FittingStatistics struct {
	InvalidSamples    uint64
	NumericDegeneracy bool
	NumSplits         uint64
	NumMerges         uint64
	CapacityExceeded  uint64
	Batches           uint64
}

// Reset zeroes all counters, typically called once per training batch by
// the caller if it wants per-batch rather than cumulative statistics.
func (f *FittingStatistics) Reset() {
	*f = FittingStatistics{}
}
