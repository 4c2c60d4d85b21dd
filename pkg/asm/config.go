// Package asm composes the lobe kernel, mixture, sufficient statistics,
// weighted EM factory, splitter and merger into the Adaptive Split-and-
// Merge fitter: cold-start fit, steady-state update, and the persistent
// configuration/statistics/error types that bind them together.
package asm

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/therealutkarshpriyadarshi/guiding/pkg/em"
)

// Configuration holds the tunables of spec.md §3's ASMConfiguration.
type Configuration struct {
	// SplitThreshold (tau_s) gates split candidates: a component splits
	// only once its normalized chi-squared score exceeds this.
	SplitThreshold float64
	// MergeThreshold (tau_m) gates merges: the smallest weighted
	// dissimilarity pair merges only if it is at most this.
	MergeThreshold float64
	// UseSplitAndMerge disables both dynamics when false; the mixture
	// stays at its initial component count for the region's lifetime.
	UseSplitAndMerge bool
	// PartialRefit enables the masked EM refit restricted to a split's
	// parent/child components, immediately after a split in Update.
	PartialRefit bool
	// MaxSplitItr bounds the split/local-EM iteration count in Fit.
	MaxSplitItr int
	// MinSamplesForSplitting/Merging/PartialRefitting gate Update's split,
	// merge and partial-refit passes against their since-last counters.
	MinSamplesForSplitting        uint64
	MinSamplesForMerging          uint64
	MinSamplesForPartialRefitting int
	// WeightedEM holds the EM iteration cap and convergence threshold.
	WeightedEM em.Config
}

// DefaultConfiguration returns the recommended defaults of spec.md §3/§8.
func DefaultConfiguration() Configuration {
	return Configuration{
		SplitThreshold:                0.75,
		MergeThreshold:                0.00625,
		UseSplitAndMerge:              true,
		PartialRefit:                  true,
		MaxSplitItr:                   5,
		MinSamplesForSplitting:        4096,
		MinSamplesForMerging:          4096,
		MinSamplesForPartialRefitting: 256,
		WeightedEM: em.Config{
			MaxIterations: 50,
			Threshold:     1e-5,
		},
	}
}

// Validate reports whether every field is within its required domain.
func (c Configuration) Validate() error {
	if c.SplitThreshold < 0 {
		return fmt.Errorf("asm: split threshold %v must be >= 0", c.SplitThreshold)
	}
	if c.MergeThreshold < 0 {
		return fmt.Errorf("asm: merge threshold %v must be >= 0", c.MergeThreshold)
	}
	if c.MaxSplitItr < 0 {
		return fmt.Errorf("asm: max split iterations %d must be >= 0", c.MaxSplitItr)
	}
	if c.WeightedEM.MaxIterations < 1 {
		return fmt.Errorf("asm: EM max iterations %d must be >= 1", c.WeightedEM.MaxIterations)
	}
	if c.WeightedEM.Threshold <= 0 {
		return fmt.Errorf("asm: EM convergence threshold %v must be > 0", c.WeightedEM.Threshold)
	}
	return nil
}

const configurationVersion uint32 = 1

// Encode writes c in declared-field order as fixed-width little-endian
// values, per spec.md §6's persistence contract.
func (c Configuration) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fields := []interface{}{
		configurationVersion,
		c.SplitThreshold,
		c.MergeThreshold,
		c.UseSplitAndMerge,
		c.PartialRefit,
		int32(c.MaxSplitItr),
		c.MinSamplesForSplitting,
		c.MinSamplesForMerging,
		int32(c.MinSamplesForPartialRefitting),
		int32(c.WeightedEM.MaxIterations),
		c.WeightedEM.Threshold,
	}
	for _, f := range fields {
		if err := binary.Write(bw, binary.LittleEndian, f); err != nil {
			return fmt.Errorf("asm: encode configuration: %w", err)
		}
	}
	return bw.Flush()
}

// DecodeConfiguration reads a Configuration written by Encode. A version or
// bounds mismatch is a fatal SerializationMismatch per spec.md §7; the
// caller must re-initialize rather than trust a partial result.
func DecodeConfiguration(r io.Reader) (Configuration, error) {
	br := bufio.NewReader(r)
	var version uint32
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return Configuration{}, fmt.Errorf("asm: decode configuration version: %w", err)
	}
	if version != configurationVersion {
		return Configuration{}, fmt.Errorf("%w: configuration version %d", ErrSerializationMismatch, version)
	}

	var c Configuration
	var maxSplitItr, minPartial, maxIterations int32
	fields := []interface{}{
		&c.SplitThreshold,
		&c.MergeThreshold,
		&c.UseSplitAndMerge,
		&c.PartialRefit,
		&maxSplitItr,
		&c.MinSamplesForSplitting,
		&c.MinSamplesForMerging,
		&minPartial,
		&maxIterations,
		&c.WeightedEM.Threshold,
	}
	for _, f := range fields {
		if err := binary.Read(br, binary.LittleEndian, f); err != nil {
			return Configuration{}, fmt.Errorf("%w: %v", ErrSerializationMismatch, err)
		}
	}
	c.MaxSplitItr = int(maxSplitItr)
	c.MinSamplesForPartialRefitting = int(minPartial)
	c.WeightedEM.MaxIterations = int(maxIterations)

	if err := c.Validate(); err != nil {
		return Configuration{}, fmt.Errorf("%w: %v", ErrSerializationMismatch, err)
	}
	return c, nil
}
