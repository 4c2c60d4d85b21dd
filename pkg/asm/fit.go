package asm

import (
	"errors"
	"fmt"

	"github.com/therealutkarshpriyadarshi/guiding/pkg/em"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/merge"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/mixture"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/observability"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/sample"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/splitstats"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/suffstats"
)

// refreshPivotDistances recomputes every component's parallax pivot
// distance from the harmonic-mean accumulator in suff, falling back to the
// mixture's current distance for a component with no accumulated mass yet.
func refreshPivotDistances(mix *mixture.Mixture, suff *suffstats.Statistics) {
	for k := 0; k < mix.K; k++ {
		mix.PivotDistances[k] = suff.PivotDistance(k, mix.PivotDistances[k])
	}
}

// Fit cold-starts the region's mixture from scratch, per spec.md §4.7:
// fitMixture, then (if enabled) recursive splitting, a fresh split-
// statistics pass, and merging, finishing with a pivot-distance refresh
// and both since-last counters zeroed. fitStats accumulates this call's
// activity; it is the caller's responsibility to Reset it first if only
// this batch's counts are wanted. tracer receives one "split" event
// carrying the split count once the recursive splitting pass is done, one
// "merge" event per merge pass that merged anything, and one event per
// numeric-degeneracy fault, all from inside Fit; pass
// observability.NoopSink{} to disable it.
func Fit(mix *mixture.Mixture, k int, stats *Statistics, samples []sample.Sample, cfg Configuration, fitStats *FittingStatistics, tracer observability.TracingSink, regionID string) error {
	res, err := em.FitMixture(mix, k, &stats.Suff, samples, cfg.WeightedEM)
	fitStats.InvalidSamples += uint64(res.InvalidSamples)
	fitStats.Batches++
	if err != nil {
		if errors.Is(err, em.ErrNumericDegeneracy) {
			fitStats.NumericDegeneracy = true
			tracer.TraceBatch(regionID, "numeric_degeneracy", map[string]interface{}{"stage": "fit_mixture"})
			return &Error{Kind: KindNumericDegeneracy, Err: err}
		}
		return fmt.Errorf("asm: fit: %w", err)
	}
	stats.Split.SetNumComponents(mix.K)

	if cfg.UseSplitAndMerge {
		splits, serr := splitstats.PerformRecursiveSplitting(mix, &stats.Suff, &stats.Split, samples, cfg.SplitThreshold, cfg.MaxSplitItr, cfg.WeightedEM)
		fitStats.NumSplits += uint64(splits)
		if splits > 0 {
			tracer.TraceBatch(regionID, "split", map[string]interface{}{"stage": "recursive", "count": splits})
		}
		if serr != nil {
			if errors.Is(serr, em.ErrNumericDegeneracy) {
				fitStats.NumericDegeneracy = true
				tracer.TraceBatch(regionID, "numeric_degeneracy", map[string]interface{}{"stage": "recursive_split"})
				return &Error{Kind: KindNumericDegeneracy, Err: serr}
			}
			return fmt.Errorf("asm: fit: recursive splitting: %w", serr)
		}

		stats.Split.Reset(mix.K)
		splitstats.UpdateSplitStatistics(&stats.Split, mix, &stats.Suff, samples)

		merges := merge.PerformMerging(mix, &stats.Suff, &stats.Split, cfg.MergeThreshold)
		fitStats.NumMerges += uint64(merges)
		if merges > 0 {
			tracer.TraceBatch(regionID, "merge", map[string]interface{}{"count": merges})
		}
	}

	refreshPivotDistances(mix, &stats.Suff)
	stats.Split.SinceLastSplit = 0
	stats.SinceLastMerge = 0

	if !mix.Validate() || !stats.ComponentCountsAgree(mix.K) {
		return &Error{Kind: KindCorruptedState, Err: ErrCorruptedState}
	}
	return nil
}
