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

// Update runs the steady-state online step of spec.md §4.7: one online EM
// pass, a split-statistics accumulation, a conditional split pass (gated on
// the since-last-split counter) with an optional partial refit restricted
// to the touched components, a conditional merge pass (gated on
// since-last-merge), and a pivot-distance refresh. tracer sees each split,
// merge, and numeric-degeneracy fault as it happens; pass
// observability.NoopSink{} to disable it.
func Update(mix *mixture.Mixture, stats *Statistics, samples []sample.Sample, cfg Configuration, fitStats *FittingStatistics, tracer observability.TracingSink, regionID string) error {
	res, err := em.UpdateMixture(mix, &stats.Suff, samples, cfg.WeightedEM)
	fitStats.InvalidSamples += uint64(res.InvalidSamples)
	fitStats.Batches++
	if err != nil {
		if errors.Is(err, em.ErrNumericDegeneracy) {
			fitStats.NumericDegeneracy = true
			tracer.TraceBatch(regionID, "numeric_degeneracy", map[string]interface{}{"stage": "update_mixture"})
			return &Error{Kind: KindNumericDegeneracy, Err: err}
		}
		return fmt.Errorf("asm: update: %w", err)
	}

	splitstats.UpdateSplitStatistics(&stats.Split, mix, &stats.Suff, samples)
	stats.SinceLastMerge += uint64(len(samples))

	if cfg.UseSplitAndMerge && stats.Split.SinceLastSplit >= cfg.MinSamplesForSplitting {
		if err := runSplitPass(mix, stats, samples, cfg, fitStats, tracer, regionID); err != nil {
			return err
		}
		stats.Split.SinceLastSplit = 0
	}

	if cfg.UseSplitAndMerge && stats.SinceLastMerge >= cfg.MinSamplesForMerging {
		merges := merge.PerformMerging(mix, &stats.Suff, &stats.Split, cfg.MergeThreshold)
		fitStats.NumMerges += uint64(merges)
		if merges > 0 {
			tracer.TraceBatch(regionID, "merge", map[string]interface{}{"count": merges})
		}
		stats.SinceLastMerge = 0
	}

	refreshPivotDistances(mix, &stats.Suff)

	if !mix.Validate() || !stats.ComponentCountsAgree(mix.K) {
		return &Error{Kind: KindCorruptedState, Err: ErrCorruptedState}
	}
	return nil
}

// runSplitPass iterates the split candidates (scored by split statistics,
// descending) calling SplitComponent while K < K_max and the component's
// score exceeds the threshold, building a mask over every parent/child
// index touched. If any split happened and cfg.PartialRefit applies, the
// masked components are refit in isolation and folded back with
// MaskedReplace, exactly as spec.md §4.7 step 3 describes.
func runSplitPass(mix *mixture.Mixture, stats *Statistics, samples []sample.Sample, cfg Configuration, fitStats *FittingStatistics, tracer observability.TracingSink, regionID string) error {
	candidates := splitstats.DetectCandidates(&stats.Split, &stats.Suff, cfg.SplitThreshold)
	mask := make([]bool, mixture.MaxComponents)
	splitHappened := false

	for _, k := range candidates {
		if mix.K >= mixture.MaxComponents {
			fitStats.CapacityExceeded++
			tracer.TraceBatch(regionID, "split_capacity_exceeded", map[string]interface{}{"k_max": mixture.MaxComponents})
			break
		}
		parent, child := k, mix.K
		if err := splitstats.SplitComponent(mix, &stats.Suff, &stats.Split, k); err != nil {
			if errors.Is(err, splitstats.ErrCapacityExceeded) {
				fitStats.CapacityExceeded++
				tracer.TraceBatch(regionID, "split_capacity_exceeded", map[string]interface{}{"k_max": mixture.MaxComponents})
				break
			}
			return fmt.Errorf("asm: update: split: %w", err)
		}
		mask[parent] = true
		mask[child] = true
		splitHappened = true
		fitStats.NumSplits++
		tracer.TraceBatch(regionID, "split", map[string]interface{}{"parent": parent, "child": child})
	}

	if splitHappened && cfg.PartialRefit && len(samples) >= cfg.MinSamplesForPartialRefitting {
		tempSuff := &suffstats.Statistics{}
		if _, err := em.PartialUpdateMixture(mix, mask[:mix.K], tempSuff, samples, cfg.WeightedEM); err != nil {
			if errors.Is(err, em.ErrNumericDegeneracy) {
				fitStats.NumericDegeneracy = true
				tracer.TraceBatch(regionID, "numeric_degeneracy", map[string]interface{}{"stage": "partial_refit"})
				return &Error{Kind: KindNumericDegeneracy, Err: err}
			}
			return fmt.Errorf("asm: update: partial refit: %w", err)
		}
		stats.Suff.MaskedReplace(mask[:mix.K], tempSuff)
	}
	return nil
}
