// Package em implements the weighted EM factory: cold-start mixture
// fitting, warm/online incremental updates, and masked partial refits
// used after a split.
package em

import (
	"errors"
	"fmt"
	"math"

	"github.com/therealutkarshpriyadarshi/guiding/pkg/mixture"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/sample"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/suffstats"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/vmf"
)

// deadComponentEpsilon is the a_k threshold below which a component is
// considered to carry no evidence and is marked dead (weight zeroed).
const deadComponentEpsilon = 1e-10

// ErrNumericDegeneracy is returned when every component's responsibility
// mass collapses to zero or the log-likelihood becomes non-finite. The
// caller must treat the mixture as unchanged; FitMixture and
// UpdateMixture never leave a mixture partially updated on this error.
var ErrNumericDegeneracy = errors.New("em: numeric degeneracy")

// ErrNoValidSamples is returned when a batch contains no sample that
// passes sample.Sample.Valid.
var ErrNoValidSamples = errors.New("em: no valid samples in batch")

// Config holds the weighted EM iteration controls of spec.md §3's
// ASMConfiguration.weightedEMCfg.
type Config struct {
	MaxIterations int
	Threshold     float64
}

// Result reports what one Fit/Update/PartialUpdate call observed, feeding
// asm.FittingStatistics.
type Result struct {
	Iterations     int
	Converged      bool
	LogLikelihood  float64
	InvalidSamples int
	DeadComponents int
}

func validSamples(samples []sample.Sample) ([]sample.Sample, int) {
	out := make([]sample.Sample, 0, len(samples))
	invalid := 0
	for _, s := range samples {
		if s.Valid() {
			out = append(out, s)
		} else {
			invalid++
		}
	}
	return out, invalid
}

func centroid(samples []sample.Sample) vmf.Vec3 {
	var sum vmf.Vec3
	for _, s := range samples {
		sum = sum.Add(s.Position)
	}
	if len(samples) == 0 {
		return vmf.Vec3{}
	}
	return sum.Scale(1 / float64(len(samples)))
}

// FitMixture cold-starts mix with k components seeded on a low-discrepancy
// sphere pattern, pivoted at the centroid of the batch's sample positions,
// then iterates weighted EM to convergence or cfg.MaxIterations. suff is
// reset at the start and holds the final iteration's moments on return,
// ready to seed a subsequent UpdateMixture call.
func FitMixture(mix *mixture.Mixture, k int, suff *suffstats.Statistics, samples []sample.Sample, cfg Config) (Result, error) {
	valid, invalid := validSamples(samples)
	if len(valid) == 0 {
		return Result{InvalidSamples: invalid}, ErrNoValidSamples
	}

	fresh, err := mixture.New(k, centroid(valid))
	if err != nil {
		return Result{InvalidSamples: invalid}, fmt.Errorf("em: %w", err)
	}

	res, err := refit(fresh, suff, valid, cfg)
	res.InvalidSamples = invalid
	if err != nil {
		return res, err
	}
	*mix = *fresh
	return res, nil
}

// Refit iterates weighted EM to convergence (or cfg.MaxIterations) starting
// from mix's current parameters, rather than reseeding them. It is what
// splitstats.PerformRecursiveSplitting calls for the "local EM" pass after
// each split round: the new child lobes start where the split left them and
// are refined in place, never rerandomized. suff is reset at the start of
// every iteration, exactly as in FitMixture; on return it holds the final
// iteration's moments.
func Refit(mix *mixture.Mixture, suff *suffstats.Statistics, samples []sample.Sample, cfg Config) (Result, error) {
	valid, invalid := validSamples(samples)
	if len(valid) == 0 {
		return Result{InvalidSamples: invalid}, ErrNoValidSamples
	}
	working := *mix
	res, err := refit(&working, suff, valid, cfg)
	res.InvalidSamples = invalid
	if err != nil {
		return res, err
	}
	*mix = working
	return res, nil
}

// refit runs the shared iterate-to-convergence loop on mix in place. The
// caller is responsible for passing an already-validated sample slice and
// for deciding whether mix's starting parameters are freshly seeded or
// carried over from a previous fit.
func refit(mix *mixture.Mixture, suff *suffstats.Statistics, valid []sample.Sample, cfg Config) (Result, error) {
	snapshot := *mix
	var res Result
	prevLL := math.Inf(-1)
	for iter := 1; iter <= cfg.MaxIterations; iter++ {
		suff.Clear(mix.K)
		ll, dead, err := emStep(mix, suff, valid)
		if err != nil {
			*mix = snapshot
			return res, err
		}
		res.Iterations = iter
		res.LogLikelihood = ll
		res.DeadComponents = dead

		if !math.IsInf(prevLL, -1) {
			denom := math.Abs(ll)
			if denom < deadComponentEpsilon {
				denom = deadComponentEpsilon
			}
			if math.Abs(ll-prevLL)/denom < cfg.Threshold {
				res.Converged = true
				prevLL = ll
				break
			}
		}
		prevLL = ll
	}
	return res, nil
}

// UpdateMixture performs one online weighted-EM pass: responsibilities are
// computed against mix's current parameters, folded additively into suff
// (which is never reset here), and the M-step reads back the combined
// old+new totals. This is what makes the update "online": suff carries
// history forward across calls, optionally thinned first by
// suffstats.Statistics.Decay.
func UpdateMixture(mix *mixture.Mixture, suff *suffstats.Statistics, samples []sample.Sample, cfg Config) (Result, error) {
	valid, invalid := validSamples(samples)
	res := Result{InvalidSamples: invalid}
	if len(valid) == 0 {
		return res, ErrNoValidSamples
	}

	snapshot := *mix
	if suff.K != mix.K {
		suff.SetNumComponents(mix.K)
	}

	working := *mix
	ll, dead, err := emStep(&working, suff, valid)
	if err != nil {
		*mix = snapshot
		return res, err
	}
	res.Iterations = 1
	res.LogLikelihood = ll
	res.DeadComponents = dead
	res.Converged = true

	*mix = working
	return res, nil
}

// PartialUpdateMixture runs EM restricted to the components where mask is
// true: responsibilities are computed for every component (so the
// normalization denominator p(omega) stays correct), but only masked
// components have their weight/mu/kappa recomputed — components outside
// the mask keep their prior orientation and weight. tempSuff is a scratch
// accumulator, not the persistent statistics; the caller folds the masked
// components back with suffstats.Statistics.MaskedReplace.
func PartialUpdateMixture(mix *mixture.Mixture, mask []bool, tempSuff *suffstats.Statistics, samples []sample.Sample, cfg Config) (Result, error) {
	valid, invalid := validSamples(samples)
	res := Result{InvalidSamples: invalid}
	if len(valid) == 0 {
		return res, ErrNoValidSamples
	}

	snapshot := *mix
	tempSuff.Clear(mix.K)

	working := *mix
	ll, dead, err := emStepMasked(&working, tempSuff, valid, mask)
	if err != nil {
		*mix = snapshot
		return res, err
	}
	res.Iterations = 1
	res.LogLikelihood = ll
	res.DeadComponents = dead
	res.Converged = true

	*mix = working
	return res, nil
}

// emStep runs one full (unmasked) E-step + M-step pass, accumulating into
// suff and writing the posterior back into mix.
func emStep(mix *mixture.Mixture, suff *suffstats.Statistics, samples []sample.Sample) (float64, int, error) {
	mask := make([]bool, mix.K)
	for i := range mask {
		mask[i] = true
	}
	return emStepMasked(mix, suff, samples, mask)
}

// emStepMasked is the shared E/M implementation; mask[k] selects which
// components are eligible to have their parameters updated by the M-step.
func emStepMasked(mix *mixture.Mixture, suff *suffstats.Statistics, samples []sample.Sample, mask []bool) (float64, int, error) {
	k := mix.K
	gamma := make([]float64, k)
	var logLikelihood float64

	for _, s := range samples {
		what := s.DirectionalWeight()
		var p float64
		for j := 0; j < k; j++ {
			f := vmf.Eval(mix.Lobes[j], s.Direction)
			gamma[j] = mix.Weights[j] * f
			p += gamma[j]
		}
		if p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			continue
		}
		logLikelihood += what * math.Log(p)

		var respSum float64
		for j := 0; j < k; j++ {
			g := gamma[j] / p
			respSum += g
			suff.Accumulate(j, what*g, suffstats.Moment3(s.Direction), s.Distance)
		}
		suff.AddSample(what, respSum)
	}
	suff.EndBatch()

	if math.IsNaN(logLikelihood) || math.IsInf(logLikelihood, 0) {
		return 0, 0, ErrNumericDegeneracy
	}

	dead := 0
	allDead := true
	for j := 0; j < k; j++ {
		if suff.GammaSum[j] > deadComponentEpsilon {
			allDead = false
		}
	}
	if allDead {
		return 0, 0, ErrNumericDegeneracy
	}

	var totalMass, frozenWeight float64
	for j := 0; j < k; j++ {
		if j < len(mask) && !mask[j] {
			frozenWeight += mix.Weights[j]
			continue
		}
		totalMass += suff.GammaSum[j]
	}
	if totalMass <= 0 || math.IsNaN(totalMass) {
		return 0, 0, ErrNumericDegeneracy
	}
	// Masked components share the weight the frozen ones leave over.
	freeWeight := math.Max(0, 1-frozenWeight)

	for j := 0; j < k; j++ {
		if j < len(mask) && !mask[j] {
			continue
		}
		a := suff.GammaSum[j]
		if a < deadComponentEpsilon {
			mix.Weights[j] = 0
			mix.Lobes[j].Kappa = 0
			dead++
			continue
		}
		v := suff.VectorMoment[j]
		vNorm := v.Norm()
		r := vNorm / a
		if math.IsNaN(r) || math.IsInf(r, 0) {
			r = 0
		}
		r = clamp(r, 0, 1-1e-6)

		mix.Weights[j] = freeWeight * a / totalMass
		if vNorm > deadComponentEpsilon {
			mix.Lobes[j].Mu = vmf.Vec3(v).Normalize()
		}
		mix.Lobes[j].Kappa = vmf.KappaFromMeanCosine(r)
		mix.PivotDistances[j] = suff.PivotDistance(j, mix.PivotDistances[j])
	}

	return logLikelihood, dead, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
