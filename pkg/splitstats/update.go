package splitstats

import (
	"math"

	"github.com/therealutkarshpriyadarshi/guiding/pkg/mixture"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/sample"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/suffstats"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/vmf"
)

// responsibilityEpsilon is the minimum responsibility a sample must carry
// for a component before it contributes to that component's covariance
// and sample-count accumulators; it avoids letting every sample touch
// every component's covariance matrix at negligible, noise-dominated
// weight.
const responsibilityEpsilon = 1e-4

// UpdateSplitStatistics accumulates the chi-squared discrepancy, angular
// covariance and sample counts for one batch into s, without modifying
// mix. suff supplies the batch-wide Monte-Carlo weight estimate and each
// component's current mass (a_k); it is read-only here.
func UpdateSplitStatistics(s *Statistics, mix *mixture.Mixture, suff *suffstats.Statistics, samples []sample.Sample) {
	if s.K != mix.K {
		s.SetNumComponents(mix.K)
	}

	for _, smp := range samples {
		if !smp.Valid() {
			continue
		}
		what := smp.DirectionalWeight()
		var p float64
		fk := make([]float64, mix.K)
		for k := 0; k < mix.K; k++ {
			fk[k] = vmf.Eval(mix.Lobes[k], smp.Direction)
			p += mix.Weights[k] * fk[k]
		}
		if p <= 0 || math.IsNaN(p) {
			continue
		}

		for k := 0; k < mix.K; k++ {
			gamma := mix.Weights[k] * fk[k] / p
			if gamma < responsibilityEpsilon {
				continue
			}
			a := suff.GammaSum[k]
			predicted := a * fk[k] / p
			diff := what - predicted
			s.Chi2[k] += gamma * (diff * diff) / (predicted + chi2Epsilon)
			s.SampleCount[k]++

			d := smp.Direction.Sub(mix.Lobes[k].Mu)
			s.Covariance[k].AddOuter([3]float64{d[0], d[1], d[2]}, gamma)
		}
		s.SinceLastSplit++
	}
}

// Score returns the normalized chi-squared split score for component k:
// S_k / (M * a_k), where M is the Monte-Carlo weight estimate
// suff.TotalWeight/suff.N. A component with negligible mass or no samples
// scores zero rather than diverging.
func Score(s *Statistics, suff *suffstats.Statistics, k int) float64 {
	if suff.N == 0 || suff.GammaSum[k] <= 0 {
		return 0
	}
	m := suff.TotalWeight / float64(suff.N)
	if m <= 0 {
		return 0
	}
	return s.Chi2[k] / (m * suff.GammaSum[k])
}
