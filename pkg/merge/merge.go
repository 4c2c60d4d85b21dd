// Package merge finds and executes similar-lobe merges under a
// weighted-dissimilarity threshold, per spec.md §4.6.
package merge

import (
	"github.com/therealutkarshpriyadarshi/guiding/pkg/mixture"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/splitstats"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/suffstats"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/vmf"
)

// bestPair scans the K(K-1)/2 component pairs of mix and returns the pair
// with the smallest weighted dissimilarity (w_a+w_b)*D(a,b), along with
// that score. ok is false when mix has fewer than two components.
func bestPair(mix *mixture.Mixture) (a, b int, score float64, ok bool) {
	if mix.K < 2 {
		return 0, 0, 0, false
	}
	score = -1
	for i := 0; i < mix.K; i++ {
		for j := i + 1; j < mix.K; j++ {
			d := vmf.Dissimilarity(mix.Lobes[i], mix.Lobes[j])
			s := (mix.Weights[i] + mix.Weights[j]) * d
			if score < 0 || s < score {
				a, b, score, ok = i, j, s, true
			}
		}
	}
	return a, b, score, ok
}

// mergePair folds component b into component a using the merge formula of
// spec.md §4.6, then compacts the vacated slot b by moving the last active
// component (index K-1) into it, shrinking K by one. Sufficient and split
// statistics are folded/compacted in lockstep so all three structures keep
// matching component counts.
func mergePair(mix *mixture.Mixture, suff *suffstats.Statistics, s *splitstats.Statistics, a, b int) {
	wa, wb := mix.Weights[a], mix.Weights[b]
	wSum := wa + wb

	combined := mix.Lobes[a].Mu.Scale(wa).Add(mix.Lobes[b].Mu.Scale(wb))
	norm := combined.Norm()
	var mu vmf.Vec3
	if norm > 1e-12 {
		mu = combined.Scale(1 / norm)
	} else {
		mu = mix.Lobes[a].Mu
	}
	r := 0.0
	if wSum > 0 {
		r = norm / wSum
	}
	kappa := vmf.KappaFromMeanCosine(r)

	var d float64
	da, db := mix.PivotDistances[a], mix.PivotDistances[b]
	if wa*db+wb*da > 0 {
		d = wSum * da * db / (wa*db + wb*da) // weighted harmonic mean
	} else {
		d = da
	}

	mix.Lobes[a] = vmf.Lobe{Mu: mu, Kappa: kappa}
	mix.Weights[a] = wSum
	mix.PivotDistances[a] = d

	suff.GammaSum[a] += suff.GammaSum[b]
	suff.VectorMoment[a] = suff.VectorMoment[a].Add(suff.VectorMoment[b])
	suff.InvDistMoment[a] += suff.InvDistMoment[b]

	s.ResetComponent(a)

	last := mix.K - 1
	if b != last {
		mix.Weights[b] = mix.Weights[last]
		mix.Lobes[b] = mix.Lobes[last]
		mix.PivotDistances[b] = mix.PivotDistances[last]

		suff.GammaSum[b] = suff.GammaSum[last]
		suff.VectorMoment[b] = suff.VectorMoment[last]
		suff.InvDistMoment[b] = suff.InvDistMoment[last]

		s.Chi2[b] = s.Chi2[last]
		s.Covariance[b] = s.Covariance[last]
		s.SampleCount[b] = s.SampleCount[last]
	}

	mix.K--
	suff.SetNumComponents(mix.K)
	s.SetNumComponents(mix.K)
}

// PerformMerging repeatedly finds the smallest-weighted-dissimilarity pair
// and merges it while that pair's score is at most threshold (tau_m,
// default 0.00625) and more than one component remains. It returns the
// number of merges performed.
func PerformMerging(mix *mixture.Mixture, suff *suffstats.Statistics, s *splitstats.Statistics, threshold float64) int {
	merges := 0
	for mix.K > 1 {
		a, b, score, ok := bestPair(mix)
		if !ok || score > threshold {
			break
		}
		mergePair(mix, suff, s, a, b)
		merges++
	}
	return merges
}
