package splitstats

import (
	"errors"
	"math"

	"github.com/therealutkarshpriyadarshi/guiding/pkg/em"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/mixture"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/sample"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/suffstats"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/vmf"
)

// ErrCapacityExceeded is returned by SplitComponent when the mixture
// already holds mixture.MaxComponents lobes; the caller must refuse the
// split and carry on with the mixture unchanged, per spec.md §4.5.
var ErrCapacityExceeded = errors.New("splitstats: component capacity exceeded")

// powerIterations bounds the power-iteration search for the covariance
// matrix's dominant eigenvector; the matrix is 3x3 and this converges long
// before the bound in every case observed.
const powerIterations = 24

// minSplitSampleCount is the minimum SampleCount a component must have
// accumulated before it is considered for splitting; below this, the
// covariance accumulator is too noise-dominated to trust for an axis.
const minSplitSampleCount = 16

// DetectCandidates returns the indices of components in s whose normalized
// chi-squared score exceeds threshold, ordered by descending score (the
// worst-fit component first), per spec.md §4.5's candidate ranking.
func DetectCandidates(s *Statistics, suff *suffstats.Statistics, threshold float64) []int {
	type scored struct {
		k     int
		score float64
	}
	var candidates []scored
	for k := 0; k < s.K; k++ {
		if s.SampleCount[k] < minSplitSampleCount {
			continue
		}
		sc := Score(s, suff, k)
		if sc > threshold {
			candidates = append(candidates, scored{k, sc})
		}
	}
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].score > candidates[j-1].score; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}
	out := make([]int, len(candidates))
	for i, c := range candidates {
		out[i] = c.k
	}
	return out
}

// principalAxis returns the dominant eigenvector of c by power iteration,
// seeded off-axis from seed so a perfectly isotropic (zero) covariance still
// returns a usable, if arbitrary, split axis.
func principalAxis(c Cov6, seed vmf.Vec3) vmf.Vec3 {
	axis := seed
	if axis.Norm() < 1e-9 {
		axis = vmf.Vec3{0, 1, 0}
	}
	for i := 0; i < powerIterations; i++ {
		next := c.Mul([3]float64{axis[0], axis[1], axis[2]})
		v := vmf.Vec3{next[0], next[1], next[2]}
		n := v.Norm()
		if n < 1e-12 {
			break
		}
		axis = v.Scale(1 / n)
	}
	return axis
}

// rotateAroundAxis rotates the unit vector v by angle theta around the unit
// axis using Rodrigues' formula.
func rotateAroundAxis(v, axis vmf.Vec3, theta float64) vmf.Vec3 {
	c, s := math.Cos(theta), math.Sin(theta)
	cross := axis.Cross(v)
	dot := axis.Dot(v)
	out := v.Scale(c).Add(cross.Scale(s)).Add(axis.Scale(dot * (1 - c)))
	return out.Normalize()
}

// SplitComponent replaces component k of mix with two child lobes whose
// mean directions are mu_k rotated +-theta around the principal axis of the
// angular covariance s.Covariance[k] accumulated for that component, where
// cos(theta) = sqrt(r_k) (spec.md §4.5). Weight is halved between the two
// children, each child's kappa is doubled (a split halves each child's
// angular spread, which doubles its concentration to first order), and the
// parent's pivot distance and split statistics are inherited/reset rather
// than recomputed: the subsequent local EM pass (em.Refit, driven by
// PerformRecursiveSplitting) is what actually separates the children.
//
// suff and s are grown alongside mix; their new slot starts zeroed so the
// next EM pass rebuilds it from scratch. An attempt to split past
// mixture.MaxComponents is refused with ErrCapacityExceeded and leaves mix,
// suff and s unchanged.
func SplitComponent(mix *mixture.Mixture, suff *suffstats.Statistics, s *Statistics, k int) error {
	if mix.K >= mixture.MaxComponents {
		return ErrCapacityExceeded
	}

	parent := mix.Lobes[k]
	r := vmf.MeanCosine(parent.Kappa)
	cosTheta := math.Sqrt(clampUnit(r))
	theta := math.Acos(clampUnit(cosTheta))
	if theta < 1e-6 {
		theta = 1e-6 // never degenerate to a zero-separation split
	}

	axis := principalAxis(s.Covariance[k], orthogonalSeed(parent.Mu))

	newIdx := mix.K
	mix.K++

	childKappa := clampKappa(2 * parent.Kappa)
	if parent.Kappa <= 0 {
		childKappa = 5.0
	}

	mix.Lobes[k] = vmf.Lobe{Mu: rotateAroundAxis(parent.Mu, axis, theta), Kappa: childKappa}
	mix.Lobes[newIdx] = vmf.Lobe{Mu: rotateAroundAxis(parent.Mu, axis, -theta), Kappa: childKappa}

	halfWeight := mix.Weights[k] / 2
	mix.Weights[k] = halfWeight
	mix.Weights[newIdx] = halfWeight

	mix.PivotDistances[newIdx] = mix.PivotDistances[k]

	suff.SetNumComponents(mix.K)
	halfGamma := suff.GammaSum[k] / 2
	halfInvDist := suff.InvDistMoment[k] / 2
	suff.GammaSum[k] = halfGamma
	suff.GammaSum[newIdx] = halfGamma
	suff.InvDistMoment[k] = halfInvDist
	suff.InvDistMoment[newIdx] = halfInvDist
	suff.VectorMoment[k] = suffstats.Moment3(mix.Lobes[k].Mu).Scale(halfGamma * r)
	suff.VectorMoment[newIdx] = suffstats.Moment3(mix.Lobes[newIdx].Mu).Scale(halfGamma * r)

	s.SetNumComponents(mix.K)
	s.ResetComponent(k)
	s.ResetComponent(newIdx)

	return nil
}

// orthogonalSeed returns a unit vector not parallel to mu, used to seed the
// power iteration away from the trivial fixed point at mu itself.
func orthogonalSeed(mu vmf.Vec3) vmf.Vec3 {
	seed := vmf.Vec3{0, 1, 0}
	if math.Abs(mu.Dot(seed)) > 0.9 {
		seed = vmf.Vec3{1, 0, 0}
	}
	d := seed.Sub(mu.Scale(mu.Dot(seed)))
	if d.Norm() < 1e-9 {
		return vmf.Vec3{1, 0, 0}
	}
	return d.Normalize()
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampKappa(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > vmf.KappaMax {
		return vmf.KappaMax
	}
	return v
}

// PerformRecursiveSplitting is the cold-start splitting driver of spec.md
// §4.5/§4.7: it alternates detecting split candidates against threshold,
// executing each split, and refitting the whole mixture in place with
// em.Refit, for up to maxItr passes or until a pass produces no candidate
// (or every candidate is refused for lack of capacity). It is used only
// from fit, never from the steady-state update path.
func PerformRecursiveSplitting(
	mix *mixture.Mixture,
	suff *suffstats.Statistics,
	s *Statistics,
	samples []sample.Sample,
	threshold float64,
	maxItr int,
	emCfg em.Config,
) (splitsPerformed int, err error) {
	for itr := 0; itr < maxItr; itr++ {
		s.Reset(mix.K)
		UpdateSplitStatistics(s, mix, suff, samples)

		candidates := DetectCandidates(s, suff, threshold)
		if len(candidates) == 0 {
			break
		}

		splitThisPass := 0
		for _, k := range candidates {
			if serr := SplitComponent(mix, suff, s, k); serr != nil {
				if errors.Is(serr, ErrCapacityExceeded) {
					break
				}
				return splitsPerformed, serr
			}
			splitThisPass++
			splitsPerformed++
		}
		if splitThisPass == 0 {
			break
		}

		if _, rerr := em.Refit(mix, suff, samples, emCfg); rerr != nil {
			return splitsPerformed, rerr
		}
	}
	return splitsPerformed, nil
}
